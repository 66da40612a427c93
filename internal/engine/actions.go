package engine

import (
	"encoding/json"
	"fmt"

	"courierpulse/internal/constants"
)

var knownActionTypes = map[string]bool{
	constants.ActionTypeEmail:   true,
	constants.ActionTypeSms:     true,
	constants.ActionTypeWebhook: true,
	constants.ActionTypeInApp:   true,
}

// ParseActions decodes and validates a stored action list. Unknown action
// kinds and missing channel parameters are rejected here, at rule-save
// and rule-load time, so dispatch never sees a malformed spec.
func ParseActions(data []byte) ([]Action, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var actions []Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, fmt.Errorf("failed to decode action list: %w", err)
	}

	for i, action := range actions {
		if err := validateAction(action); err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
	}

	return actions, nil
}

func validateAction(action Action) error {
	if !knownActionTypes[action.Type] {
		return fmt.Errorf("unknown action type %q", action.Type)
	}

	switch action.Type {
	case constants.ActionTypeEmail:
		if action.Recipient == "" {
			return fmt.Errorf("email action requires a recipient")
		}
		if action.Message == "" {
			return fmt.Errorf("email action requires a message")
		}
	case constants.ActionTypeSms:
		if action.Recipient == "" {
			return fmt.Errorf("sms action requires a recipient")
		}
		if action.Message == "" {
			return fmt.Errorf("sms action requires a message")
		}
	case constants.ActionTypeWebhook:
		if action.URL == "" {
			return fmt.Errorf("webhook action requires a url")
		}
	case constants.ActionTypeInApp:
		if action.Recipient == "" {
			return fmt.Errorf("inapp action requires a recipient")
		}
		if action.Message == "" {
			return fmt.Errorf("inapp action requires a message")
		}
	}

	return nil
}
