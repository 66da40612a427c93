package management

import (
	"fmt"

	"courierpulse/internal/engine"
	"courierpulse/pkg/cel"
)

// newParser builds a throwaway condition parser. Compilation of
// expression nodes needs a CEL environment, which is cheap to create
// relative to a management API call.
func newParser() (*engine.ConditionParser, error) {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
	}
	return engine.NewConditionParser(evaluator), nil
}

func ValidateCreateRule(req CreateRuleRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.Conditions) == 0 {
		return fmt.Errorf("conditions are required")
	}
	if len(req.Actions) == 0 {
		return fmt.Errorf("actions are required")
	}

	parser, err := newParser()
	if err != nil {
		return err
	}
	if _, err := parser.Parse(req.Conditions); err != nil {
		return fmt.Errorf("invalid conditions: %w", err)
	}

	actions, err := engine.ParseActions(req.Actions)
	if err != nil {
		return fmt.Errorf("invalid actions: %w", err)
	}
	if len(actions) == 0 {
		return fmt.Errorf("actions cannot be empty")
	}
	if len(req.ElseActions) > 0 {
		if _, err := engine.ParseActions(req.ElseActions); err != nil {
			return fmt.Errorf("invalid else_actions: %w", err)
		}
	}

	return validateRuleSettings(req.CooldownHours, req.MaxExecutions, req.WindowStart, req.WindowEnd)
}

func ValidateUpdateRule(req UpdateRuleRequest) error {
	if req.Name != nil && *req.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if req.Conditions != nil {
		parser, err := newParser()
		if err != nil {
			return err
		}
		if _, err := parser.Parse(*req.Conditions); err != nil {
			return fmt.Errorf("invalid conditions: %w", err)
		}
	}
	if req.Actions != nil {
		actions, err := engine.ParseActions(*req.Actions)
		if err != nil {
			return fmt.Errorf("invalid actions: %w", err)
		}
		if len(actions) == 0 {
			return fmt.Errorf("actions cannot be empty")
		}
	}
	if req.ElseActions != nil && len(*req.ElseActions) > 0 {
		if _, err := engine.ParseActions(*req.ElseActions); err != nil {
			return fmt.Errorf("invalid else_actions: %w", err)
		}
	}

	cooldown := 0
	if req.CooldownHours != nil {
		cooldown = *req.CooldownHours
	}
	windowStart, windowEnd := "", ""
	if req.WindowStart != nil {
		windowStart = *req.WindowStart
	}
	if req.WindowEnd != nil {
		windowEnd = *req.WindowEnd
	}
	return validateRuleSettings(cooldown, req.MaxExecutions, windowStart, windowEnd)
}

func validateRuleSettings(cooldownHours int, maxExecutions *int, windowStart, windowEnd string) error {
	if cooldownHours < 0 {
		return fmt.Errorf("cooldown_hours must be non-negative")
	}
	if maxExecutions != nil && *maxExecutions <= 0 {
		return fmt.Errorf("max_executions must be positive")
	}
	if (windowStart == "") != (windowEnd == "") {
		return fmt.Errorf("window_start and window_end must be set together")
	}
	if windowStart != "" {
		if _, err := engine.ParseExecutionWindow(windowStart, windowEnd); err != nil {
			return fmt.Errorf("invalid execution window: %w", err)
		}
	}
	return nil
}

func ValidateInstantiateTemplate(req InstantiateTemplateRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.CooldownHours < 0 {
		return fmt.Errorf("cooldown_hours must be non-negative")
	}
	return nil
}
