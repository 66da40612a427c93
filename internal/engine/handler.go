package engine

import (
	"context"
	"encoding/json"

	"courierpulse/internal/logger"
	"courierpulse/pkg/models"
)

type ConfigReloader interface {
	ReloadRules(ctx context.Context, skipJitter ...bool) error
}

// ConfigHandler reacts to rule change events published by the management
// service. Any create, update, delete or toggle triggers a full snapshot
// reload; the reload interval ticker remains the safety net when an
// event is missed.
type ConfigHandler struct {
	reloader ConfigReloader
	logger   logger.Logger
}

func NewConfigHandler(reloader ConfigReloader, log logger.Logger) *ConfigHandler {
	return &ConfigHandler{reloader: reloader, logger: log}
}

func (h *ConfigHandler) HandleConfigUpdateEvent(ctx context.Context, envelope models.EventEnvelope) error {
	if envelope.Type != models.EventTypeRuleUpdated {
		return nil
	}

	var event models.ConfigUpdateEvent
	payload, err := json.Marshal(envelope.Attributes)
	if err != nil {
		h.logger.Errorw("Failed to marshal config event attributes", "error", err, "id", envelope.ID)
		return err
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Errorw("Failed to unmarshal config event", "error", err, "id", envelope.ID)
		return err
	}

	h.logger.Infow("Received rule update event",
		"action", event.Action,
		"rule_id", event.RuleID,
		"changed_by", event.ChangedBy,
	)

	if err := h.reloader.ReloadRules(ctx, true); err != nil {
		h.logger.Errorw("Failed to reload rules after config update", "error", err)
		return err
	}

	h.logger.Infow("Rules reloaded after config update", "action", event.Action)
	return nil
}
