package engine

import (
	"strings"

	"courierpulse/pkg/models"
)

// Attribute keys the structural pre-filter reads from the event.
const (
	AttrCourierID   = "courier_id"
	AttrOrderStatus = "order_status"
	AttrOrderValue  = "order_value"
)

// PassesStructuralFilter is the cheap gate that runs before the condition
// tree. Checks short-circuit in cost order: active flag, courier set,
// order-status set, minimum order value. An empty courier or status set
// matches every event; a rule with a minimum order value rejects events
// that carry no usable order value.
func PassesStructuralFilter(rule Rule, event models.EventEnvelope) bool {
	if !rule.IsActive {
		return false
	}

	if len(rule.CourierIDs) > 0 {
		courier, ok := event.Attributes[AttrCourierID].(string)
		if !ok || !containsFold(rule.CourierIDs, courier) {
			return false
		}
	}

	if len(rule.OrderStatuses) > 0 {
		status, ok := event.Attributes[AttrOrderStatus].(string)
		if !ok || !containsFold(rule.OrderStatuses, status) {
			return false
		}
	}

	if rule.MinOrderValue != nil {
		value, ok := toFloat(event.Attributes[AttrOrderValue])
		if !ok || value < *rule.MinOrderValue {
			return false
		}
	}

	return true
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}
