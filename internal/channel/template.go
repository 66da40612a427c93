package channel

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"courierpulse/pkg/models"
)

// Render executes a message template against the event. Templates see
// the flat attribute map plus event_id, event_source, event_type and
// event_timestamp; a referenced key that is absent renders empty rather
// than failing the whole action.
func Render(text string, event models.EventEnvelope) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("action").Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var builder strings.Builder
	if err := tmpl.Execute(&builder, templateData(event)); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	return builder.String(), nil
}

// templateData flattens everything into strings so that missingkey=zero
// renders an absent key as "" instead of the "<no value>" placeholder an
// interface-valued map would produce.
func templateData(event models.EventEnvelope) map[string]string {
	data := make(map[string]string, len(event.Attributes)+4)
	for key, value := range event.Attributes {
		data[key] = fmt.Sprint(value)
	}
	data["event_id"] = event.ID
	data["event_source"] = event.Source
	data["event_type"] = event.Type
	data["event_timestamp"] = event.Timestamp.Format(time.RFC3339)
	return data
}
