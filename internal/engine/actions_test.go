package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActions_ValidList(t *testing.T) {
	actions, err := ParseActions([]byte(`[
		{"type":"email","recipient":"{{.consumer_email}}","subject":"Order update","message":"Your order is {{.order_status}}"},
		{"type":"webhook","url":"https://example.com/hook","method":"POST"}
	]`))
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "email", actions[0].Type)
	assert.Equal(t, "https://example.com/hook", actions[1].URL)
}

func TestParseActions_EmptyInput(t *testing.T) {
	actions, err := ParseActions(nil)
	require.NoError(t, err)
	assert.Nil(t, actions)
}

func TestParseActions_RejectsUnknownType(t *testing.T) {
	_, err := ParseActions([]byte(`[{"type":"fax","recipient":"x","message":"y"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action type")
}

func TestParseActions_RejectsMissingParameters(t *testing.T) {
	_, err := ParseActions([]byte(`[{"type":"email","message":"no recipient"}]`))
	require.Error(t, err)

	_, err = ParseActions([]byte(`[{"type":"webhook"}]`))
	require.Error(t, err)

	_, err = ParseActions([]byte(`[{"type":"sms","recipient":"+31"}]`))
	require.Error(t, err)
}
