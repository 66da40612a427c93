package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierpulse/internal/logger"
	"courierpulse/pkg/models"
)

type fakeSender struct {
	calls  []Action
	events []models.EventEnvelope
	err    error
	delay  time.Duration
}

func (f *fakeSender) Send(ctx context.Context, action Action, event models.EventEnvelope) error {
	f.calls = append(f.calls, action)
	f.events = append(f.events, event)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func TestDispatcher_SequentialInListOrder(t *testing.T) {
	email := &fakeSender{}
	webhook := &fakeSender{}
	dispatcher := NewDispatcher(map[string]ChannelSender{
		"email":   email,
		"webhook": webhook,
	}, time.Second, logger.NopLogger())

	candidate := Candidate{
		Rule:  Rule{ID: "rule-a"},
		Match: MatchConditions,
		Actions: []Action{
			{Type: "email", Recipient: "a@example.com", Message: "first"},
			{Type: "webhook", URL: "https://example.com/hook"},
			{Type: "email", Recipient: "b@example.com", Message: "third"},
		},
	}

	outcome := dispatcher.Dispatch(context.Background(), candidate, testEvent(nil))

	assert.True(t, outcome.Success)
	require.Len(t, outcome.Results, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{outcome.Results[0].Index, outcome.Results[1].Index, outcome.Results[2].Index})
	assert.Len(t, email.calls, 2)
	assert.Equal(t, "first", email.calls[0].Message)
	assert.Equal(t, "third", email.calls[1].Message)
	assert.Len(t, webhook.calls, 1)
}

func TestDispatcher_FailingActionDoesNotAbortRemaining(t *testing.T) {
	email := &fakeSender{err: errors.New("smtp relay refused")}
	webhook := &fakeSender{}
	dispatcher := NewDispatcher(map[string]ChannelSender{
		"email":   email,
		"webhook": webhook,
	}, time.Second, logger.NopLogger())

	candidate := Candidate{
		Rule:  Rule{ID: "rule-a"},
		Match: MatchConditions,
		Actions: []Action{
			{Type: "email", Recipient: "a@example.com", Message: "hello"},
			{Type: "webhook", URL: "https://example.com/hook"},
		},
	}

	outcome := dispatcher.Dispatch(context.Background(), candidate, testEvent(nil))

	assert.False(t, outcome.Success)
	require.Len(t, outcome.Results, 2)
	assert.False(t, outcome.Results[0].Success)
	assert.Contains(t, outcome.Results[0].Error, "smtp relay refused")
	assert.True(t, outcome.Results[1].Success)
	assert.Len(t, webhook.calls, 1)
}

func TestDispatcher_UnknownChannelIsRecordedFailure(t *testing.T) {
	dispatcher := NewDispatcher(map[string]ChannelSender{}, time.Second, logger.NopLogger())

	candidate := Candidate{
		Rule:    Rule{ID: "rule-a"},
		Match:   MatchConditions,
		Actions: []Action{{Type: "carrier_pigeon"}},
	}

	outcome := dispatcher.Dispatch(context.Background(), candidate, testEvent(nil))

	assert.False(t, outcome.Success)
	require.Len(t, outcome.Results, 1)
	assert.Contains(t, outcome.Results[0].Error, "no channel adapter")
}

func TestDispatcher_ShutdownDoesNotKillInFlightActions(t *testing.T) {
	email := &fakeSender{delay: 30 * time.Millisecond}
	dispatcher := NewDispatcher(map[string]ChannelSender{"email": email}, time.Second, logger.NopLogger())

	candidate := Candidate{
		Rule:    Rule{ID: "rule-a"},
		Match:   MatchConditions,
		Actions: []Action{{Type: "email", Recipient: "a@example.com", Message: "hello"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := dispatcher.Dispatch(ctx, candidate, testEvent(nil))

	assert.True(t, outcome.Success)
	require.Len(t, outcome.Results, 1)
	assert.True(t, outcome.Results[0].Success)
}

func TestDispatcher_ActionTimeoutBoundsSlowAdapter(t *testing.T) {
	slow := &fakeSender{delay: 500 * time.Millisecond}
	dispatcher := NewDispatcher(map[string]ChannelSender{"email": slow}, 20*time.Millisecond, logger.NopLogger())

	candidate := Candidate{
		Rule:    Rule{ID: "rule-a"},
		Match:   MatchConditions,
		Actions: []Action{{Type: "email", Recipient: "a@example.com", Message: "hello"}},
	}

	start := time.Now()
	outcome := dispatcher.Dispatch(context.Background(), candidate, testEvent(nil))

	assert.False(t, outcome.Success)
	assert.Less(t, time.Since(start), 300*time.Millisecond)
}
