package channel

import (
	"courierpulse/internal/constants"
	"courierpulse/internal/engine"
)

var (
	_ engine.ChannelSender = (*WebhookAdapter)(nil)
	_ engine.ChannelSender = (*EmailAdapter)(nil)
	_ engine.ChannelSender = (*SmsAdapter)(nil)
	_ engine.ChannelSender = (*InAppAdapter)(nil)
)

// NewRegistry maps action types to their adapters for the dispatcher.
// A nil adapter is left out, so a deployment without MongoDB simply has
// no inapp channel and such actions fail with a recorded error.
func NewRegistry(webhook *WebhookAdapter, email *EmailAdapter, sms *SmsAdapter, inapp *InAppAdapter) map[string]engine.ChannelSender {
	senders := make(map[string]engine.ChannelSender, 4)
	if webhook != nil {
		senders[constants.ActionTypeWebhook] = webhook
	}
	if email != nil {
		senders[constants.ActionTypeEmail] = email
	}
	if sms != nil {
		senders[constants.ActionTypeSms] = sms
	}
	if inapp != nil {
		senders[constants.ActionTypeInApp] = inapp
	}
	return senders
}
