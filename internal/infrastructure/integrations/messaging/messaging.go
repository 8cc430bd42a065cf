// Package messaging sends and receives messages over Google Chat webhooks and the WhatsApp Cloud API.
package messaging

import (
	"errors"
)

// Channel identifies a messaging provider
type Channel string

const (
	ChannelGoogleChat Channel = "google_chat"
	ChannelWhatsApp   Channel = "whatsapp"
)

// IsValid reports whether the channel is supported
func (c Channel) IsValid() bool {
	return c == ChannelGoogleChat || c == ChannelWhatsApp
}

var (
	// ErrChannelDisabled is returned when the channel has no credentials configured
	ErrChannelDisabled = errors.New("messaging channel is not configured")

	// ErrInvalidSignature is returned when a webhook payload fails HMAC verification
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrEmptyMessage is returned for blank message bodies
	ErrEmptyMessage = errors.New("message body is empty")
)
