package model

import "time"

// Session is the server-assigned handle binding a temporary mailbox to
// subsequent queries.
type Session struct {
	// ID is the opaque identifier issued by the upstream service.
	ID string `json:"id"`

	// Addresses holds the addresses pre-assigned at session creation.
	// It may be empty, in which case one is requested explicitly.
	Addresses []string `json:"addresses"`
}

// Message is a single mail received by the temporary mailbox.
// Messages are immutable once fetched.
type Message struct {
	// ID is the upstream identifier, used for seen-set membership.
	ID string `json:"id"`

	// From is the raw sender header. It may embed a display name
	// before an angle-bracketed address.
	From string `json:"from"`

	// Subject is the decoded subject header; may be empty.
	Subject string `json:"subject"`

	// Text is the plain-text body; may be empty.
	Text string `json:"text"`

	// HTML is the HTML body, used when no plain-text part exists.
	HTML string `json:"html"`

	// DownloadURL links to the raw RFC 822 message.
	DownloadURL string `json:"download_url"`

	// ReceivedAt is for display only; ordering is purely positional.
	ReceivedAt time.Time `json:"received_at"`
}
