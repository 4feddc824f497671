package domain

// EmailMessage is the ephemeral payload handed to the notification transport.
// It is constructed per notification and discarded after send.
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
}
