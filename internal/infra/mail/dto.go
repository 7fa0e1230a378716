package mail

import (
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

type ConversionSummaryData struct {
	ClientName string
	Count      int
	Contacts   []queue.ConvertedContact
}

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	From   string
	dialer Dialer
}
