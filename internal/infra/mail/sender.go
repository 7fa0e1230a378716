package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

var summaryTemplate = template.Must(template.New("conversion_summary").Parse(`<p>Hi {{.ClientName}},</p>
<p>{{.Count}} new contact(s) were added to your CRM:</p>
<ul>
{{- range .Contacts}}
<li>{{.Name}}{{if .JobTitle}}, {{.JobTitle}}{{end}} at {{.CompanyName}} ({{.Email}})</li>
{{- end}}
</ul>`))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		From:   from,
		dialer: gomail.NewDialer(host, port, user, password),
	}
}

func NewEmailSenderWithDialer(d Dialer, from string) *EmailSender {
	return &EmailSender{From: from, dialer: d}
}

func (s *EmailSender) SendConversionSummary(to, clientName string, contacts []queue.ConvertedContact) error {
	body, err := RenderConversionSummary(ConversionSummaryData{
		ClientName: clientName,
		Count:      len(contacts),
		Contacts:   contacts,
	})
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("%d new contacts added to your CRM", len(contacts)))
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send SMTP email: %w", err)
	}

	return nil
}

func RenderConversionSummary(data ConversionSummaryData) (string, error) {
	var body bytes.Buffer
	if err := summaryTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return body.String(), nil
}
