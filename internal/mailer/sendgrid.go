// Package mailer delivers the export workbook to the respondent by email.
package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// French copy matching the workbook the service sends out.
const (
	Subject  = "Analyse de vos factures : résultat disponible"
	BodyHTML = "<p>Bonjour,</p>" +
		"<p>L'analyse de votre/vos factures a été exécutée avec succès. Le fichier Excel est en pièce jointe.</p>"
)

type SendGrid struct {
	client *sendgrid.Client
	sender string
	logger *slog.Logger
}

func NewSendGrid(apiKey, sender string, logger *slog.Logger) *SendGrid {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		sender: sender,
		logger: logger,
	}
}

// Send mails the XLSX bytes as a base64 attachment.
func (s *SendGrid) Send(ctx context.Context, to, subject, htmlBody, filename string, attachment []byte) error {
	from := mail.NewEmail("", s.sender)
	msg := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), "", htmlBody)

	att := mail.NewAttachment()
	att.SetContent(base64.StdEncoding.EncodeToString(attachment))
	att.SetType(xlsxMIME)
	att.SetFilename(filename)
	att.SetDisposition("attachment")
	msg.AddAttachment(att)

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}

	s.logger.Info("mail.sent", "to", to, "status", resp.StatusCode, "attachment", filename)
	return nil
}
