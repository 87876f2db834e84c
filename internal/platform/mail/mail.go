// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mail delivers the templated messages behind the link-based flows
(sign-up verification, forgot-password, admin invites).

Architecture:

  - Sender: The outbound transport contract (SMTP in production, a fake in tests).
  - Template: A stored subject/text/html triple with a single $linkURL placeholder.
  - Service: Loads the template, substitutes the link, and dispatches.

Delivery failure is surfaced to the orchestrator, which converts it into a
generic server error — SMTP details never reach a client.
*/
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// linkPlaceholder is substituted with the generated sign-in link URL.
const linkPlaceholder = "$linkURL"

// Template is a stored e-mail template, keyed by slug.
type Template struct {
	Slug    string `json:"slug"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// TemplateRepository defines the data access contract for e-mail templates.
type TemplateRepository interface {
	// FindBySlug returns the template with the given slug.
	FindBySlug(context context.Context, slug string) (*Template, error)
}

// Sender defines the outbound delivery contract.
type Sender interface {
	// Send delivers a single message. A non-nil error means the message was
	// not accepted by the transport.
	Send(context context.Context, to, subject, text, html string) error
}

// # Composition Service

// Service composes and dispatches templated messages.
type Service struct {
	templates TemplateRepository
	sender    Sender
	logger    *slog.Logger
}

// NewService constructs a new mail [Service].
func NewService(templates TemplateRepository, sender Sender, logger *slog.Logger) *Service {
	return &Service{
		templates: templates,
		sender:    sender,
		logger:    logger,
	}
}

/*
SendTemplate loads the template identified by slug, substitutes the link URL,
and dispatches the message.

Parameters:
  - context: context.Context
  - slug: string (template identifier, e.g. "sign-up")
  - to: string (recipient address)
  - linkURL: string (fully-qualified sign-in link)

Returns:
  - error: Template lookup or delivery failures
*/
func (service *Service) SendTemplate(context context.Context, slug, to, linkURL string) error {
	template, err := service.templates.FindBySlug(context, slug)
	if err != nil {
		return fmt.Errorf("mail_template_lookup_failed: %w", err)
	}

	text := strings.ReplaceAll(template.Text, linkPlaceholder, linkURL)
	html := strings.ReplaceAll(template.HTML, linkPlaceholder, linkURL)

	if err := service.sender.Send(context, to, template.Subject, text, html); err != nil {
		service.logger.ErrorContext(context, "mail_delivery_failed",
			slog.String("template", slug),
			slog.Any("error", err),
		)
		return fmt.Errorf("mail_delivery_failed: %w", err)
	}

	service.logger.InfoContext(context, "mail_delivered", slog.String("template", slug))

	return nil
}

// # SMTP Transport

// SMTPSender delivers messages over authenticated SMTP.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender constructs an [SMTPSender] from connection settings.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send implements [Sender] using net/smtp with a multipart/alternative body.
func (sender *SMTPSender) Send(context context.Context, to, subject, text, html string) error {
	const boundary = "signon-alt-boundary"

	var message strings.Builder
	message.WriteString("From: " + sender.from + "\r\n")
	message.WriteString("To: " + to + "\r\n")
	message.WriteString("Subject: " + subject + "\r\n")
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n")
	message.WriteString("\r\n")

	// Plain-text part first: clients pick the last part they can render.
	message.WriteString("--" + boundary + "\r\n")
	message.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	message.WriteString(text + "\r\n")

	message.WriteString("--" + boundary + "\r\n")
	message.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	message.WriteString(html + "\r\n")

	message.WriteString("--" + boundary + "--\r\n")

	address := fmt.Sprintf("%s:%d", sender.host, sender.port)
	auth := smtp.PlainAuth("", sender.username, sender.password, sender.host)

	if err := smtp.SendMail(address, auth, sender.from, []string{to}, []byte(message.String())); err != nil {
		return fmt.Errorf("smtp_send_failed: %w", err)
	}

	return nil
}
