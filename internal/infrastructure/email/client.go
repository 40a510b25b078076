// Package email delivers tenant provisioning mail through Resend.
package email

import (
	"fmt"
	"os"

	"github.com/resendlabs/resend-go"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/email/templates"
)

// Service sends provisioning email. The interface exists so tests and
// credential-less deployments can swap in a no-op.
type Service interface {
	SendTenantActivationEmail(toEmail, tenantID, activationURL string) error
}

// ResendClient sends through the Resend API.
type ResendClient struct {
	client *resend.Client
	from   string
}

// NewService builds the Resend-backed service from environment credentials.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	fromEmail := os.Getenv("TENANT_EMAIL_FROM")
	if fromEmail == "" {
		fromEmail = "noreply@lifemap.dev"
	}
	fromName := os.Getenv("TENANT_EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "Lifemap"
	}

	return &ResendClient{
		client: resend.NewClient(apiKey),
		from:   fmt.Sprintf("%s <%s>", fromName, fromEmail),
	}, nil
}

// SendTenantActivationEmail renders and sends the activation message for a
// reserved tenant.
func (c *ResendClient) SendTenantActivationEmail(toEmail, tenantID, activationURL string) error {
	msg := templates.ActivationEmail{
		TenantID:      tenantID,
		ActivationURL: activationURL,
	}

	html, err := msg.HTML()
	if err != nil {
		return fmt.Errorf("building activation email for tenant %s: %w", tenantID, err)
	}

	_, err = c.client.Emails.Send(&resend.SendEmailRequest{
		From:    c.from,
		To:      []string{toEmail},
		Subject: msg.Subject(),
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("sending activation email via Resend: %w", err)
	}
	return nil
}

// NoopService satisfies Service when no email credentials are configured.
// Activation links must then be relayed to the tenant owner by hand.
type NoopService struct{}

// NewNoopService creates a no-op email service.
func NewNoopService() Service {
	return &NoopService{}
}

// SendTenantActivationEmail does nothing.
func (n *NoopService) SendTenantActivationEmail(toEmail, tenantID, activationURL string) error {
	return nil
}
