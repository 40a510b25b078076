// Package templates renders the transactional email bodies lifemap sends
// during tenant provisioning.
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

const defaultActivationExpiryHours = 48

// activationTmpl is the whole activation message: one centered card, inline
// styles only so mail clients render it the same everywhere.
var activationTmpl = template.Must(template.New("activationEmail").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>lifemap</title>
</head>
<body style="margin:0;padding:0;background-color:#f4f5f6;font-family:Helvetica,Arial,sans-serif;font-size:16px;line-height:1.4;color:#1f2933;">
<div style="max-width:600px;margin:0 auto;padding:24px;">
  <div style="background:#ffffff;border:1px solid #eaebed;border-radius:12px;padding:24px;">
    <h1 style="margin:0 0 16px 0;font-size:20px;color:#0867ec;">lifemap</h1>
    <p style="margin:0 0 16px 0;">Hello {{.RecipientName}},</p>
    <p style="margin:0 0 16px 0;">Your lifemap tenant <strong>{{.TenantID}}</strong> is reserved. Activate it to start serving lifecycle diagram widgets to your record consoles and portals:</p>
    <p style="margin:0 0 16px 0;">
      <a href="{{.ActivationURL}}" target="_blank" style="display:inline-block;padding:12px 24px;border-radius:6px;background-color:#0867ec;color:#ffffff;font-weight:bold;text-decoration:none;">Activate tenant</a>
    </p>
    <p style="margin:0 0 16px 0;">This link expires in {{.ExpirationHours}} hours. If the button does not work, paste this address into your browser:</p>
    <p style="margin:0;word-break:break-all;"><a href="{{.ActivationURL}}" style="color:#0867ec;">{{.ActivationURL}}</a></p>
  </div>
  <p style="text-align:center;color:#9a9ea6;font-size:14px;margin:24px 0 0 0;">lifecycle widgets for your records</p>
</div>
</body>
</html>`))

type activationData struct {
	RecipientName   string
	TenantID        string
	ActivationURL   template.URL
	ExpirationHours int
}

// ActivationEmail carries everything the activation message interpolates.
type ActivationEmail struct {
	RecipientName   string
	TenantID        string
	ActivationURL   string
	ExpirationHours int
}

// Subject returns the message subject line.
func (e ActivationEmail) Subject() string {
	return "Activate your lifemap tenant"
}

// HTML renders the full activation document. The activation link must be an
// http or https URL; anything else is rejected before it reaches a mail
// client. Tenant IDs and recipient names are escaped by the template.
func (e ActivationEmail) HTML() (string, error) {
	link, err := safeLink(e.ActivationURL)
	if err != nil {
		return "", err
	}

	name := e.RecipientName
	if name == "" {
		name = "there"
	}
	hours := e.ExpirationHours
	if hours <= 0 {
		hours = defaultActivationExpiryHours
	}

	var buf bytes.Buffer
	if err := activationTmpl.Execute(&buf, activationData{
		RecipientName:   name,
		TenantID:        e.TenantID,
		ActivationURL:   link,
		ExpirationHours: hours,
	}); err != nil {
		return "", fmt.Errorf("rendering activation email: %w", err)
	}
	return buf.String(), nil
}

func safeLink(raw string) (template.URL, error) {
	if raw == "" {
		return "", fmt.Errorf("activation link is empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid activation link: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("activation link scheme %q is not allowed", parsed.Scheme)
	}
	return template.URL(parsed.String()), nil
}
