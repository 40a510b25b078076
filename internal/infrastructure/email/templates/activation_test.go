package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivationEmail_RendersTenantAndLink(t *testing.T) {
	msg := ActivationEmail{
		RecipientName:   "Dana",
		TenantID:        "acme",
		ActivationURL:   "https://lifemap.dev/activate?token=abc",
		ExpirationHours: 24,
	}

	html, err := msg.HTML()
	require.NoError(t, err)

	assert.Contains(t, html, "Hello Dana,")
	assert.Contains(t, html, "<strong>acme</strong>")
	assert.Contains(t, html, `href="https://lifemap.dev/activate?token=abc"`)
	assert.Contains(t, html, "24 hours")
	assert.Equal(t, "Activate your lifemap tenant", msg.Subject())
}

func TestActivationEmail_Defaults(t *testing.T) {
	msg := ActivationEmail{
		TenantID:      "acme",
		ActivationURL: "https://lifemap.dev/activate",
	}

	html, err := msg.HTML()
	require.NoError(t, err)

	assert.Contains(t, html, "Hello there,")
	assert.Contains(t, html, "48 hours")
}

func TestActivationEmail_EscapesTenantID(t *testing.T) {
	msg := ActivationEmail{
		TenantID:      `<script>alert(1)</script>`,
		ActivationURL: "https://lifemap.dev/activate",
	}

	html, err := msg.HTML()
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestActivationEmail_RejectsUnsafeLink(t *testing.T) {
	for _, link := range []string{"", "javascript:alert(1)", "data:text/html,hi"} {
		msg := ActivationEmail{TenantID: "acme", ActivationURL: link}
		_, err := msg.HTML()
		assert.Error(t, err, "link %q", link)
	}
}
