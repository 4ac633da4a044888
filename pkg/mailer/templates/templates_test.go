package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWelcome(t *testing.T) {
	subject, text, html, err := Render(Welcome, map[string]any{
		"Name":    "Ada",
		"Email":   "ada@example.com",
		"AppName": "authgate",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, subject)
	assert.NotEmpty(t, text)
	assert.Contains(t, html, "Ada")
	assert.Contains(t, html, "ada@example.com")
}

func TestRenderProfileUpdated(t *testing.T) {
	subject, _, html, err := Render(ProfileUpdated, map[string]any{
		"Name":    "Ada",
		"AppName": "authgate",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, subject)
	assert.Contains(t, html, "Ada")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", nil)
	assert.Error(t, err)
}
