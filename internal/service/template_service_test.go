package service_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/phishsim/internal/errors"
	"github.com/unclebandit/phishsim/internal/service"
)

func TestDefaultTemplateCatalog(t *testing.T) {
	catalog, err := service.DefaultTemplateCatalog()
	require.NoError(t, err)

	list := catalog.List()
	require.Len(t, list, 2)
	assert.Equal(t, "password_reset", list[0].Name)
	assert.Equal(t, "Important Security Alert", list[0].Subject)
	assert.Equal(t, "storage_full", list[1].Name)
	assert.Equal(t, "Action Required: Your Storage is Full", list[1].Subject)
}

func TestLookup_UnknownAndMalformedNames(t *testing.T) {
	catalog, err := service.DefaultTemplateCatalog()
	require.NoError(t, err)

	for _, name := range []string{"missing", "../templates", "", "password reset"} {
		_, err := catalog.Lookup(name)
		assert.ErrorIs(t, err, appErrors.ErrTemplateNotFound, name)
	}
}

func TestCompose_EmbedsLinkAndPixel(t *testing.T) {
	catalog, err := service.DefaultTemplateCatalog()
	require.NoError(t, err)
	composer := service.NewComposer(catalog, "https://phish.example.com/", "Security Team <noreply@yourcompany.com>")

	msg, err := composer.Compose(3, "storage_full", "abc-123", "a@x.com")
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, "Action Required: Your Storage is Full", msg.Subject)
	assert.Contains(t, msg.HTML, `href="https://phish.example.com/track/3/abc-123"`)
	assert.Contains(t, msg.HTML, "a@x.com")
	assert.Regexp(t, `<img src="https://phish.example.com/track_open/abc-123" width="1" height="1" alt="">$`, msg.HTML)
}

func TestLoadTemplateCatalog_FromDirectory(t *testing.T) {
	fsys := fstest.MapFS{
		"templates.yaml": {Data: []byte(`
templates:
  - name: invoice
    subject: Overdue invoice
  - name: password_reset
`)},
		"phishing_email_invoice.html":        {Data: []byte(`<a href="{{ tracking_link }}">Invoice #{{ campaign_id }}</a>`)},
		"phishing_email_password_reset.html": {Data: []byte(`<a href="{{ tracking_link }}">reset</a>`)},
	}

	catalog, err := service.LoadTemplateCatalog(fsys)
	require.NoError(t, err)

	reset, err := catalog.Lookup("password_reset")
	require.NoError(t, err)
	assert.Equal(t, "Important Security Alert", reset.Subject)

	composer := service.NewComposer(catalog, "http://h", "noreply@h")
	msg, err := composer.Compose(42, "invoice", "t", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Overdue invoice", msg.Subject)
	assert.Contains(t, msg.HTML, `<a href="http://h/track/42/t">Invoice #42</a>`)
}

func TestLoadTemplateCatalog_Errors(t *testing.T) {
	_, err := service.LoadTemplateCatalog(fstest.MapFS{})
	assert.Error(t, err)

	_, err = service.LoadTemplateCatalog(fstest.MapFS{
		"templates.yaml": {Data: []byte("templates:\n  - name: ghost\n")},
	})
	assert.Error(t, err)

	_, err = service.LoadTemplateCatalog(fstest.MapFS{
		"templates.yaml": {Data: []byte("templates:\n  - name: ../etc\n")},
	})
	assert.Error(t, err)

	_, err = service.LoadTemplateCatalog(fstest.MapFS{
		"templates.yaml":          {Data: []byte("templates:\n  - name: bad\n")},
		"phishing_email_bad.html": {Data: []byte("{% if %}")},
	})
	assert.Error(t, err)
}
