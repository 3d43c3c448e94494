// internal/service/template_service.go
package service

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/osteele/liquid"
	"gopkg.in/yaml.v3"

	appErrors "github.com/unclebandit/phishsim/internal/errors"
	"github.com/unclebandit/phishsim/internal/mailer"
)

//go:embed emails/templates.yaml emails/*.html
var embeddedEmails embed.FS

const manifestFile = "templates.yaml"

var templateNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// EmailTemplate is a parsed email body plus its subject line.
type EmailTemplate struct {
	Name        string
	Subject     string
	Description string
	body        *liquid.Template
}

type manifest struct {
	Templates []struct {
		Name        string `yaml:"name"`
		Subject     string `yaml:"subject"`
		Description string `yaml:"description"`
	} `yaml:"templates"`
}

// TemplateCatalog resolves template names to parsed bodies.
type TemplateCatalog struct {
	templates map[string]*EmailTemplate
}

// DefaultTemplateCatalog returns the catalog compiled into the binary.
func DefaultTemplateCatalog() (*TemplateCatalog, error) {
	sub, err := fs.Sub(embeddedEmails, "emails")
	if err != nil {
		return nil, err
	}
	return LoadTemplateCatalog(sub)
}

// NewTemplateCatalog loads from dir, or the embedded catalog when dir is empty.
func NewTemplateCatalog(dir string) (*TemplateCatalog, error) {
	if dir == "" {
		return DefaultTemplateCatalog()
	}
	return LoadTemplateCatalog(os.DirFS(dir))
}

// LoadTemplateCatalog reads templates.yaml and every body it names from fsys.
func LoadTemplateCatalog(fsys fs.FS) (*TemplateCatalog, error) {
	raw, err := fs.ReadFile(fsys, manifestFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", manifestFile, err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", manifestFile, err)
	}

	engine := liquid.NewEngine()
	catalog := &TemplateCatalog{templates: make(map[string]*EmailTemplate, len(m.Templates))}
	for _, entry := range m.Templates {
		if !templateNamePattern.MatchString(entry.Name) {
			return nil, fmt.Errorf("invalid template name %q", entry.Name)
		}
		src, err := fs.ReadFile(fsys, bodyFile(entry.Name))
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", entry.Name, err)
		}
		tpl, perr := engine.ParseString(string(src))
		if perr != nil {
			return nil, fmt.Errorf("template %s: %w", entry.Name, perr)
		}
		subject := entry.Subject
		if subject == "" {
			subject = defaultSubject(entry.Name)
		}
		catalog.templates[entry.Name] = &EmailTemplate{
			Name:        entry.Name,
			Subject:     subject,
			Description: entry.Description,
			body:        tpl,
		}
	}
	return catalog, nil
}

func bodyFile(name string) string {
	return "phishing_email_" + name + ".html"
}

func defaultSubject(name string) string {
	if name == "password_reset" {
		return "Important Security Alert"
	}
	return "Action Required: Your Storage is Full"
}

// Lookup returns ErrTemplateNotFound for unknown or malformed names.
func (c *TemplateCatalog) Lookup(name string) (*EmailTemplate, error) {
	if !templateNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", appErrors.ErrTemplateNotFound, name)
	}
	t, ok := c.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", appErrors.ErrTemplateNotFound, name)
	}
	return t, nil
}

// List returns the templates sorted by name.
func (c *TemplateCatalog) List() []EmailTemplate {
	out := make([]EmailTemplate, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Composer turns a template and a tracking id into an outbound message.
type Composer struct {
	Catalog *TemplateCatalog
	BaseURL string
	From    string
}

func NewComposer(catalog *TemplateCatalog, baseURL, from string) *Composer {
	return &Composer{Catalog: catalog, BaseURL: strings.TrimRight(baseURL, "/"), From: from}
}

func (c *Composer) TrackingLink(campaignID int, trackingID string) string {
	return fmt.Sprintf("%s/track/%d/%s", c.BaseURL, campaignID, trackingID)
}

func (c *Composer) OpenPixelURL(trackingID string) string {
	return fmt.Sprintf("%s/track_open/%s", c.BaseURL, trackingID)
}

// Compose renders the named template for one recipient and appends the
// open-tracking pixel.
func (c *Composer) Compose(campaignID int, templateName, trackingID, recipient string) (mailer.Message, error) {
	tpl, err := c.Catalog.Lookup(templateName)
	if err != nil {
		return mailer.Message{}, err
	}

	pixelURL := c.OpenPixelURL(trackingID)
	body, rerr := tpl.body.RenderString(map[string]any{
		"tracking_link":   c.TrackingLink(campaignID, trackingID),
		"open_pixel_url":  pixelURL,
		"recipient_email": recipient,
		"campaign_id":     campaignID,
	})
	if rerr != nil {
		return mailer.Message{}, fmt.Errorf("render %s: %w", templateName, rerr)
	}
	body += fmt.Sprintf(`<img src="%s" width="1" height="1" alt="">`, pixelURL)

	return mailer.Message{
		From:    c.From,
		To:      recipient,
		Subject: tpl.Subject,
		HTML:    body,
	}, nil
}
