package core

import (
	"bytes"
	"embed"
	htmltmpl "html/template"
	"net/mail"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

//go:embed templates
var templatesFS embed.FS

var (
	textTemplates *texttmpl.Template
	htmlTemplates *htmltmpl.Template
	tmplInit      sync.Once
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData wraps data passed to email templates.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func parseEmailTemplates() {
	tmplInit.Do(func() {
		textTemplates = texttmpl.Must(texttmpl.ParseFS(templatesFS, "templates/*.txt"))
		htmlTemplates = htmltmpl.Must(htmltmpl.ParseFS(templatesFS, "templates/*.html"))
	})
}

// Render resolves the message's TextContent and HTMLContent, either from
// BodyStr or by executing the named templates with TemplateData.
func (msg *EmailMessage) Render() error {
	if msg.BodyStr != "" {
		msg.TextContent = msg.BodyStr
		return nil
	}
	if msg.TemplateName == "" {
		return nil
	}
	parseEmailTemplates()

	var text bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, msg.TemplateName+".txt", msg.TemplateData); err != nil {
		return errors.Wrapf(err, "executing template %s.txt", msg.TemplateName)
	}
	msg.TextContent = text.String()

	var html bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, msg.TemplateName+".html", msg.TemplateData); err != nil {
		return errors.Wrapf(err, "executing template %s.html", msg.TemplateName)
	}
	msg.HTMLContent = html.String()
	return nil
}

func (msg *EmailMessage) HasRecipients() bool {
	return len(msg.To) > 0 || len(msg.Cc) > 0 || len(msg.Bcc) > 0
}

func (msg *EmailMessage) HasContent() bool {
	return msg.TextContent != "" || msg.HTMLContent != ""
}
