package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type ticketEmailData struct {
	baseEmailData
	Ticket
	OccurredAtFormatted string
}

func newTicketEmailData(heading string, t Ticket) ticketEmailData {
	data := ticketEmailData{
		baseEmailData: baseEmailData{Title: heading, Heading: heading, Subheading: t.TicketNumber},
		Ticket:        t,
	}
	if !t.OccurredAt.IsZero() {
		data.OccurredAtFormatted = t.OccurredAt.UTC().Format("2006-01-02 15:04 UTC")
	}
	return data
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func priorityLabel(p string) string {
	if p == "" {
		return "MEDIUM"
	}
	return strings.ToUpper(p)
}
