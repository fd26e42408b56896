package queue

import (
	"bytes"
	"fmt"
	"text/template"
)

// Message is a rendered notification ready for a Mailer.
type Message struct {
	To      string
	Subject string
	Body    string
}

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(name, subject, body string) messageTemplate {
	return messageTemplate{
		subject: template.Must(template.New(name + ".subject").Parse(subject)),
		body:    template.Must(template.New(name + ".body").Parse(body)),
	}
}

var templates = map[string]messageTemplate{
	"created": mustTemplate("created",
		"Booking request received: {{.HallName}} on {{.Date}}",
		`Hello {{.RequesterName}}, your request #{{.BookingID}} for {{.HallName}} on {{.Date}} from {{.StartTime}} to {{.EndTime}} ({{.Attendees}} attendees) is awaiting approval.`),
	"updated": mustTemplate("updated",
		"Booking request changed: {{.HallName}} on {{.Date}}",
		`Hello {{.RequesterName}}, request #{{.BookingID}} now covers {{.HallName}} on {{.Date}} from {{.StartTime}} to {{.EndTime}} ({{.Attendees}} attendees). It is still awaiting approval.`),
	"approved": mustTemplate("approved",
		"Booking approved: {{.HallName}} on {{.Date}}",
		`Hello {{.RequesterName}}, booking #{{.BookingID}} for {{.HallName}} on {{.Date}} from {{.StartTime}} to {{.EndTime}} has been approved.`),
	"rejected": mustTemplate("rejected",
		"Booking rejected: {{.HallName}} on {{.Date}}",
		`Hello {{.RequesterName}}, booking #{{.BookingID}} for {{.HallName}} on {{.Date}} from {{.StartTime}} to {{.EndTime}} was rejected.{{if .Reason}} Reason: {{.Reason}}{{end}}`),
	"cancelled": mustTemplate("cancelled",
		"Booking cancelled: {{.HallName}} on {{.Date}}",
		`Hello {{.RequesterName}}, booking #{{.BookingID}} for {{.HallName}} on {{.Date}} from {{.StartTime}} to {{.EndTime}} has been cancelled.`),
	"reminder": mustTemplate("reminder",
		"Reminder: {{.HallName}} tomorrow at {{.StartTime}}",
		`Hello {{.RequesterName}}, this is a reminder that {{.HallName}} ({{.HallLocation}}) is booked for you on {{.Date}} from {{.StartTime}} to {{.EndTime}}. Purpose: {{.Purpose}}`),
}

// Render builds the message for an event.  Unknown types are an error so
// the consumer can drop them.
func Render(ev BookingEvent) (Message, error) {
	t, ok := templates[ev.Type]
	if !ok {
		return Message{}, fmt.Errorf("no template for event type %q", ev.Type)
	}
	subject, err := execute(t.subject, ev)
	if err != nil {
		return Message{}, err
	}
	body, err := execute(t.body, ev)
	if err != nil {
		return Message{}, err
	}
	return Message{To: ev.RequesterEmail, Subject: subject, Body: body}, nil
}

func execute(t *template.Template, ev BookingEvent) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, ev); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
