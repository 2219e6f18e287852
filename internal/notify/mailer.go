package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

const (
	verifySubject = "Verify your email"
	resetSubject  = "Reset your password"
)

var verifyTemplate = template.Must(template.New("verify").Parse(`<h1>Verify your email</h1>
<p>Hi {{.Name}},</p>
<p>Please click this <a href="{{.Link}}">link</a> to verify your email address.</p>
<p>The link expires in {{.Expires}}.</p>`))

var resetTemplate = template.Must(template.New("reset").Parse(`<h1>Reset your password</h1>
<p>Hi {{.Name}},</p>
<p>Please click this <a href="{{.Link}}">link</a> to reset your password.</p>
<p>The link expires in {{.Expires}}. If you did not request a reset you can ignore this email.</p>`))

type templateData struct {
	Name    string
	Link    string
	Expires string
}

// Mailer renders the account emails and hands them to a Dispatcher.
type Mailer struct {
	dispatcher Dispatcher
	baseURL    string
	expires    string
}

// NewMailer builds links as baseURL + "/auth/users/verify/<token>" and
// baseURL + "/auth/users/password-reset-confirm/<token>".
func NewMailer(dispatcher Dispatcher, baseURL string, linkTTL fmt.Stringer) *Mailer {
	return &Mailer{
		dispatcher: dispatcher,
		baseURL:    strings.TrimRight(baseURL, "/"),
		expires:    linkTTL.String(),
	}
}

func (m *Mailer) SendVerification(ctx context.Context, email string, name string, token string) error {
	return m.send(ctx, email, verifySubject, verifyTemplate, templateData{
		Name:    name,
		Link:    m.baseURL + "/auth/users/verify/" + url.PathEscape(token),
		Expires: m.expires,
	})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, email string, name string, token string) error {
	return m.send(ctx, email, resetSubject, resetTemplate, templateData{
		Name:    name,
		Link:    m.baseURL + "/auth/users/password-reset-confirm/" + url.PathEscape(token),
		Expires: m.expires,
	})
}

func (m *Mailer) send(ctx context.Context, email string, subject string, tmpl *template.Template, data templateData) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}

	return m.dispatcher.Send(ctx, Message{
		Recipients: []string{email},
		Subject:    subject,
		Body:       body.String(),
	})
}
