package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Email is the request body accepted by the email service's /send endpoint.
type Email struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Template string `json:"template,omitempty"`
	Data     any    `json:"data,omitempty"`
}

const (
	templateOrderPlaced   = "order_placed"
	templatePasswordReset = "password_reset"
)

var templates = template.Must(template.New("").Parse(`
{{define "order_placed"}}Dear {{.Username}},

Thank you for your order #{{.OrderID}}.

{{range .Items}}- {{.ProductName}}: {{.Quantity}} x {{.Price}} = {{.TotalPrice}}{{with .ImageURL}} ({{.}}){{end}}
{{end}}
Total: {{.TotalAmount.StringFixed 2}}

We will let you know when it ships.
{{end}}
{{define "password_reset"}}Dear {{.Username}},

You requested a password reset. Click the link below to reset your password:
{{.ResetURL}}

If you did not request this password reset, please ignore this email.
{{end}}`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func RenderOrderPlaced(event domain.OrderPlacedEvent) (Email, error) {
	body, err := render(templateOrderPlaced, event)
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:       event.Email,
		Subject:  fmt.Sprintf("Order Confirmation #%d", event.OrderID),
		Body:     body,
		Template: templateOrderPlaced,
		Data:     event,
	}, nil
}

func RenderPasswordReset(event domain.PasswordResetEvent) (Email, error) {
	body, err := render(templatePasswordReset, event)
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:       event.Email,
		Subject:  "Password Reset Request",
		Body:     body,
		Template: templatePasswordReset,
		Data:     event,
	}, nil
}
