package mailer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
	sendgridTimeout  = 30 * time.Second
)

// SendgridMailer delivers messages through the SendGrid v3 API.
type SendgridMailer struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
	client     *rest.Client
}

// NewSendgridMailer builds a SendGrid sender with a fixed from address.
func NewSendgridMailer(key, fromName, fromAddress string) *SendgridMailer {
	prefix := ""
	if fromName != "" {
		prefix = "[" + fromName + "] "
	}
	return &SendgridMailer{
		key:        key,
		host:       sendgridHost,
		from:       sgmail.NewEmail(fromName, fromAddress),
		subjPrefix: prefix,
		client:     &rest.Client{HTTPClient: &http.Client{Timeout: sendgridTimeout}},
	}
}

// Send posts the message and treats any 4xx/5xx answer as a failure so the outbox retries it.
// The request is bound to ctx, so cancelling it aborts a send in flight.
func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if msg.To.Address == "" {
		return fmt.Errorf("sendgrid: recipient required")
	}

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, m.host)
	req.Method = rest.Post
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return fmt.Errorf("sendgrid build request: %w", err)
	}
	httpRes, err := m.client.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return fmt.Errorf("sendgrid read response: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected message: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (m *SendgridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Address))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	if msg.Text != "" {
		v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return v3
}
