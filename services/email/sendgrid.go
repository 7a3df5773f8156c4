package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/minumate/backend/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type sendgridService struct {
	conf       *core.Config
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     core.Logger
}

var (
	_ core.EmailService       = (*sendgridService)(nil)
	_ core.TrackedEmailSender = (*sendgridService)(nil)
)

func NewSendgridService(conf *core.Config, logger core.Logger) *sendgridService {
	return &sendgridService{
		conf:       conf,
		key:        conf.SendgridAPIKey,
		from:       sgmail.NewEmail(conf.DefaultFromEmail.Name, conf.DefaultFromEmail.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if _, err := svc.SendTracked(msg, false); err != nil {
				svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
			}
		}()
	}
}

// SendTracked sends the message and returns SendGrid's X-Message-Id.
func (svc sendgridService) SendTracked(msg *core.EmailMessage, trackingEnabled bool) (string, error) {
	if err := msg.Render(svc.conf); err != nil {
		return "", errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return "", errors.New("email has no recipients or content")
	}
	return svc.send(*msg, trackingEnabled)
}

func (svc sendgridService) prepare(msg core.EmailMessage, trackingEnabled bool) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject

	for _, to := range msg.To {
		p.AddTos(svc.getSGEmail(to))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(svc.getSGEmail(cc))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(svc.getSGEmail(bcc))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)

	if msg.TextContent != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	ts := sgmail.NewTrackingSettings()
	ct := sgmail.NewClickTrackingSetting()
	ct.SetEnable(trackingEnabled)
	ct.SetEnableText(false)
	ot := sgmail.NewOpenTrackingSetting()
	ot.SetEnable(trackingEnabled)
	ts.SetClickTracking(ct)
	ts.SetOpenTracking(ot)
	m.SetTrackingSettings(ts)

	for _, a := range msg.Attachments {
		m.AddAttachment(svc.getSGAttachment(a))
	}

	return m
}

func (svc sendgridService) getSGEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func (svc sendgridService) getSGAttachment(at core.Attachment) *sgmail.Attachment {
	return &sgmail.Attachment{
		Content:     at.Content.String(),
		Type:        at.ContentType,
		Filename:    at.Filename,
		Disposition: "attachment",
	}
}

func (svc sendgridService) send(msg core.EmailMessage, trackingEnabled bool) (string, error) {
	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg, trackingEnabled))

	res, err := sendgrid.API(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to send email")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return "", errors.Errorf("failed to send email - status: %d - Body: %s", res.StatusCode, res.Body)
	}
	// no retries; failures surface to the caller

	if ids := res.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}
