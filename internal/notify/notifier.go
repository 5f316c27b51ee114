// Package notify delivers member lifecycle notifications.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/communitylink/membership-api/internal/model"
	"github.com/communitylink/membership-api/internal/shared/logger"
	"github.com/communitylink/membership-api/internal/shared/metrics"
	"github.com/yuin/goldmark"
)

// Notifier receives lifecycle signals. Implementations must not fail the caller.
type Notifier interface {
	OnApproved(ctx context.Context, member *model.Member)
	OnRejected(ctx context.Context, member *model.Member)
	OnRenewed(ctx context.Context, member *model.Member)
}

// Event names used in templates, logs and metrics
const (
	EventApproved = "approved"
	EventRejected = "rejected"
	EventRenewed  = "renewed"
)

// EmailNotifier renders markdown templates and hands them to a Sender.
type EmailNotifier struct {
	sender       Sender
	markdown     goldmark.Markdown
	templates    map[string]*emailTemplate
	organization string
	portalURL    string
}

var _ Notifier = (*EmailNotifier)(nil)

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

type templateData struct {
	Organization string
	PortalURL    string
	FirstName    string
	ReferenceNo  string
	Category     model.MembershipCategory
	ExpiryDate   string
	Reason       string
}

func NewEmailNotifier(sender Sender, organization, portalURL string) *EmailNotifier {
	return &EmailNotifier{
		sender:       sender,
		markdown:     goldmark.New(),
		templates:    mustParseTemplates(),
		organization: organization,
		portalURL:    portalURL,
	}
}

func (n *EmailNotifier) OnApproved(ctx context.Context, member *model.Member) {
	n.deliver(ctx, EventApproved, member)
}

func (n *EmailNotifier) OnRejected(ctx context.Context, member *model.Member) {
	n.deliver(ctx, EventRejected, member)
}

func (n *EmailNotifier) OnRenewed(ctx context.Context, member *model.Member) {
	n.deliver(ctx, EventRenewed, member)
}

func (n *EmailNotifier) deliver(ctx context.Context, event string, member *model.Member) {
	log := logger.FromContext(ctx)

	msg, err := n.Render(event, member)
	if err != nil {
		metrics.Notifications.WithLabelValues(event, "render_error").Inc()
		log.Error("Notification render failed", "event", event, "reference_no", member.ReferenceNo, "error", err)
		return
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		metrics.Notifications.WithLabelValues(event, "error").Inc()
		log.Error("Notification send failed", "event", event, "reference_no", member.ReferenceNo, "error", err)
		return
	}

	metrics.Notifications.WithLabelValues(event, "sent").Inc()
	log.Info("Notification sent", "event", event, "reference_no", member.ReferenceNo, "email", logger.MaskEmail(member.Email))
}

// Render builds the email for event without sending it.
func (n *EmailNotifier) Render(event string, member *model.Member) (Message, error) {
	tmpl, ok := n.templates[event]
	if !ok {
		return Message{}, fmt.Errorf("notify: no template for event %q", event)
	}

	data := templateData{
		Organization: n.organization,
		PortalURL:    n.portalURL,
		FirstName:    member.FirstName,
		ReferenceNo:  member.ReferenceNo,
		Category:     member.Category,
	}
	if member.ExpiryDate != nil {
		data.ExpiryDate = member.ExpiryDate.Format("2 January 2006")
	}
	if member.RejectedReason != nil {
		data.Reason = *member.RejectedReason
	}

	var subject, body, html bytes.Buffer
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}
	if err := tmpl.body.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("render body: %w", err)
	}
	if err := n.markdown.Convert(body.Bytes(), &html); err != nil {
		return Message{}, fmt.Errorf("convert markdown: %w", err)
	}

	return Message{
		To:      []string{member.Email},
		Subject: subject.String(),
		HTML:    html.String(),
		Text:    body.String(),
	}, nil
}

// CertificateTrigger signals the certificate pipeline when a member is approved or renewed.
// The pipeline itself runs elsewhere; this only emits the trigger.
type CertificateTrigger struct {
	now func() time.Time
}

var _ Notifier = (*CertificateTrigger)(nil)

func NewCertificateTrigger() *CertificateTrigger {
	return &CertificateTrigger{now: time.Now}
}

func (c *CertificateTrigger) OnApproved(ctx context.Context, member *model.Member) {
	c.request(ctx, EventApproved, member)
}

func (c *CertificateTrigger) OnRejected(context.Context, *model.Member) {}

func (c *CertificateTrigger) OnRenewed(ctx context.Context, member *model.Member) {
	c.request(ctx, EventRenewed, member)
}

func (c *CertificateTrigger) request(ctx context.Context, event string, member *model.Member) {
	metrics.Notifications.WithLabelValues("certificate_"+event, "requested").Inc()
	logger.FromContext(ctx).Info("certificate_requested",
		"event", event,
		"member_id", member.ID,
		"reference_no", member.ReferenceNo,
		"requested_at", c.now().UTC(),
	)
}

// Multi fans a signal out to several notifiers in order.
type Multi []Notifier

var _ Notifier = Multi(nil)

func (m Multi) OnApproved(ctx context.Context, member *model.Member) {
	for _, n := range m {
		n.OnApproved(ctx, member)
	}
}

func (m Multi) OnRejected(ctx context.Context, member *model.Member) {
	for _, n := range m {
		n.OnRejected(ctx, member)
	}
}

func (m Multi) OnRenewed(ctx context.Context, member *model.Member) {
	for _, n := range m {
		n.OnRenewed(ctx, member)
	}
}
