package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/quirkcart/quirkcart/internal/config"
	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/logger"
	"github.com/quirkcart/quirkcart/internal/queue"
)

const notifierDefaultTimeout = 10 * time.Second

// NotificationService sends transactional email through the mail
// provider's HTTP API. Notify enqueues and never fails the caller;
// Deliver runs on the worker and does the actual send.
type NotificationService struct {
	cfg        config.NotifierConfig
	site       config.SiteConfig
	queue      *queue.Client
	httpClient *http.Client
}

// NewNotificationService creates the notification service.
func NewNotificationService(cfg config.NotifierConfig, site config.SiteConfig, queueClient *queue.Client) *NotificationService {
	timeout := notifierDefaultTimeout
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	return &NotificationService{
		cfg:   cfg,
		site:  site,
		queue: queueClient,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Notify queues an outbound email. Failures are logged and swallowed:
// a checkout or status change never fails because its email could not
// be queued.
func (s *NotificationService) Notify(payload queue.NotifyDispatchPayload) {
	if s == nil {
		return
	}
	if strings.TrimSpace(payload.Email) == "" || strings.TrimSpace(payload.Event) == "" {
		return
	}
	if s.queue != nil && s.queue.Enabled() {
		var err error
		if payload.Event == constants.NotifyEventMagicLink {
			err = s.queue.EnqueueNotifyDispatchCritical(payload)
		} else {
			err = s.queue.EnqueueNotifyDispatch(payload)
		}
		if err != nil {
			logger.Warnw("notify_enqueue_failed", "event", payload.Event, "error", err)
		}
		return
	}
	// no queue configured, deliver inline off the request path
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifierDefaultTimeout)
		defer cancel()
		if err := s.Deliver(ctx, payload); err != nil {
			logger.Warnw("notify_inline_deliver_failed", "event", payload.Event, "error", err)
		}
	}()
}

// Deliver renders and sends one email through the provider.
func (s *NotificationService) Deliver(ctx context.Context, payload queue.NotifyDispatchPayload) error {
	if s == nil {
		return ErrNotifierDisabled
	}
	if !s.cfg.Enabled || strings.TrimSpace(s.cfg.APIKey) == "" {
		return ErrNotifierDisabled
	}
	subject, body, err := s.render(payload)
	if err != nil {
		return err
	}
	return s.send(ctx, payload.Email, subject, body)
}

func (s *NotificationService) render(payload queue.NotifyDispatchPayload) (string, string, error) {
	data := payload.Data
	if data == nil {
		data = map[string]string{}
	}
	siteName := strings.TrimSpace(s.site.Name)
	if siteName == "" {
		siteName = "QuirkCart"
	}

	switch payload.Event {
	case constants.NotifyEventOrderConfirmation:
		subject := fmt.Sprintf("%s order %s confirmed", siteName, data["order_number"])
		body := fmt.Sprintf(
			"<p>Thanks for your order!</p><p>Order <strong>%s</strong> is confirmed. Total paid: %s.</p>",
			data["order_number"], data["total"],
		)
		return subject, body, nil
	case constants.NotifyEventShipping:
		subject := fmt.Sprintf("%s order %s has shipped", siteName, data["order_number"])
		body := fmt.Sprintf(
			"<p>Your order <strong>%s</strong> is on its way.</p><p>Carrier: %s<br>Tracking: <a href=%q>%s</a></p>",
			data["order_number"], data["carrier"], data["tracking_url"], data["tracking_number"],
		)
		return subject, body, nil
	case constants.NotifyEventGiftCardDelivery:
		subject := fmt.Sprintf("A %s gift card for you", siteName)
		body := fmt.Sprintf(
			"<p>%s sent you a gift card worth %s.</p><p>Code: <strong>%s</strong></p><p>%s</p>",
			data["purchaser_name"], data["amount"], data["code"], data["message"],
		)
		return subject, body, nil
	case constants.NotifyEventMagicLink:
		subject := fmt.Sprintf("Sign in to %s", siteName)
		body := fmt.Sprintf(
			"<p>Click the link below to sign in. It works once and expires in %s minutes.</p><p><a href=%q>Sign in</a></p>",
			data["ttl_minutes"], data["link"],
		)
		return subject, body, nil
	case constants.NotifyEventAdminPasswordReset:
		subject := fmt.Sprintf("%s admin password reset", siteName)
		body := fmt.Sprintf("<p>Your admin password was reset. If this wasn't you, contact %s immediately.</p>", data["contact"])
		return subject, body, nil
	case constants.NotifyEventNewsletterWelcome:
		subject := fmt.Sprintf("Welcome to the %s newsletter", siteName)
		body := "<p>You're on the list. Expect the occasional oddity in your inbox.</p>"
		return subject, body, nil
	case constants.NotifyEventMarketing:
		subject := strings.TrimSpace(data["subject"])
		if subject == "" {
			subject = fmt.Sprintf("News from %s", siteName)
		}
		return subject, data["body"], nil
	default:
		return "", "", ErrNotifyEventUnknown
	}
}

func (s *NotificationService) send(ctx context.Context, to, subject, body string) error {
	apiBase := strings.TrimRight(strings.TrimSpace(s.cfg.APIBase), "/")
	if apiBase == "" {
		return ErrNotifySendFailed
	}
	request := map[string]interface{}{
		"from":    strings.TrimSpace(s.cfg.From),
		"to":      []string{strings.TrimSpace(to)},
		"subject": subject,
		"html":    body,
	}
	encoded, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("%w: marshal request failed", ErrNotifySendFailed)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/emails", bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%w: build request failed", ErrNotifySendFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(s.cfg.APIKey))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotifySendFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: provider status %d", ErrNotifySendFailed, resp.StatusCode)
	}
	return nil
}
