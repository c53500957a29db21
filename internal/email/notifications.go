package email

import (
	"sync"
	"time"

	"whiskyrec/internal/config"
)

// Sender delivers a rendered email. *Service satisfies it.
type Sender interface {
	IsEnabled() bool
	SendAsync(to []string, subject, htmlBody, textBody string)
}

// Notifier emails operators about outages. Each kind of alert is sent at most
// once per cooldown.
type Notifier struct {
	sender    Sender
	templates *Templates
	cfg       *config.Config
	now       func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config) *Notifier {
	return newNotifier(cfg, NewService(cfg))
}

func newNotifier(cfg *config.Config, sender Sender) *Notifier {
	return &Notifier{
		sender:    sender,
		templates: NewTemplates(cfg),
		cfg:       cfg,
		now:       time.Now,
		last:      make(map[string]time.Time),
	}
}

// allow reports whether an alert for key may be sent now and records it.
func (n *Notifier) allow(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if last, ok := n.last[key]; ok && now.Sub(last) < n.cfg.AlertCooldown {
		return false
	}
	n.last[key] = now
	return true
}

func (n *Notifier) enabled() bool {
	return n.sender.IsEnabled() && len(n.cfg.AlertRecipients()) > 0
}

// NotifyBackendUnavailable alerts operators that the backend breaker opened.
func (n *Notifier) NotifyBackendUnavailable(breaker string) {
	if !n.enabled() || !n.allow("backend:"+breaker) {
		return
	}
	subject, htmlBody, textBody := n.templates.BackendUnavailable(breaker, n.now())
	n.sender.SendAsync(n.cfg.AlertRecipients(), subject, htmlBody, textBody)
}

// NotifyCatalogLoadFailed alerts operators that a catalog load failed.
func (n *Notifier) NotifyCatalogLoadFailed(source string, err error, rows int) {
	if err == nil || !n.enabled() || !n.allow("catalog:"+source) {
		return
	}
	subject, htmlBody, textBody := n.templates.CatalogLoadFailed(source, err, rows)
	n.sender.SendAsync(n.cfg.AlertRecipients(), subject, htmlBody, textBody)
}
