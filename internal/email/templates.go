package email

import (
	"fmt"
	"html"
	"time"

	"whiskyrec/internal/config"
)

// Templates renders alert emails.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// baseHTML wraps content in the alert email layout. content must already be escaped.
func (t *Templates) baseHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.5; color: #2b2118; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #7a4a1c; color: white; padding: 16px; border-radius: 6px 6px 0 0; }
        .content { background: #faf6ef; padding: 16px; border: 1px solid #e3d6bf; }
        .footer { font-size: 12px; color: #7a6a55; padding: 12px 0; }
        code { background: #eee3cf; padding: 2px 6px; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="header"><strong>%s</strong></div>
    <div class="content">%s</div>
    <div class="footer">Sent by <a href="%s">%s</a></div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(title), content,
		html.EscapeString(t.cfg.BaseURL), html.EscapeString(t.cfg.SiteTitle))
}

// BackendUnavailable is sent when the circuit breaker in front of the
// recommendation backend opens.
func (t *Templates) BackendUnavailable(breaker string, at time.Time) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Recommendation backend unavailable", t.cfg.SiteTitle)
	when := at.UTC().Format(time.RFC1123)

	content := fmt.Sprintf(`<p>The circuit breaker <code>%s</code> opened at %s after repeated backend failures.</p>
<p>Visitors see an error instead of a recommendation until the backend at <code>%s</code> answers again.</p>`,
		html.EscapeString(breaker), html.EscapeString(when), html.EscapeString(t.cfg.BackendURL))

	textBody = fmt.Sprintf("The circuit breaker %s opened at %s after repeated backend failures.\n"+
		"Visitors see an error instead of a recommendation until the backend at %s answers again.\n",
		breaker, when, t.cfg.BackendURL)

	return subject, t.baseHTML(subject, content), textBody
}

// CatalogLoadFailed is sent when the distillery catalog cannot be (re)loaded.
func (t *Templates) CatalogLoadFailed(source string, loadErr error, rows int) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Distillery catalog failed to load", t.cfg.SiteTitle)

	content := fmt.Sprintf(`<p>Loading the catalog from <code>%s</code> failed:</p>
<p><code>%s</code></p>
<p>The dropdowns keep serving the previous catalog (%d rows).</p>`,
		html.EscapeString(source), html.EscapeString(loadErr.Error()), rows)

	textBody = fmt.Sprintf("Loading the catalog from %s failed: %v\n"+
		"The dropdowns keep serving the previous catalog (%d rows).\n", source, loadErr, rows)

	return subject, t.baseHTML(subject, content), textBody
}
