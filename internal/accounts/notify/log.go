package notify

import (
	"context"
	"log/slog"
)

// LogNotifier renders templates but only logs the result. Used in dev when
// no SMTP credentials are configured, so token URLs remain reachable via the
// logs instead of silently disappearing.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Send(ctx context.Context, toEmail, subject string, tmpl Template, params Params) error {
	if _, err := render(tmpl, params); err != nil {
		return err
	}

	n.Logger.Info("email suppressed (log notifier)",
		"to", toEmail,
		"subject", subject,
		"template", string(tmpl),
		"url", params["url"],
	)
	return nil
}
