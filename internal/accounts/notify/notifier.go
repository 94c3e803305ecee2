// Package notify is the outbound email capability. The core treats delivery
// as best-effort: a failed send is logged by the caller but never fails the
// operation that triggered it.
package notify

import (
	"context"
	"errors"
)

// Template selects one of the known email templates.
type Template string

const (
	TemplateWelcome       Template = "Welcome"
	TemplateResetPassword Template = "ResetPassword" // params: url
	TemplateAccountInvite Template = "AccountInvite" // params: url
)

// ErrUnsupportedTemplate is returned for a template key the notifier does
// not know how to render.
var ErrUnsupportedTemplate = errors.New("notify: unsupported template")

// Params carries template parameters, e.g. the reset or invite URL.
type Params map[string]string

// Notifier sends a templated email to a single recipient.
type Notifier interface {
	Send(ctx context.Context, toEmail, subject string, template Template, params Params) error
}
