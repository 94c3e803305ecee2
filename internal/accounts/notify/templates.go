package notify

import (
	"fmt"
	"html/template"
	"strings"
)

// Email bodies are deliberately plain: a heading, one line of copy, and for
// token-bearing mails the single-use link. The link URLs are data contracts
// with the boundary layer and must not be reshaped here.
var bodies = map[Template]*template.Template{
	TemplateWelcome: template.Must(template.New("welcome").Parse(`<html><body>
<h1>Welcome!</h1>
<p>Your account has been created. You can sign in right away.</p>
</body></html>`)),

	TemplateResetPassword: template.Must(template.New("reset").Parse(`<html><body>
<h1>Reset your password</h1>
<p>Someone requested a password reset for your account. If this was you,
follow the link below. The link is valid for a short time and can be used
once.</p>
<p><a href="{{.url}}">Reset password</a></p>
</body></html>`)),

	TemplateAccountInvite: template.Must(template.New("invite").Parse(`<html><body>
<h1>You have been invited</h1>
<p>You have been invited to join an account. Sign in with this email address
and follow the link below to accept.</p>
<p><a href="{{.url}}">Accept invite</a></p>
</body></html>`)),
}

// render produces the HTML body for a template, or ErrUnsupportedTemplate.
func render(tmpl Template, params Params) (string, error) {
	t, ok := bodies[tmpl]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTemplate, tmpl)
	}

	var sb strings.Builder
	if err := t.Execute(&sb, params); err != nil {
		return "", fmt.Errorf("render %q: %w", tmpl, err)
	}
	return sb.String(), nil
}
