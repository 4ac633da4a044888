package templates

import (
	"fmt"
	"html/template"
	"strings"
)

// Template names recognized by the email worker.
const (
	Welcome        = "welcome"
	ProfileUpdated = "profile_updated"
)

var welcomeTpl = template.Must(template.New(Welcome).Parse(`
<div style="font-family:sans-serif;max-width:520px;margin:0 auto">
  <h2>Welcome{{if .Name}}, {{.Name}}{{end}}!</h2>
  <p>Your account for <strong>{{.AppName}}</strong> has been created with the
  address {{.Email}}.</p>
  <p>You can sign in and edit your profile at any time.</p>
</div>`))

var profileUpdatedTpl = template.Must(template.New(ProfileUpdated).Parse(`
<div style="font-family:sans-serif;max-width:520px;margin:0 auto">
  <h2>Profile updated</h2>
  <p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}}, your {{.AppName}} profile was
  just updated.</p>
  <p>If this wasn't you, please reset your password immediately.</p>
</div>`))

// Render produces subject, text, and html bodies for the named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	var b strings.Builder
	switch name {
	case Welcome:
		if err = welcomeTpl.Execute(&b, data); err != nil {
			return "", "", "", err
		}
		return "Welcome aboard", "Your account has been created.", b.String(), nil
	case ProfileUpdated:
		if err = profileUpdatedTpl.Execute(&b, data); err != nil {
			return "", "", "", err
		}
		return "Your profile was updated", "Your profile was updated.", b.String(), nil
	default:
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
}
