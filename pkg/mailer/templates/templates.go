package templates

import (
	"bytes"
	"fmt"
	htmpl "html/template"
)

const ProfileUpdated = "profile_updated"

var profileUpdatedHTML = htmpl.Must(htmpl.New(ProfileUpdated).Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h2>Your profile was updated</h2>
    <p>Hi {{ .Name }},</p>
    <p>Your profile was updated successfully{{ if .Time }} at {{ .Time }}{{ end }}.</p>
    <p>If this wasn't you, reset your password right away.</p>
  </body>
</html>`))

// Subject returns the subject line for a template name.
func Subject(template string) string {
	switch template {
	case ProfileUpdated:
		return "Your profile was updated successfully"
	default:
		return "Notification"
	}
}

// Render produces text and HTML bodies for a template name.
func Render(template string, data map[string]any) (text, html string, err error) {
	switch template {
	case ProfileUpdated:
		var buf bytes.Buffer
		if err := profileUpdatedHTML.Execute(&buf, data); err != nil {
			return "", "", err
		}
		name, _ := data["Name"].(string)
		text = fmt.Sprintf("Hi %s, your profile was updated successfully.", name)
		return text, buf.String(), nil
	default:
		return "", "", fmt.Errorf("unknown template %q", template)
	}
}
