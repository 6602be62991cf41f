// Package view turns session and estimate updates into something a user can
// see: HTML fragments for the browser widget and styled lines for a terminal.
package view

import (
	"bytes"
	"html/template"

	"github.com/zhouzirui/healthdesk/internal/model/chat"
	"github.com/zhouzirui/healthdesk/internal/nutrition"
)

// Element ids of the transient entries so clients can remove them.
const (
	TypingID = "typing-indicator"
	ErrorID  = "assistant-error"
)

var fragments = template.Must(template.New("fragments").Parse(`
{{- define "avatar"}}{{if .}}<img class="msg-logo" src="{{.}}" alt="Assistant">{{end}}{{end -}}

{{- define "message" -}}
{{if .Bot}}<div class="bot-msg">{{template "avatar" .Avatar}}<div class="msg-bubble">{{.Text}}</div></div>
{{- else}}<div class="user-msg"><div class="msg-bubble">{{.Text}}</div></div>{{end}}
{{- end -}}

{{- define "typing" -}}
<div class="bot-msg typing" id="` + TypingID + `">{{template "avatar" .Avatar}}<div class="msg-bubble"><span class="dot"></span><span class="dot"></span><span class="dot"></span></div></div>
{{- end -}}

{{- define "error" -}}
<div class="bot-msg error-msg" id="` + ErrorID + `">{{template "avatar" .Avatar}}<div class="msg-bubble">{{.Text}}</div></div>
{{- end -}}

{{- define "estimate" -}}
<div class="calorie-estimate alert alert-info mt-2"><i class="fas fa-info-circle"></i> <strong>Estimated Daily Needs:</strong> {{.Calories}} calories, {{.Protein}}g protein</div>
{{- end -}}
`))

type bubble struct {
	Bot    bool
	Avatar string
	Text   string
}

// MessageHTML renders one transcript message. Only assistant messages carry
// the avatar image.
func MessageHTML(msg chat.Message, avatar string) string {
	return render("message", bubble{Bot: msg.IsBot(), Avatar: avatar, Text: msg.Text})
}

// TypingHTML renders the transient typing placeholder.
func TypingHTML(avatar string) string {
	return render("typing", bubble{Bot: true, Avatar: avatar})
}

// ErrorHTML renders the transient connection error notice.
func ErrorHTML(text, avatar string) string {
	return render("error", bubble{Bot: true, Avatar: avatar, Text: text})
}

// EstimateHTML renders the calorie estimate shown under the activity field.
func EstimateHTML(est nutrition.Estimate) string {
	return render("estimate", est)
}

func render(name string, data any) string {
	var buf bytes.Buffer
	// executing into a buffer only fails on a broken template
	_ = fragments.ExecuteTemplate(&buf, name, data)
	return buf.String()
}
