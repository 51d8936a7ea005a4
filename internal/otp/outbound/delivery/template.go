package delivery

import (
	"bytes"
	"text/template"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
)

type content struct {
	subject *template.Template
	text    *template.Template
}

type templateData struct {
	AppName string
	Code    string
	Minutes int
}

func mustContent(subject, text string) content {
	return content{
		subject: template.Must(template.New("subject").Parse(subject)),
		text:    template.Must(template.New("text").Parse(text)),
	}
}

const footer = "\n\nIf you did not request this code, you can ignore this message."

var contents = map[entity.Purpose]content{
	entity.PurposeVerification: mustContent(
		"Verify your {{.AppName}} account",
		"Your {{.AppName}} verification code is {{.Code}}. It expires in {{.Minutes}} minutes.",
	),
	entity.PurposeLogin: mustContent(
		"Your {{.AppName}} login code",
		"Your {{.AppName}} login code is {{.Code}}. It expires in {{.Minutes}} minutes. Never share it with anyone.",
	),
	entity.PurposePasswordReset: mustContent(
		"Reset your {{.AppName}} password",
		"Use {{.Code}} to reset your {{.AppName}} password. It expires in {{.Minutes}} minutes.",
	),
	entity.PurposePhoneVerification: mustContent(
		"Verify your {{.AppName}} phone number",
		"Your {{.AppName}} phone verification code is {{.Code}}. It expires in {{.Minutes}} minutes.",
	),
}

func render(p entity.Purpose, data templateData) (subject, text string, err error) {
	c, ok := contents[p]
	if !ok {
		c = contents[entity.PurposeVerification]
	}

	var sb, tb bytes.Buffer
	if err := c.subject.Execute(&sb, data); err != nil {
		return "", "", err
	}
	if err := c.text.Execute(&tb, data); err != nil {
		return "", "", err
	}

	return sb.String(), tb.String(), nil
}
