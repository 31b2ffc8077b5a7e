package mail

import (
	"bytes"
	"html/template"
)

var (
	verificationTmpl = template.Must(template.New("verify").Parse(
		`<h4>Verify Email</h4>
<p>Thanks for registering!</p>
{{if .Origin}}<p>Please click the below link to verify your email address:</p>
<p><a href="{{.Origin}}/account/verify-email?token={{.Token}}">{{.Origin}}/account/verify-email?token={{.Token}}</a></p>
{{else}}<p>Please use the below token to verify your email address with the <code>/accounts/verify-email</code> api route:</p>
<p><code>{{.Token}}</code></p>{{end}}`))

	alreadyRegisteredTmpl = template.Must(template.New("registered").Parse(
		`<h4>Email Already Registered</h4>
<p>Your email <strong>{{.Email}}</strong> is already registered.</p>
{{if .Origin}}<p>If you don't know your password please visit the <a href="{{.Origin}}/account/forgot-password">forgot password</a> page.</p>
{{else}}<p>If you don't know your password you can reset it via the <code>/accounts/forgot-password</code> api route.</p>{{end}}`))

	resetTmpl = template.Must(template.New("reset").Parse(
		`<h4>Reset Password Email</h4>
{{if .Origin}}<p>Please click the below link to reset your password, the link will be valid for 1 day:</p>
<p><a href="{{.Origin}}/account/reset-password?token={{.Token}}">{{.Origin}}/account/reset-password?token={{.Token}}</a></p>
{{else}}<p>Please use the below token to reset your password with the <code>/accounts/reset-password</code> api route:</p>
<p><code>{{.Token}}</code></p>{{end}}`))
)

type templateData struct {
	Email  string
	Token  string
	Origin string
}

func render(t *template.Template, data templateData) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		// templates are static and data is plain strings
		panic(err)
	}
	return buf.String()
}

func VerificationEmail(to, token, origin string) Message {
	return Message{
		To:      to,
		Subject: "Sign-up Verification - Verify Email",
		HTML:    render(verificationTmpl, templateData{Email: to, Token: token, Origin: origin}),
	}
}

func AlreadyRegisteredEmail(to, origin string) Message {
	return Message{
		To:      to,
		Subject: "Sign-up Verification - Email Already Registered",
		HTML:    render(alreadyRegisteredTmpl, templateData{Email: to, Origin: origin}),
	}
}

func PasswordResetEmail(to, token, origin string) Message {
	return Message{
		To:      to,
		Subject: "Sign-up Verification - Reset Password",
		HTML:    render(resetTmpl, templateData{Email: to, Token: token, Origin: origin}),
	}
}
