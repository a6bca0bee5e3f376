// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/validate"
	"github.com/taibuivan/crewdesk/internal/security/captcha"
)

// errorMessages are shown for the `error` query codes.
var errorMessages = map[string]string{
	constants.ErrCodeRateLimit:          "Too many requests. Try again later.",
	constants.ErrCodeLocked:             "Too many failed attempts. Try again in 15 minutes.",
	constants.ErrCodeInvalidCredentials: "Invalid email or password.",
	constants.ErrCodeCaptcha:            "Please complete the verification challenge.",
	constants.ErrCodeInvalidInput:       "Please check the highlighted fields.",
	constants.ErrCodeEmailTaken:         "An account with this email already exists.",
	constants.ErrCodeInvalidToken:       "This reset link is invalid or has expired.",
	constants.ErrCodeOAuthFailed:        "Sign-in with the provider failed. Please try again.",
	constants.ErrCodeServer:             "Something went wrong. Please try again.",
	string(validate.CodeTooShort):       validate.CodeTooShort.Message() + ".",
	string(validate.CodeTooWeak):        validate.CodeTooWeak.Message() + ".",
}

// pageData feeds every auth template.
type pageData struct {
	Title       string
	Error       string
	Notice      string
	CallbackURL string
	Token       string
	SiteKey     string
	CaptchaName string
	Credentials bool

	// Provider names the OpenID Connect provider on the sign-in button.
	Provider string
}

var pages = template.Must(template.New("layout").Parse(`{{define "layout"}}<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}} · crewdesk</title>
{{if .SiteKey}}<script src="https://challenges.cloudflare.com/turnstile/v0/api.js" async defer></script>{{end}}
</head>
<body>
<main>
<h1>{{.Title}}</h1>
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
{{if .Notice}}<p role="status">{{.Notice}}</p>{{end}}
{{template "body" .}}
</main>
</body>
</html>{{end}}
{{define "captcha"}}{{if .SiteKey}}<div class="cf-turnstile" data-sitekey="{{.SiteKey}}" data-response-field-name="{{.CaptchaName}}"></div>{{end}}{{end}}`))

var (
	signInPage = mustPage(`{{define "body"}}<form method="post" action="/signin">
<input type="hidden" name="callbackUrl" value="{{.CallbackURL}}">
{{if .Credentials}}<input type="email" name="email" autocomplete="email" required>
<input type="password" name="password" autocomplete="current-password" required>
{{template "captcha" .}}
<button type="submit">Sign in</button>
<a href="/signup">Create an account</a> <a href="/forgot-password">Forgot password?</a>
{{else}}<button type="submit">Sign in with {{.Provider}}</button>{{end}}
</form>{{end}}`)

	signUpPage = mustPage(`{{define "body"}}<form method="post" action="/signup">
<input type="hidden" name="callbackUrl" value="{{.CallbackURL}}">
<input type="text" name="name" autocomplete="name" required>
<input type="email" name="email" autocomplete="email" required>
<input type="password" name="password" autocomplete="new-password" required>
{{template "captcha" .}}
<button type="submit">Create account</button>
<a href="/signin">Sign in instead</a>
</form>{{end}}`)

	forgotPasswordPage = mustPage(`{{define "body"}}<form method="post" action="/forgot-password">
<input type="email" name="email" autocomplete="email" required>
{{template "captcha" .}}
<button type="submit">Send reset link</button>
</form>{{end}}`)

	resetPasswordPage = mustPage(`{{define "body"}}<form method="post" action="/reset-password">
<input type="hidden" name="token" value="{{.Token}}">
<input type="password" name="password" autocomplete="new-password" required>
<button type="submit">Set new password</button>
</form>{{end}}`)
)

func mustPage(body string) *template.Template {
	return template.Must(template.Must(pages.Clone()).Parse(body))
}

// render writes page with status 200, logging template failures.
func render(writer http.ResponseWriter, request *http.Request, page *template.Template, data pageData) {
	data.Error = errorMessages[request.URL.Query().Get(constants.QueryError)]
	data.CaptchaName = captcha.FormField

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.Header().Set("Cache-Control", "no-store")
	if err := page.ExecuteTemplate(writer, "layout", data); err != nil {
		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "auth_page_render_failed", slog.Any("error", err))
	}
}
