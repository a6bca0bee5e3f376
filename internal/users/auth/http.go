// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/redirect"
	requestutil "github.com/taibuivan/crewdesk/internal/platform/request"
	"github.com/taibuivan/crewdesk/internal/platform/respond"
	"github.com/taibuivan/crewdesk/internal/security/captcha"
)

// maxFormBytes bounds credential form bodies.
const maxFormBytes = 64 << 10

// # Definitions & Constructors

// Handler implements the sign-in pages and the OAuth callback.
//
// # Scope
//
// In OAuth mode only the sign-in page and the callback are live; the
// credential pages redirect to sign-in. In credentials mode the OAuth
// callback is not registered.
type Handler struct {
	sessions *Sessions
	service  *Service
	oauth    *OAuthProvider
	siteKey  string
}

// NewHandler builds the handler. Exactly one of service and oauth is non-nil.
func NewHandler(sessions *Sessions, service *Service, oauth *OAuthProvider, siteKey string) *Handler {
	return &Handler{sessions: sessions, service: service, oauth: oauth, siteKey: siteKey}
}

func (handler *Handler) credentials() bool {
	return handler.oauth == nil
}

/*
PublicPages lists the auth pages reachable without a session.

The credential pages are public in both modes: in OAuth mode they only
redirect to the sign-in page.
*/
func (handler *Handler) PublicPages() []string {
	return []string{constants.PathSignUp, constants.PathForgotPassword, constants.PathResetPassword}
}

// RegisterPages mounts the HTML auth pages on router.
//
// # Endpoints
//   - GET|POST /signin          : Sign-in form or OAuth start
//   - GET|POST /signup          : Account creation (credentials mode)
//   - GET|POST /forgot-password : Reset request (credentials mode)
//   - GET|POST /reset-password  : Reset completion (credentials mode)
//   - POST     /signout         : Ends the current session
func (handler *Handler) RegisterPages(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(limitBody)

		r.Get(constants.PathSignIn, handler.signInPage)
		r.Post(constants.PathSignIn, handler.signIn)
		r.Post(constants.PathSignOut, handler.signOut)

		r.Get(constants.PathSignUp, handler.credentialsOnly(handler.signUpPage))
		r.Post(constants.PathSignUp, handler.credentialsOnly(handler.signUp))
		r.Get(constants.PathForgotPassword, handler.credentialsOnly(handler.forgotPasswordPage))
		r.Post(constants.PathForgotPassword, handler.credentialsOnly(handler.forgotPassword))
		r.Get(constants.PathResetPassword, handler.credentialsOnly(handler.resetPasswordPage))
		r.Post(constants.PathResetPassword, handler.credentialsOnly(handler.resetPassword))
	})
}

// APIRoutes returns the routes mounted under /api/auth.
//
// # Endpoints
//   - GET /oauth/callback : Completes the OAuth flow (OAuth mode)
func (handler *Handler) APIRoutes() chi.Router {
	router := chi.NewRouter()
	if !handler.credentials() {
		router.Get("/oauth/callback", handler.oauthCallback)
	}
	return router
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		request.Body = http.MaxBytesReader(writer, request.Body, maxFormBytes)
		next.ServeHTTP(writer, request)
	})
}

func (handler *Handler) credentialsOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if !handler.credentials() {
			respond.Redirect(writer, request, constants.PathSignIn, http.StatusSeeOther)
			return
		}
		next(writer, request)
	}
}

// # Sign-in

func callbackFrom(request *http.Request) string {
	if value := requestutil.FormValue(request, FieldCallbackURL); value != "" {
		return redirect.Sanitize(value)
	}
	return redirect.Sanitize(request.URL.Query().Get(constants.QueryCallbackURL))
}

// signInPath returns the sign-in page carrying callback when it is not the default.
func signInPath(callback string) string {
	if callback == constants.DefaultRedirectTarget {
		return constants.PathSignIn
	}
	return respond.WithQuery(constants.PathSignIn, constants.QueryCallbackURL, callback)
}

func (handler *Handler) signInPage(writer http.ResponseWriter, request *http.Request) {
	data := pageData{
		Title:       "Sign in",
		CallbackURL: callbackFrom(request),
		SiteKey:     handler.siteKey,
		Credentials: handler.credentials(),
	}
	if handler.oauth != nil {
		data.Provider = handler.oauth.ProviderID()
	}
	render(writer, request, signInPage, data)
}

/*
SignIn authenticates the browser.

POST /signin

Description: In OAuth mode redirects to the provider. In credentials mode
verifies the form, issues a session and redirects to the sanitised callback.

Response:
  - 303: Callback path, provider URL, or /signin?error=<code>
*/
func (handler *Handler) signIn(writer http.ResponseWriter, request *http.Request) {
	callback := callbackFrom(request)

	if !handler.credentials() {
		target, err := handler.oauth.Begin(writer, callback)
		if err != nil {
			handler.fail(writer, request, signInPath(callback), err)
			return
		}
		respond.Redirect(writer, request, target, http.StatusSeeOther)
		return
	}

	account, err := handler.service.SignIn(request.Context(), SignInInput{
		Email:        requestutil.FormValue(request, FieldEmail),
		Password:     requestutil.RawFormValue(request, FieldPassword),
		CaptchaToken: requestutil.FormValue(request, captcha.FormField),
		ClientIP:     ctxutil.GetClientIP(request.Context()),
	})
	if err != nil {
		handler.fail(writer, request, signInPath(callback), err)
		return
	}

	handler.startSession(writer, request, account.ID, callback, signInPath(callback))
}

/*
SignOut ends the current session.

POST /signout

Response:
  - 303: Home page, with the session cookie cleared
*/
func (handler *Handler) signOut(writer http.ResponseWriter, request *http.Request) {
	if err := handler.sessions.Revoke(writer, request); err != nil {
		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "auth_signout_failed", slog.Any("error", err))
	}
	respond.Redirect(writer, request, constants.PathHome, http.StatusSeeOther)
}

// # Registration

func (handler *Handler) signUpPage(writer http.ResponseWriter, request *http.Request) {
	render(writer, request, signUpPage, pageData{
		Title:       "Create an account",
		CallbackURL: callbackFrom(request),
		SiteKey:     handler.siteKey,
	})
}

/*
SignUp creates a local account and signs it in.

POST /signup

Response:
  - 303: Callback path, or /signup?error=<code>
*/
func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	callback := callbackFrom(request)
	back := constants.PathSignUp
	if callback != constants.DefaultRedirectTarget {
		back = respond.WithQuery(back, constants.QueryCallbackURL, callback)
	}

	account, err := handler.service.SignUp(request.Context(), SignUpInput{
		Name:         requestutil.FormValue(request, FieldName),
		Email:        requestutil.FormValue(request, FieldEmail),
		Password:     requestutil.RawFormValue(request, FieldPassword),
		CaptchaToken: requestutil.FormValue(request, captcha.FormField),
		ClientIP:     ctxutil.GetClientIP(request.Context()),
	})
	if err != nil {
		handler.fail(writer, request, back, err)
		return
	}

	handler.startSession(writer, request, account.ID, callback, back)
}

// # Password Recovery

func (handler *Handler) forgotPasswordPage(writer http.ResponseWriter, request *http.Request) {
	data := pageData{Title: "Reset your password", SiteKey: handler.siteKey}
	if request.URL.Query().Get(constants.QuerySent) != "" {
		data.Notice = "If this email is registered, a reset link has been sent."
	}
	render(writer, request, forgotPasswordPage, data)
}

/*
ForgotPassword requests a reset link.

POST /forgot-password

Description: Always lands on the same confirmation whether or not the
account exists.

Response:
  - 303: /forgot-password?sent=1, or ?error=captcha|invalid_input
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	err := handler.service.RequestPasswordReset(
		request.Context(),
		requestutil.FormValue(request, FieldEmail),
		requestutil.FormValue(request, captcha.FormField),
		ctxutil.GetClientIP(request.Context()),
	)
	if err != nil {
		handler.fail(writer, request, constants.PathForgotPassword, err)
		return
	}

	respond.Redirect(writer, request, respond.WithQuery(constants.PathForgotPassword, constants.QuerySent, "1"), http.StatusSeeOther)
}

func (handler *Handler) resetPasswordPage(writer http.ResponseWriter, request *http.Request) {
	render(writer, request, resetPasswordPage, pageData{
		Title: "Choose a new password",
		Token: request.URL.Query().Get(constants.QueryToken),
	})
}

/*
ResetPassword sets a new password from a reset link.

POST /reset-password

Response:
  - 303: /signin on success
  - 303: /reset-password?token=..&error=too_short|too_weak for a rejected password
  - 303: /reset-password?error=invalid_token for a used or expired link
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.FormValue(request, FieldToken)

	err := handler.service.ResetPassword(request.Context(), token, requestutil.RawFormValue(request, FieldPassword))
	if err != nil {
		back := constants.PathResetPassword
		var input *InputError
		if errors.As(err, &input) {
			back = respond.WithQuery(back, constants.QueryToken, token)
		}
		handler.fail(writer, request, back, err)
		return
	}

	respond.Redirect(writer, request, constants.PathSignIn, http.StatusSeeOther)
}

// # OAuth

/*
OAuthCallback completes a provider sign-in.

GET /api/auth/oauth/callback

Response:
  - 302: Sanitised callback path with a new session
  - 303: /signin?error=oauth_failed
*/
func (handler *Handler) oauthCallback(writer http.ResponseWriter, request *http.Request) {
	account, callback, err := handler.oauth.Complete(writer, request)
	if err != nil {
		handler.fail(writer, request, constants.PathSignIn, err)
		return
	}

	if err := handler.sessions.Issue(writer, request, account.ID); err != nil {
		handler.fail(writer, request, constants.PathSignIn, err)
		return
	}
	respond.Redirect(writer, request, callback, http.StatusFound)
}

// # Helpers

func (handler *Handler) startSession(writer http.ResponseWriter, request *http.Request, accountID, callback, back string) {
	if err := handler.sessions.Issue(writer, request, accountID); err != nil {
		handler.fail(writer, request, back, err)
		return
	}
	respond.Redirect(writer, request, callback, http.StatusSeeOther)
}

// fail redirects back with the page code for err, logging unexpected faults.
func (handler *Handler) fail(writer http.ResponseWriter, request *http.Request, back string, err error) {
	code := pageCode(err)
	if code == constants.ErrCodeServer {
		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "auth_flow_failed",
			slog.String("path", request.URL.Path),
			slog.Any("error", err),
		)
	}
	respond.RedirectWithError(writer, request, back, code)
}

// pageCode maps a flow outcome to its `error` query code.
func pageCode(err error) string {
	var input *InputError
	switch {
	case errors.As(err, &input):
		return input.Code
	case errors.Is(err, ErrRateLimited):
		return constants.ErrCodeRateLimit
	case errors.Is(err, ErrLocked):
		return constants.ErrCodeLocked
	case errors.Is(err, ErrInvalidCredentials):
		return constants.ErrCodeInvalidCredentials
	case errors.Is(err, ErrCaptcha):
		return constants.ErrCodeCaptcha
	case errors.Is(err, ErrEmailTaken):
		return constants.ErrCodeEmailTaken
	case errors.Is(err, ErrInvalidToken):
		return constants.ErrCodeInvalidToken
	case errors.Is(err, ErrOAuthFailed):
		return constants.ErrCodeOAuthFailed
	default:
		return constants.ErrCodeServer
	}
}
