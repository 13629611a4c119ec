// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/foundation-console/internal/platform/apperr"
	"github.com/taibuivan/foundation-console/internal/platform/constants"
	"github.com/taibuivan/foundation-console/internal/platform/middleware"
	requestutil "github.com/taibuivan/foundation-console/internal/platform/request"
	"github.com/taibuivan/foundation-console/internal/platform/respond"
	"github.com/taibuivan/foundation-console/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// Credentials travel exclusively as HttpOnly cookies: the access token on "/"
// and the refresh token scoped to the auth routes.
type Handler struct {
	authService   *Service
	secureCookies bool
}

// NewHandler constructs a new [Handler]. secureCookies sets the Secure cookie attribute.
func NewHandler(service *Service, secureCookies bool) *Handler {
	return &Handler{authService: service, secureCookies: secureCookies}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /login    : Authenticates and sets the session cookies.
//   - POST /refresh  : Rotates the refresh cookie and reissues the access cookie.
//   - GET  /profile  : Returns the current identity.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/activate", handler.activate)
	router.Post("/resend-activation", handler.resendActivation)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/profile", handler.profile)
		r.Get("/verify-token", handler.verifyToken)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (Email, Password, DisplayName)

Response:
  - 201: Profile: Created account
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Password(FieldPassword, input.Password).
		Required(FieldDisplayName, input.DisplayName).
		MaxLen(FieldDisplayName, input.DisplayName, 100)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user.Profile())
}

// activate consumes an activation token. POST /api/v1/auth/activate
func (handler *Handler) activate(writer http.ResponseWriter, request *http.Request) {
	var input tokenRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldToken, "This field is required"))
		return
	}

	if err := handler.authService.Activate(request.Context(), input.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Account activated successfully",
	})
}

// resendActivation issues a new activation link. POST /api/v1/auth/resend-activation
func (handler *Handler) resendActivation(writer http.ResponseWriter, request *http.Request) {
	var input emailRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResendActivation(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "If this account is pending activation, a new link has been sent.",
	})
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials and injects the access and refresh cookies
into the response. Tokens never appear in the body.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: {user: Profile}
  - 401: ErrUnauthorized: Invalid credentials
  - 403: ErrAccountInactive: Account suspended
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: requestutil.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session)

	respond.OK(writer, map[string]any{
		FieldUser: session.User.Profile(),
	})
}

/*
Logout terminates the current user session.

POST /api/v1/auth/logout

Description: Revokes the refresh token (if present) and clears both cookies.
Public so that a client holding only an expired access token can still log out.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	// The browser drops its credentials even when revocation fails.
	handler.clearSessionCookies(writer)

	if refreshToken := requestutil.Cookie(request, constants.RefreshTokenCookieName); refreshToken != "" {
		if err := handler.authService.Logout(request.Context(), refreshToken); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	respond.NoContent(writer)
}

/*
Refresh issues a new access token using a valid refresh token.

POST /api/v1/auth/refresh

Description: Rotates the session. The presented refresh token is revoked; a
second use of the same token is rejected.

Response:
  - 200: {expires_in}
  - 401: ErrUnauthorized: Missing, reused or expired refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	refreshToken := requestutil.Cookie(request, constants.RefreshTokenCookieName)
	if refreshToken == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing refresh token in cookies"))
		return
	}

	session, err := handler.authService.RefreshSession(
		request.Context(),
		refreshToken,
		request.UserAgent(),
		requestutil.RealIP(request),
	)
	if err != nil {
		handler.clearSessionCookies(writer)
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session)

	respond.OK(writer, map[string]any{
		FieldExpiresIn: int(AccessTokenTTL / time.Second),
	})
}

// profile returns the identity behind the access cookie. GET /api/v1/auth/profile
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Profile(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user.Profile())
}

// verifyToken answers 204 when the access cookie is valid. GET /api/v1/auth/verify-token
func (handler *Handler) verifyToken(writer http.ResponseWriter, _ *http.Request) {
	respond.NoContent(writer)
}

// forgotPassword initiates the recovery flow. POST /api/v1/auth/forgot-password
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input emailRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "If this email is registered, a reset link has been sent.",
	})
}

// resetPassword completes the recovery flow. POST /api/v1/auth/reset-password
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldToken, input.Token).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Password(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password updated successfully",
	})
}

// # Cookie Helpers

func (handler *Handler) setSessionCookies(writer http.ResponseWriter, session *LoginSession) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.AccessTokenCookieName,
		Value:    session.AccessToken,
		Path:     constants.AccessTokenCookiePath,
		MaxAge:   int(AccessTokenTTL / time.Second),
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    session.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  session.RefreshTokenExpiresAt,
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (handler *Handler) clearSessionCookies(writer http.ResponseWriter) {
	for name, path := range map[string]string{
		constants.AccessTokenCookieName:  constants.AccessTokenCookiePath,
		constants.RefreshTokenCookieName: constants.RefreshTokenCookiePath,
	} {
		http.SetCookie(writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     path,
			MaxAge:   -1,
			Secure:   handler.secureCookies,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
