package auth

import (
	"net/http"

	"github.com/rallypoint/rallypoint/internal/rest"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/notify"
	"github.com/rallypoint/rallypoint/pkg/user"
	log "github.com/sirupsen/logrus"
)

const (
	MessageSignedUp  = "Account created successfully! Please check your email to verify your account."
	MessageResetSent = "Password reset email sent"
	MessageSignedOut = "Signed out successfully"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SessionResponse struct {
	User    user.User `json:"user"`
	Session *Session  `json:"session,omitempty"`
	Message string    `json:"message,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Handler struct {
	service  Service
	cookies  *Cookies
	notifier notify.Notifier
}

func NewHandler(service Service, cookies *Cookies, notifier notify.Notifier) *Handler {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Handler{service: service, cookies: cookies, notifier: notifier}
}

// Login godoc
// @Summary Sign in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} rest.ErrorResponse "Invalid email or password"
// @Router /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !rest.DecodeJSON(w, r, &req) {
		return
	}
	session, u, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	h.cookies.Set(w, session)
	rest.WriteJSON(w, http.StatusOK, SessionResponse{User: u, Session: &session})
}

// Register godoc
// @Summary Create an account
// @Tags Auth
// @Accept json
// @Produce json
// @Success 201 {object} SessionResponse
// @Failure 400 {object} rest.ErrorResponse "Passwords do not match"
// @Failure 409 {object} rest.ErrorResponse "An account with this email already exists"
// @Router /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req Registration
	if !rest.DecodeJSON(w, r, &req) {
		return
	}
	session, u, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		failure := backend.Classify(err)
		if failure.Kind == backend.KindUnknown {
			log.Errorf("failed to register %s: %v", req.Email, err)
		}
		rest.WriteFailure(w, failure)
		return
	}

	response := SessionResponse{User: u, Message: MessageSignedUp}
	if !session.IsZero() {
		h.cookies.Set(w, session)
		response.Session = &session
	}
	h.notifier.Success(user.WithUser(r.Context(), u), MessageSignedUp)
	rest.WriteJSON(w, http.StatusCreated, response)
}

// ForgotPassword godoc
// @Summary Send a password reset email
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /api/auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !rest.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.service.RecoverPassword(r.Context(), req.Email); err != nil {
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	rest.WriteJSON(w, http.StatusOK, MessageResponse{Message: MessageResetSent})
}

// Logout godoc
// @Summary Sign out
// @Tags Auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /api/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SignOut(r.Context(), AccessToken(r)); err != nil {
		log.Warnf("sign out failed: %v", err)
	}
	h.cookies.Clear(w)
	h.notifier.Success(r.Context(), MessageSignedOut)
	rest.WriteJSON(w, http.StatusOK, MessageResponse{Message: MessageSignedOut})
}

// Refresh godoc
// @Summary Exchange a refresh token for a new session
// @Tags Auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} rest.ErrorResponse "Session expired"
// @Router /api/auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := RefreshToken(r)
	if refreshToken == "" && r.ContentLength != 0 {
		var req refreshRequest
		if !rest.DecodeJSON(w, r, &req) {
			return
		}
		refreshToken = req.RefreshToken
	}
	session, u, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.cookies.Clear(w)
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	h.cookies.Set(w, session)
	rest.WriteJSON(w, http.StatusOK, SessionResponse{User: u, Session: &session})
}

// CurrentUser godoc
// @Summary Get the signed-in user
// @Tags Auth
// @Produce json
// @Success 200 {object} user.User
// @Failure 401 {object} rest.ErrorResponse "Not authenticated"
// @Router /api/auth/user [get]
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	u, err := user.CurrentUser(r.Context())
	if err != nil {
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	rest.WriteJSON(w, http.StatusOK, u)
}
