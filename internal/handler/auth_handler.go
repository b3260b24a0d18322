package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"instagramclone/internal/models"
)

type SignupRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role" validate:"required,oneof=creator consumer"`
}

func (s *SignupRequest) fromForm(v url.Values) {
	s.Username = v.Get("username")
	s.Password = v.Get("password")
	s.Role = v.Get("role")
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=32"`
	Password string `json:"password" validate:"required,max=72"`
}

func (l *LoginRequest) fromForm(v url.Values) {
	l.Username = v.Get("username")
	l.Password = v.Get("password")
}

type AuthResponse struct {
	Token     string      `json:"token"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

var signupForm = FormDescription{
	Action:  "/signup",
	Method:  http.MethodPost,
	Enctype: "application/x-www-form-urlencoded",
	Fields: []FormField{
		{Name: "username", Type: "text", Required: true},
		{Name: "password", Type: "password", Required: true},
		{Name: "role", Type: "select", Required: true, Options: []string{string(models.RoleCreator), string(models.RoleConsumer)}},
	},
}

var loginForm = FormDescription{
	Action:  "/login",
	Method:  http.MethodPost,
	Enctype: "application/x-www-form-urlencoded",
	Fields: []FormField{
		{Name: "username", Type: "text", Required: true},
		{Name: "password", Type: "password", Required: true},
	},
}

func (h *Handlers) SignupForm(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, signupForm, http.StatusOK)
}

func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, loginForm, http.StatusOK)
}

// Signup creates the account and starts a session for it.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeRequest(w, r, &req); err != nil {
		WriteError(w, "invalid request body", codeInvalidRequest, http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "username must be 3-32 letters or digits, password is required, role must be creator or consumer",
			codeInvalidRequest, http.StatusBadRequest)
		return
	}

	// bcrypt only reads the first 72 bytes
	if len(req.Password) > 72 {
		WriteError(w, "password is longer than 72 bytes", codeInvalidRequest, http.StatusBadRequest)
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		WriteError(w, err.Error(), codeInvalidRequest, http.StatusBadRequest)
		return
	}

	token, sess, err := h.AuthService.Signup(r.Context(), req.Username, req.Password, role)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.startSession(w, r, token, sess, http.StatusCreated)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeRequest(w, r, &req); err != nil {
		WriteError(w, "invalid request body", codeInvalidRequest, http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "username and password are required", codeInvalidRequest, http.StatusBadRequest)
		return
	}

	token, sess, err := h.AuthService.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.startSession(w, r, token, sess, http.StatusOK)
}

// Logout always succeeds, with or without a live session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context(), h.Sessions.Token(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.Sessions.Clear(w, r); err != nil {
		h.Log.WithError(err).Warn("could not clear session cookie")
	}

	writeSuccess(w, MessageResponse{Message: "logged out"}, http.StatusOK)
}

func (h *Handlers) startSession(w http.ResponseWriter, r *http.Request, token string, sess *models.Session, status int) {
	if err := h.Sessions.Save(w, r, token); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, AuthResponse{
		Token:     token,
		Username:  sess.Username,
		Role:      sess.Role,
		ExpiresAt: sess.ExpiresAt,
	}, status)
}
