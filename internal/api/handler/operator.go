package handler

import (
	"net/http"

	"github.com/mcoot/guestdesk/internal/api/middleware"
	"github.com/mcoot/guestdesk/internal/api/request"
	"github.com/mcoot/guestdesk/internal/api/response"
	"github.com/mcoot/guestdesk/internal/services/auth"
)

// OperatorHandler handles operator account endpoints
type OperatorHandler struct {
	authService *auth.Service
}

// NewOperatorHandler creates a new operator handler
func NewOperatorHandler(authService *auth.Service) *OperatorHandler {
	return &OperatorHandler{
		authService: authService,
	}
}

// Register handles POST /api/v1/operators/register
func (h *OperatorHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.RegisterOperator(r.Context(), req.Username, req.Password, req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, "/api/v1/operators/me", response.AuthResponseFromSession(session))
}

// Login handles POST /api/v1/operators/login
func (h *OperatorHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// Logout handles POST /api/v1/operators/logout
func (h *OperatorHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := middleware.GetSession(r.Context()); session != nil {
		h.authService.InvalidateSession(session.Token)
	}
	response.NoContent(w)
}

// GetMe handles GET /api/v1/operators/me
func (h *OperatorHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	operator := middleware.MustGetOperator(r.Context())
	response.JSON(w, http.StatusOK, response.OperatorFromModel(operator))
}
