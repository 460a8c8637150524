package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/guestdesk/internal/api/handler"
	"github.com/mcoot/guestdesk/internal/api/middleware"
	rootmw "github.com/mcoot/guestdesk/internal/middleware"
	"github.com/mcoot/guestdesk/internal/services/auth"
	"github.com/mcoot/guestdesk/internal/services/checkin"
	"github.com/mcoot/guestdesk/internal/services/eligibility"
	"github.com/mcoot/guestdesk/internal/services/event"
	"github.com/mcoot/guestdesk/internal/services/registration"
	"github.com/mcoot/guestdesk/internal/sse"
	"github.com/mcoot/guestdesk/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger              *slog.Logger
	StorageType         string
	Storage             storage.Storage
	AuthService         *auth.Service
	EventService        *event.Service
	RegistrationService *registration.Service
	CheckInController   *checkin.Controller
	EligibilityPolicy   *eligibility.Policy
	HubManager          *sse.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	operatorHandler := handler.NewOperatorHandler(cfg.AuthService)
	eventHandler := handler.NewEventHandler(cfg.EventService, cfg.EligibilityPolicy)
	guestHandler := handler.NewGuestHandler(cfg.RegistrationService)
	checkInHandler := handler.NewCheckInHandler(cfg.CheckInController)
	draftHandler := handler.NewDraftHandler(cfg.Storage)
	streamHandler := handler.NewStreamHandler(cfg.EventService, cfg.HubManager)
	healthHandler := handler.NewHealthHandler(cfg.StorageType)

	authMiddleware := middleware.Auth(cfg.AuthService)

	// Logging wraps recovery so panics are logged with their request id and final status
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(rootmw.Logging(cfg.Logger))
	api.Use(middleware.Recovery(cfg.Logger))

	// Public routes used by guests confirming attendance
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/operators/register", operatorHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/operators/login", operatorHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/events/{event_id}", eventHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/events/{event_id}/eligibility", eventHandler.Eligibility).Methods(http.MethodPost)
	api.HandleFunc("/events/{event_id}/groups", guestHandler.SubmitGroup).Methods(http.MethodPost)
	api.HandleFunc("/drafts/{session_id}", draftHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/drafts/{session_id}", draftHandler.Put).Methods(http.MethodPut)
	api.HandleFunc("/drafts/{session_id}", draftHandler.Delete).Methods(http.MethodDelete)

	// Operator routes
	operators := api.PathPrefix("/operators").Subrouter()
	operators.Use(authMiddleware)
	operators.HandleFunc("/me", operatorHandler.GetMe).Methods(http.MethodGet)
	operators.HandleFunc("/logout", operatorHandler.Logout).Methods(http.MethodPost)

	events := api.PathPrefix("/events").Subrouter()
	events.Use(authMiddleware)
	events.HandleFunc("", eventHandler.Create).Methods(http.MethodPost)
	events.HandleFunc("", eventHandler.List).Methods(http.MethodGet)
	events.HandleFunc("/{event_id}/guests", guestHandler.List).Methods(http.MethodGet)
	events.HandleFunc("/{event_id}/guests", guestHandler.RegisterOnSite).Methods(http.MethodPost)
	events.HandleFunc("/{event_id}/guests/tree", guestHandler.Tree).Methods(http.MethodGet)
	events.HandleFunc("/{event_id}/stream", streamHandler.Stream).Methods(http.MethodGet)

	guests := api.PathPrefix("/guests").Subrouter()
	guests.Use(authMiddleware)
	guests.HandleFunc("/{guest_id}", guestHandler.Remove).Methods(http.MethodDelete)
	guests.HandleFunc("/{guest_id}/check-in", checkInHandler.CheckIn).Methods(http.MethodPost)
	guests.HandleFunc("/{guest_id}/check-out", checkInHandler.CheckOut).Methods(http.MethodPost)
	guests.HandleFunc("/{guest_id}/group/check-in", checkInHandler.CheckInGroup).Methods(http.MethodPost)
	guests.HandleFunc("/{guest_id}/group/check-out", checkInHandler.CheckOutGroup).Methods(http.MethodPost)

	return r
}
