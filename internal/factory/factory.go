package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/guestdesk/internal/dependencies/clock"
	"github.com/mcoot/guestdesk/internal/dependencies/random"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/auth"
	"github.com/mcoot/guestdesk/internal/services/checkin"
	"github.com/mcoot/guestdesk/internal/services/eligibility"
	"github.com/mcoot/guestdesk/internal/services/event"
	"github.com/mcoot/guestdesk/internal/services/flow"
	"github.com/mcoot/guestdesk/internal/services/registration"
	"github.com/mcoot/guestdesk/internal/sse"
	"github.com/mcoot/guestdesk/internal/storage"
	"github.com/mcoot/guestdesk/internal/storage/memory"
	redisstorage "github.com/mcoot/guestdesk/internal/storage/redis"
	sqlitestorage "github.com/mcoot/guestdesk/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	EligibilityPolicy   *eligibility.Policy
	EventService        *event.Service
	RegistrationService *registration.Service
	CheckInController   *checkin.Controller
	AuthService         *auth.Service
	HubManager          *sse.HubManager
	Broadcaster         *sse.Broadcaster

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// EligibilityConfig holds the companion policy (optional)
	// If zero value, defaults to eligibility.DefaultConfig()
	EligibilityConfig eligibility.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLiteConfig holds the database location (required if StorageType is "sqlite")
	SQLiteConfig *sqlitestorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	var store storage.Storage
	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeSQLite:
		if cfg.SQLiteConfig == nil {
			return nil, errors.New("SQLiteConfig required when StorageType is sqlite")
		}
		sqliteStore, err := sqlitestorage.New(*cfg.SQLiteConfig)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	app := newWithDependencies(store, clock.New(), random.New(), authCfg, cfg.EligibilityConfig, logger)
	app.StorageType = storageType
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	eligibilityCfg eligibility.Config,
	logger *slog.Logger,
) *App {
	hubManager := sse.NewHubManager(logger)
	broadcaster := sse.NewBroadcaster(hubManager, clk, logger)
	policy := eligibility.New(eligibilityCfg)

	return &App{
		Storage:             store,
		StorageType:         StorageTypeMemory,
		Clock:               clk,
		Random:              rnd,
		EligibilityPolicy:   policy,
		EventService:        event.New(store, clk, rnd, logger),
		RegistrationService: registration.New(store, policy, clk, rnd, broadcaster, logger),
		CheckInController:   checkin.NewController(store, clk, broadcaster, logger),
		AuthService:         auth.New(store, clk, rnd, authCfg, logger),
		HubManager:          hubManager,
		Broadcaster:         broadcaster,
		logger:              logger,
	}
}

// StartConfirmation opens an in-process confirmation session for an event, resuming the
// session's draft if one was saved
func (a *App) StartConfirmation(ctx context.Context, eventID model.EventID, sessionID model.DraftSessionID) (*flow.Session, error) {
	eventDate, err := a.EventService.GetEventDate(ctx, eventID)
	if err != nil {
		return nil, err
	}
	f := flow.New(a.EligibilityPolicy, eventID, eventDate)
	return flow.StartSession(ctx, f, sessionID, a.Storage, a.RegistrationService, a.Clock, a.logger)
}

// Close disconnects live clients and releases the storage backend
func (a *App) Close() error {
	a.HubManager.CloseAll()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
