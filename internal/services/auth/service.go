package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/guestdesk/internal/dependencies/clock"
	"github.com/mcoot/guestdesk/internal/dependencies/random"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUsernameExists     = errors.New("username already exists")
)

const (
	tokenLength   = 43
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	minUsernameLength = 3
	minPasswordLength = 8
)

// Session is an authenticated operator session at the front desk
type Session struct {
	Token      string
	OperatorID model.OperatorID
	Operator   model.Operator
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Service handles operator accounts and bearer sessions
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration `yaml:"session_duration"`
}

// DefaultConfig returns default auth configuration (one event day plus setup)
func DefaultConfig() Config {
	return Config{
		SessionDuration: 16 * time.Hour,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		random:          random,
		logger:          logger,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// RegisterOperator creates an operator account and signs it in
func (s *Service) RegisterOperator(ctx context.Context, username, password, displayName string) (*Session, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	displayName = strings.TrimSpace(displayName)
	if len(username) < minUsernameLength {
		return nil, model.NewValidationError("username", "username must be at least %d characters", minUsernameLength)
	}
	if len(password) < minPasswordLength {
		return nil, model.NewValidationError("password", "password must be at least %d characters", minPasswordLength)
	}
	if displayName == "" {
		displayName = username
	}

	// Check if username exists
	_, err := s.storage.GetRegisteredOperatorByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameExists
	}
	if !errors.Is(err, model.ErrOperatorNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	operatorID := model.OperatorID(s.random.UUID())
	now := s.clock.Now()

	operator := &model.Operator{
		ID:          operatorID,
		DisplayName: displayName,
		CreatedAt:   now,
	}

	registered := &model.RegisteredOperator{
		OperatorID:   operatorID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveOperator(ctx, operator); err != nil {
		return nil, err
	}
	if err := s.storage.SaveRegisteredOperator(ctx, registered); err != nil {
		return nil, err
	}

	s.logger.Info("operator registered",
		slog.String("operator_id", string(operatorID)),
		slog.String("username", username),
	)
	return s.createSession(operator), nil
}

// Login authenticates an operator and creates a session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	ro, err := s.storage.GetRegisteredOperatorByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrOperatorNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(ro.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("operator login rejected", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	operator, err := s.storage.GetOperator(ctx, ro.OperatorID)
	if err != nil {
		return nil, err
	}

	return s.createSession(operator), nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// createSession creates a new session for an operator
func (s *Service) createSession(operator *model.Operator) *Session {
	now := s.clock.Now()
	session := &Session{
		Token:      s.random.String(tokenLength, tokenAlphabet),
		OperatorID: operator.ID,
		Operator:   *operator,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}
