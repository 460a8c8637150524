package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/storage"
)

//go:embed schema.sql
var schema string

// Config holds SQLite settings
type Config struct {
	// Path is the database file, or ":memory:" for a throwaway database
	Path string `yaml:"path"`

	// DraftTTL bounds how long an abandoned confirmation draft can be resumed
	DraftTTL time.Duration `yaml:"draft_ttl"`
}

// DefaultConfig returns sensible defaults for SQLite configuration
func DefaultConfig() Config {
	return Config{Path: "guestdesk.db", DraftTTL: storage.DefaultDraftTTL}
}

// Storage is a SQLite-backed implementation of the storage interface.
// Every write transaction begins IMMEDIATE, so attendance read-plan-write cycles on the
// same database are serialised by SQLite's write lock.
type Storage struct {
	db       *sql.DB
	draftTTL time.Duration
	now      func() time.Time
}

// New opens the database and applies the schema
func New(cfg Config) (*Storage, error) {
	dsn := cfg.Path
	if !strings.Contains(dsn, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_txlock=immediate&_busy_timeout=5000"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(cfg.Path, ":memory:") {
		// Each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	ttl := cfg.DraftTTL
	if ttl <= 0 {
		ttl = storage.DefaultDraftTTL
	}
	return &Storage{db: db, draftTTL: ttl, now: time.Now}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// getJSON scans a single data column, mapping no rows to notFound
func getJSON(ctx context.Context, q queryer, out any, notFound error, query string, args ...any) error {
	var data string
	if err := q.QueryRowContext(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound
		}
		return err
	}
	return json.Unmarshal([]byte(data), out)
}

// inTx runs fn in a transaction, committing on success
func (s *Storage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Operator operations

func (s *Storage) SaveOperator(ctx context.Context, operator *model.Operator) error {
	data, err := json.Marshal(operator)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO operators (id, data) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		string(operator.ID), string(data))
	return err
}

func (s *Storage) GetOperator(ctx context.Context, id model.OperatorID) (*model.Operator, error) {
	var operator model.Operator
	err := getJSON(ctx, s.db, &operator, model.ErrOperatorNotFound,
		`SELECT data FROM operators WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	return &operator, nil
}

// Registered operator operations

func (s *Storage) SaveRegisteredOperator(ctx context.Context, ro *model.RegisteredOperator) error {
	data, err := json.Marshal(ro)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO registered_operators (operator_id, username, data) VALUES (?, ?, ?)
		 ON CONFLICT(operator_id) DO UPDATE SET username = excluded.username, data = excluded.data`,
		string(ro.OperatorID), ro.Username, string(data))
	return err
}

func (s *Storage) GetRegisteredOperator(ctx context.Context, operatorID model.OperatorID) (*model.RegisteredOperator, error) {
	var ro model.RegisteredOperator
	err := getJSON(ctx, s.db, &ro, model.ErrOperatorNotFound,
		`SELECT data FROM registered_operators WHERE operator_id = ?`, string(operatorID))
	if err != nil {
		return nil, err
	}
	return &ro, nil
}

func (s *Storage) GetRegisteredOperatorByUsername(ctx context.Context, username string) (*model.RegisteredOperator, error) {
	var ro model.RegisteredOperator
	err := getJSON(ctx, s.db, &ro, model.ErrOperatorNotFound,
		`SELECT data FROM registered_operators WHERE username = ?`, username)
	if err != nil {
		return nil, err
	}
	return &ro, nil
}

// Event operations

func (s *Storage) SaveEvent(ctx context.Context, event *model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, event_date, data) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET event_date = excluded.event_date, data = excluded.data`,
		string(event.ID), event.Date.String(), string(data))
	return err
}

func (s *Storage) GetEvent(ctx context.Context, id model.EventID) (*model.Event, error) {
	var event model.Event
	err := getJSON(ctx, s.db, &event, model.ErrEventNotFound,
		`SELECT data FROM events WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *Storage) EventExists(ctx context.Context, id model.EventID) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE id = ?`, string(id)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) ListEvents(ctx context.Context) ([]*model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM events ORDER BY event_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*model.Event{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var event model.Event
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}

// Guest operations

func (s *Storage) CreateGuests(ctx context.Context, guests []*model.Guest) error {
	if len(guests) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, g := range guests {
			if err := upsertGuest(ctx, tx, g); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertGuest(ctx context.Context, tx *sql.Tx, g *model.Guest) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO guests (id, event_id, created_at, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		string(g.ID), string(g.EventID), g.CreatedAt.UnixNano(), string(data))
	return err
}

func (s *Storage) GetGuest(ctx context.Context, id model.GuestID) (*model.Guest, error) {
	var g model.Guest
	err := getJSON(ctx, s.db, &g, model.ErrGuestNotFound,
		`SELECT data FROM guests WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Storage) ListGuests(ctx context.Context, eventID model.EventID) ([]*model.Guest, error) {
	return listGuests(ctx, s.db, eventID)
}

func listGuests(ctx context.Context, q queryer, eventID model.EventID) ([]*model.Guest, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT data FROM guests WHERE event_id = ? ORDER BY created_at, id`, string(eventID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	guests := []*model.Guest{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var g model.Guest
		if err := json.Unmarshal([]byte(data), &g); err != nil {
			return nil, err
		}
		guests = append(guests, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return guests, nil
}

func (s *Storage) DeleteGuest(ctx context.Context, id model.GuestID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM guests WHERE id = ?`, string(id))
	return err
}

func (s *Storage) UpdateAttendance(ctx context.Context, eventID model.EventID, planner storage.AttendancePlanner) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		guests, err := listGuests(ctx, tx, eventID)
		if err != nil {
			return err
		}

		updates, err := planner(guests)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}

		changed, err := storage.ApplyUpdates(guests, updates)
		if err != nil {
			return err
		}
		for _, g := range changed {
			if err := upsertGuest(ctx, tx, g); err != nil {
				return err
			}
		}
		return nil
	})
}

// Draft operations

// SaveDraft upserts the draft. updated_at is the save time, which GetDraft
// checks against the TTL; expired rows are swept on each save.
func (s *Storage) SaveDraft(ctx context.Context, id model.DraftSessionID, draft *model.GuestGroupDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	now := s.now()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM drafts WHERE updated_at <= ?`,
			now.Add(-s.draftTTL).UnixNano()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO drafts (id, updated_at, data) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at, data = excluded.data`,
			string(id), now.UnixNano(), string(data))
		return err
	})
}

func (s *Storage) GetDraft(ctx context.Context, id model.DraftSessionID) (*model.GuestGroupDraft, error) {
	var draft model.GuestGroupDraft
	err := getJSON(ctx, s.db, &draft, model.ErrDraftNotFound,
		`SELECT data FROM drafts WHERE id = ? AND updated_at > ?`,
		string(id), s.now().Add(-s.draftTTL).UnixNano())
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *Storage) DeleteDraft(ctx context.Context, id model.DraftSessionID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, string(id))
	return err
}
