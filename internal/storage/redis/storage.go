package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// getJSON loads a JSON value, mapping a missing key to notFound
func (s *Storage) getJSON(ctx context.Context, key string, out any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, out)
}

// Operator operations

func (s *Storage) SaveOperator(ctx context.Context, operator *model.Operator) error {
	data, err := json.Marshal(operator)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, operatorKey(operator.ID), data, 0).Err()
}

func (s *Storage) GetOperator(ctx context.Context, id model.OperatorID) (*model.Operator, error) {
	var operator model.Operator
	if err := s.getJSON(ctx, operatorKey(id), &operator, model.ErrOperatorNotFound); err != nil {
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

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, registeredOperatorKey(ro.OperatorID), data, 0)
	pipe.Set(ctx, usernameIndexKey(ro.Username), string(ro.OperatorID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredOperator(ctx context.Context, operatorID model.OperatorID) (*model.RegisteredOperator, error) {
	var ro model.RegisteredOperator
	if err := s.getJSON(ctx, registeredOperatorKey(operatorID), &ro, model.ErrOperatorNotFound); err != nil {
		return nil, err
	}
	return &ro, nil
}

func (s *Storage) GetRegisteredOperatorByUsername(ctx context.Context, username string) (*model.RegisteredOperator, error) {
	// Look up operator ID from username index
	operatorIDStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrOperatorNotFound
		}
		return nil, err
	}

	return s.GetRegisteredOperator(ctx, model.OperatorID(operatorIDStr))
}

// Event operations

func (s *Storage) SaveEvent(ctx context.Context, event *model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, eventKey(event.ID), data, 0)
	pipe.SAdd(ctx, eventsIndexKey(), string(event.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetEvent(ctx context.Context, id model.EventID) (*model.Event, error) {
	var event model.Event
	if err := s.getJSON(ctx, eventKey(id), &event, model.ErrEventNotFound); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *Storage) EventExists(ctx context.Context, id model.EventID) (bool, error) {
	exists, err := s.client.Exists(ctx, eventKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) ListEvents(ctx context.Context) ([]*model.Event, error) {
	ids, err := s.client.SMembers(ctx, eventsIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Event{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = eventKey(model.EventID(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	events := make([]*model.Event, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var event model.Event
		if err := json.Unmarshal([]byte(str), &event); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}
	storage.SortEvents(events)
	return events, nil
}

// Guest operations

func (s *Storage) CreateGuests(ctx context.Context, guests []*model.Guest) error {
	if len(guests) == 0 {
		return nil
	}

	encoded := make([][]byte, len(guests))
	for i, g := range guests {
		data, err := json.Marshal(g)
		if err != nil {
			return err
		}
		encoded[i] = data
	}

	// MULTI/EXEC so the whole group appears at once or not at all
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, g := range guests {
			pipe.Set(ctx, guestKey(g.ID), encoded[i], 0)
			pipe.SAdd(ctx, eventGuestsIndexKey(g.EventID), string(g.ID))
		}
		return nil
	})
	return err
}

func (s *Storage) GetGuest(ctx context.Context, id model.GuestID) (*model.Guest, error) {
	var g model.Guest
	if err := s.getJSON(ctx, guestKey(id), &g, model.ErrGuestNotFound); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Storage) ListGuests(ctx context.Context, eventID model.EventID) ([]*model.Guest, error) {
	return loadEventGuests(ctx, s.client, eventID, false)
}

func (s *Storage) DeleteGuest(ctx context.Context, id model.GuestID) error {
	g, err := s.GetGuest(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrGuestNotFound) {
			return nil
		}
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, guestKey(id))
		pipe.SRem(ctx, eventGuestsIndexKey(g.EventID), string(id))
		return nil
	})
	return err
}

// UpdateAttendance watches the event's guest index and every guest key, plans against the
// values read, and commits in MULTI/EXEC. A concurrent write to any watched key aborts the
// commit and the whole read-plan-write is retried.
func (s *Storage) UpdateAttendance(ctx context.Context, eventID model.EventID, planner storage.AttendancePlanner) error {
	txf := func(tx *redis.Tx) error {
		guests, err := loadEventGuests(ctx, tx, eventID, true)
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

		encoded := make([][]byte, len(changed))
		for i, g := range changed {
			data, err := json.Marshal(g)
			if err != nil {
				return err
			}
			encoded[i] = data
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, g := range changed {
				pipe.Set(ctx, guestKey(g.ID), encoded[i], 0)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.cfg.MaxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, eventGuestsIndexKey(eventID))
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return model.ErrConcurrentUpdate
}

// guestReader is the subset of commands shared by *redis.Client and *redis.Tx
type guestReader interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// watcher is implemented by *redis.Tx
type watcher interface {
	Watch(ctx context.Context, keys ...string) *redis.StatusCmd
}

// loadEventGuests reads all guests of an event; when watch is set the guest keys are
// added to the transaction's watch list before they are read
func loadEventGuests(ctx context.Context, r guestReader, eventID model.EventID, watch bool) ([]*model.Guest, error) {
	ids, err := r.SMembers(ctx, eventGuestsIndexKey(eventID)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Guest{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = guestKey(model.GuestID(id))
	}

	if watch {
		w, ok := r.(watcher)
		if ok {
			if err := w.Watch(ctx, keys...).Err(); err != nil {
				return nil, err
			}
		}
	}

	values, err := r.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	guests := make([]*model.Guest, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Removed between index read and fetch
		}
		var g model.Guest
		if err := json.Unmarshal([]byte(str), &g); err != nil {
			return nil, err
		}
		guests = append(guests, &g)
	}
	storage.SortGuests(guests)
	return guests, nil
}

// Draft operations

func (s *Storage) SaveDraft(ctx context.Context, id model.DraftSessionID, draft *model.GuestGroupDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, draftKey(id), data, s.cfg.DraftTTL).Err()
}

func (s *Storage) GetDraft(ctx context.Context, id model.DraftSessionID) (*model.GuestGroupDraft, error) {
	var draft model.GuestGroupDraft
	if err := s.getJSON(ctx, draftKey(id), &draft, model.ErrDraftNotFound); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *Storage) DeleteDraft(ctx context.Context, id model.DraftSessionID) error {
	return s.client.Del(ctx, draftKey(id)).Err()
}
