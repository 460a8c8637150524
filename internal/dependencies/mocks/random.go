package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/guestdesk/internal/dependencies/random"
)

// MockRandom returns queued values. An exhausted String queue yields "",
// an exhausted UUID queue yields sequential UUID-shaped ids.
type MockRandom struct {
	mu sync.Mutex

	strings []string
	uuids   []string
	issued  int
}

var _ random.Random = (*MockRandom)(nil)

func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.strings) == 0 {
		return ""
	}
	next := r.strings[0]
	r.strings = r.strings[1:]
	return next
}

func (r *MockRandom) UUID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.uuids) > 0 {
		next := r.uuids[0]
		r.uuids = r.uuids[1:]
		return next
	}
	r.issued++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", r.issued)
}

// QueueString queues event codes or session tokens
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strings = append(r.strings, values...)
}

// QueueUUID queues guest ids
func (r *MockRandom) QueueUUID(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uuids = append(r.uuids, values...)
}
