package factory

import (
	"time"

	"github.com/mcoot/guestdesk/internal/dependencies/mocks"
	"github.com/mcoot/guestdesk/internal/services/auth"
	"github.com/mcoot/guestdesk/internal/services/eligibility"
	"github.com/mcoot/guestdesk/internal/storage/memory"
	"github.com/mcoot/guestdesk/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The clock starts at 14:00 UTC on 2025-06-15.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, auth.DefaultConfig(), eligibility.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
