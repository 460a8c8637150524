package eligibility

import (
	"fmt"

	"github.com/mcoot/guestdesk/internal/model"
)

// DefaultCompanionAgeThreshold is the age below which a child must attend with a companion
const DefaultCompanionAgeThreshold = 6

// Config holds the policy's tunable rules
type Config struct {
	CompanionAgeThreshold int `yaml:"companion_age_threshold"`
}

// DefaultConfig returns the house rules
func DefaultConfig() Config {
	return Config{CompanionAgeThreshold: DefaultCompanionAgeThreshold}
}

// Policy decides which children need a supervising companion. It holds no state beyond
// its configuration and is safe for concurrent use.
type Policy struct {
	threshold int
}

// New creates a Policy; a non-positive threshold falls back to the default
func New(cfg Config) *Policy {
	threshold := cfg.CompanionAgeThreshold
	if threshold <= 0 {
		threshold = DefaultCompanionAgeThreshold
	}
	return &Policy{threshold: threshold}
}

// Threshold returns the companion age threshold in whole years
func (p *Policy) Threshold() int {
	return p.threshold
}

// AgeAt returns the age in whole years on the given date.
// Someone born on the same month and day has just turned that age.
func AgeAt(dob, on model.Date) int {
	age := on.Year - dob.Year
	if on.Month < dob.Month || (on.Month == dob.Month && on.Day < dob.Day) {
		age--
	}
	return age
}

// RequiresCompanion reports whether the child must attend with a companion at an event
// held on eventDate. It fails with ErrMissingDateOfBirth when no date of birth is known.
func (p *Policy) RequiresCompanion(child model.ChildEntry, eventDate model.Date) (bool, error) {
	if child.DateOfBirth == nil || child.DateOfBirth.IsZero() {
		return false, model.ErrMissingDateOfBirth
	}
	if child.IsAtypical {
		return true, nil
	}
	return AgeAt(*child.DateOfBirth, eventDate) < p.threshold, nil
}

// Assessment is the evaluated eligibility of one child
type Assessment struct {
	Index             int
	Name              string
	Age               int
	RequiresCompanion bool
}

// Evaluate assesses every child in order against the event date
func (p *Policy) Evaluate(children []model.ChildEntry, eventDate model.Date) ([]Assessment, error) {
	results := make([]Assessment, 0, len(children))
	for i, child := range children {
		requires, err := p.RequiresCompanion(child, eventDate)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		results = append(results, Assessment{
			Index:             i,
			Name:              child.Name,
			Age:               AgeAt(*child.DateOfBirth, eventDate),
			RequiresCompanion: requires,
		})
	}
	return results, nil
}

// AnyRequiresCompanion returns the indices of the assessments requiring a companion
func AnyRequiresCompanion(assessments []Assessment) []int {
	var indices []int
	for _, a := range assessments {
		if a.RequiresCompanion {
			indices = append(indices, a.Index)
		}
	}
	return indices
}
