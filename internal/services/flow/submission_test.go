package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/guestdesk/internal/model"
)

func baseDraft() *model.GuestGroupDraft {
	ana := model.MustParseDate("2021-01-01")
	bia := model.MustParseDate("2015-01-01")
	return &model.GuestGroupDraft{
		EventID:     "evt-1",
		Responsible: &model.DraftResponsible{Name: "Maria", Phone: "5555-0100-1", SelfAttending: true},
		Children: []model.ChildEntry{
			{Name: "Ana", DateOfBirth: &ana, IsAtypical: true},
			{Name: "Bia", DateOfBirth: &bia},
		},
	}
}

func TestAssembleSelfCompanion(t *testing.T) {
	draft := baseDraft()
	draft.Companion = &model.CompanionChoice{Kind: model.CompanionSelf}

	sub, err := AssembleSubmission(draft)
	require.NoError(t, err)

	assert.Equal(t, model.ResponsibleContact{Name: "Maria", Phone: "5555-0100-1"}, sub.ResponsibleContact)
	require.Len(t, sub.Guests, 3)
	for _, child := range sub.Guests[:2] {
		assert.Equal(t, model.CategoryPayingChild, child.Category)
		require.NotNil(t, child.ResponsibleIndex)
		assert.Equal(t, 2, *child.ResponsibleIndex)
		assert.Nil(t, child.ResponsibleID)
		assert.NotNil(t, child.DateOfBirth)
	}
	assert.True(t, sub.Guests[0].IsAtypical)
	assert.Equal(t, model.GuestRecord{
		DisplayName: "Maria",
		Category:    model.CategoryPayingAdult,
		Phone:       "5555-0100-1",
	}, sub.Guests[2])
}

func TestAssembleOtherCompanion(t *testing.T) {
	draft := baseDraft()
	draft.Companion = &model.CompanionChoice{Kind: model.CompanionOther, Name: "Rosa", Phone: "5555-0199-2"}

	sub, err := AssembleSubmission(draft)
	require.NoError(t, err)
	require.Len(t, sub.Guests, 3)
	assert.Equal(t, "Rosa", sub.Guests[2].DisplayName)
	assert.Equal(t, model.CategoryAtypicalCompanion, sub.Guests[2].Category)
	assert.Equal(t, "5555-0199-2", sub.Guests[2].Phone)
}

func TestAssembleNannyCompanion(t *testing.T) {
	draft := baseDraft()
	draft.Companion = &model.CompanionChoice{Kind: model.CompanionOther, Name: "Rosa", Phone: "5555-0199-2", IsNanny: true}

	sub, err := AssembleSubmission(draft)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryNanny, sub.Guests[2].Category)
}

func TestAssembleAttendingWithoutCompanion(t *testing.T) {
	draft := baseDraft()
	yes := true
	draft.AttendanceAnswer = &yes

	sub, err := AssembleSubmission(draft)
	require.NoError(t, err)
	require.Len(t, sub.Guests, 3)
	assert.Equal(t, model.CategoryPayingAdult, sub.Guests[2].Category)
}

func TestAssembleNotAttending(t *testing.T) {
	draft := baseDraft()
	no := false
	draft.AttendanceAnswer = &no

	sub, err := AssembleSubmission(draft)
	require.NoError(t, err)
	require.Len(t, sub.Guests, 2)
	for _, child := range sub.Guests {
		assert.Nil(t, child.ResponsibleIndex)
	}
}

func TestAssembleRequiresResponsible(t *testing.T) {
	_, err := AssembleSubmission(&model.GuestGroupDraft{})
	assert.Error(t, err)
}
