package flow

import (
	"errors"

	"github.com/mcoot/guestdesk/internal/model"
)

var errNoResponsible = errors.New("draft has no responsible adult")

// AssembleSubmission builds the creation payload for a completed draft.
//
// Every child becomes a paying_child record, in order. At most one adult record follows:
//   - the responsible adult as their own children's companion: paying_adult
//   - another adult: nanny when flagged, atypical_companion otherwise
//   - no companion but the responsible adult attends: paying_adult
//
// Each child points at the adult record by position, since no ids exist yet.
func AssembleSubmission(draft *model.GuestGroupDraft) (model.GroupSubmission, error) {
	if draft == nil || draft.Responsible == nil {
		return model.GroupSubmission{}, errNoResponsible
	}
	responsible := draft.Responsible

	submission := model.GroupSubmission{
		ResponsibleContact: model.ResponsibleContact{
			Name:  responsible.Name,
			Phone: responsible.Phone,
		},
		Guests: make([]model.GuestRecord, 0, len(draft.Children)+1),
	}

	adult := adultRecord(draft)
	var adultIndex *int
	if adult != nil {
		idx := len(draft.Children)
		adultIndex = &idx
	}

	for _, child := range draft.Children {
		record := model.GuestRecord{
			DisplayName: child.Name,
			Category:    model.CategoryPayingChild,
			IsAtypical:  child.IsAtypical,
		}
		if child.DateOfBirth != nil {
			dob := *child.DateOfBirth
			record.DateOfBirth = &dob
		}
		if adultIndex != nil {
			idx := *adultIndex
			record.ResponsibleIndex = &idx
		}
		submission.Guests = append(submission.Guests, record)
	}

	if adult != nil {
		submission.Guests = append(submission.Guests, *adult)
	}
	return submission, nil
}

func adultRecord(draft *model.GuestGroupDraft) *model.GuestRecord {
	responsible := draft.Responsible

	if c := draft.Companion; c != nil {
		switch c.Kind {
		case model.CompanionSelf:
			return &model.GuestRecord{
				DisplayName: responsible.Name,
				Category:    model.CategoryPayingAdult,
				Phone:       responsible.Phone,
			}
		case model.CompanionOther:
			category := model.CategoryAtypicalCompanion
			if c.IsNanny {
				category = model.CategoryNanny
			}
			return &model.GuestRecord{
				DisplayName: c.Name,
				Category:    category,
				Phone:       c.Phone,
			}
		}
	}

	if draft.AttendanceAnswer != nil && *draft.AttendanceAnswer {
		return &model.GuestRecord{
			DisplayName: responsible.Name,
			Category:    model.CategoryPayingAdult,
			Phone:       responsible.Phone,
		}
	}
	return nil
}
