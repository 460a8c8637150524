package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/guestdesk/internal/model"
)

type TreeSuite struct {
	suite.Suite
}

func TestTreeSuite(t *testing.T) {
	suite.Run(t, new(TreeSuite))
}

func guest(id, name string, responsible string) *model.Guest {
	g := &model.Guest{
		ID:          model.GuestID(id),
		EventID:     "evt-1",
		DisplayName: name,
		Category:    model.CategoryPayingAdult,
	}
	if responsible != "" {
		r := model.GuestID(responsible)
		g.ResponsibleID = &r
		g.Category = model.CategoryPayingChild
	}
	return g
}

// BuildTree tests

func (s *TreeSuite) TestOneRootTwoChildren() {
	flat := []*model.Guest{
		guest("1", "Maria", ""),
		guest("2", "Ana", "1"),
		guest("3", "Bia", "1"),
	}

	nodes := BuildTree(flat)

	s.Require().Len(nodes, 1)
	s.Equal(model.GuestID("1"), nodes[0].Guest.ID)
	s.Require().Len(nodes[0].Dependents, 2)
	s.Equal(model.GuestID("2"), nodes[0].Dependents[0].ID)
	s.Equal(model.GuestID("3"), nodes[0].Dependents[1].ID)
}

func (s *TreeSuite) TestDanglingReferenceBecomesRoot() {
	flat := []*model.Guest{
		guest("1", "Maria", ""),
		guest("2", "Ana", "999"),
	}

	nodes := BuildTree(flat)

	s.Require().Len(nodes, 2)
	s.Equal(model.GuestID("2"), nodes[1].Guest.ID)
	s.Empty(nodes[1].Dependents)
}

func (s *TreeSuite) TestSelfReferenceBecomesRoot() {
	nodes := BuildTree([]*model.Guest{guest("1", "Maria", "1")})
	s.Require().Len(nodes, 1)
	s.Empty(nodes[0].Dependents)
}

func (s *TreeSuite) TestChildListedBeforeParent() {
	flat := []*model.Guest{
		guest("2", "Ana", "1"),
		guest("1", "Maria", ""),
	}

	nodes := BuildTree(flat)

	s.Require().Len(nodes, 1)
	s.Require().Len(nodes[0].Dependents, 1)
}

func (s *TreeSuite) TestDoesNotWalkPastOneLevel() {
	// Data that violates the depth limit keeps every guest
	flat := []*model.Guest{
		guest("1", "Maria", ""),
		guest("2", "Ana", "1"),
		guest("3", "Caio", "2"),
	}

	nodes := BuildTree(flat)

	total := 0
	for _, n := range nodes {
		total += 1 + len(n.Dependents)
	}
	s.Equal(3, total)
	s.Require().Len(nodes, 2)
	s.Equal(model.GuestID("3"), nodes[1].Guest.ID)
}

func (s *TreeSuite) TestStableForEqualInput() {
	flat := []*model.Guest{
		guest("1", "Maria", ""),
		guest("2", "Ana", "1"),
		guest("3", "Jo", ""),
	}
	s.Equal(BuildTree(flat), BuildTree(flat))
}

func (s *TreeSuite) TestEmpty() {
	s.Empty(BuildTree(nil))
}

// SortByName tests

func (s *TreeSuite) TestSortByName() {
	flat := []*model.Guest{
		guest("1", "maria", ""),
		guest("2", "Zoe", "1"),
		guest("3", "Ana", "1"),
		guest("4", "Bruno", ""),
	}

	nodes := BuildTree(flat)
	SortByName(nodes)

	s.Equal("Bruno", nodes[0].Guest.DisplayName)
	s.Equal("maria", nodes[1].Guest.DisplayName)
	s.Equal("Ana", nodes[1].Dependents[0].DisplayName)
	s.Equal("Zoe", nodes[1].Dependents[1].DisplayName)
}

// ResolveGroup tests

func (s *TreeSuite) TestResolveGroup() {
	flat := []*model.Guest{
		guest("1", "Maria", ""),
		guest("2", "Ana", "1"),
		guest("3", "Jo", ""),
	}

	group, err := ResolveGroup(flat, "1")
	s.Require().NoError(err)
	s.Len(Members(group), 2)
	s.Equal(model.GuestID("1"), Members(group)[0].ID)
}

func (s *TreeSuite) TestResolveGroupOfOne() {
	group, err := ResolveGroup([]*model.Guest{guest("3", "Jo", "")}, "3")
	s.Require().NoError(err)
	s.Len(Members(group), 1)
}

func (s *TreeSuite) TestResolveGroupFromDependent() {
	flat := []*model.Guest{guest("1", "Maria", ""), guest("2", "Ana", "1")}
	group, err := ResolveGroup(flat, "2")
	s.Require().NoError(err)
	s.Equal(model.GuestID("2"), group.Guest.ID)
	s.Empty(group.Dependents)
}

func (s *TreeSuite) TestResolveGroupUnknown() {
	_, err := ResolveGroup([]*model.Guest{guest("1", "Maria", "")}, "999")
	s.ErrorIs(err, model.ErrGroupNotFound)
}

// ValidateLink tests

func (s *TreeSuite) TestValidateLink() {
	flat := []*model.Guest{guest("1", "Maria", "")}
	s.NoError(ValidateLink(flat, guest("2", "Ana", ""), "1"))
}

func (s *TreeSuite) TestValidateLinkSelf() {
	flat := []*model.Guest{guest("1", "Maria", "")}
	s.ErrorIs(ValidateLink(flat, flat[0], "1"), model.ErrSelfReference)
}

func (s *TreeSuite) TestValidateLinkUnknown() {
	s.ErrorIs(ValidateLink(nil, guest("2", "Ana", ""), "1"), model.ErrResponsibleNotFound)
}

func (s *TreeSuite) TestValidateLinkOtherEvent() {
	other := guest("1", "Maria", "")
	other.EventID = "evt-2"
	s.ErrorIs(ValidateLink([]*model.Guest{other}, guest("2", "Ana", ""), "1"), model.ErrCrossEventReference)
}

func (s *TreeSuite) TestValidateLinkToDependent() {
	flat := []*model.Guest{guest("1", "Maria", ""), guest("2", "Ana", "1")}
	s.ErrorIs(ValidateLink(flat, guest("3", "Caio", ""), "2"), model.ErrHierarchyTooDeep)
}

func (s *TreeSuite) TestValidateLinkToChild() {
	child := guest("1", "Leo", "")
	child.Category = model.CategoryPayingChild
	s.ErrorIs(ValidateLink([]*model.Guest{child}, guest("2", "Caio", ""), "1"), model.ErrChildResponsible)
}

func (s *TreeSuite) TestValidateLinkGuestWithDependents() {
	flat := []*model.Guest{
		guest("1", "Maria", ""),
		guest("2", "Jo", ""),
		guest("3", "Caio", "2"),
	}
	s.ErrorIs(ValidateLink(flat, flat[1], "1"), model.ErrHierarchyTooDeep)
}
