// Package hierarchy links dependents to their responsible guest.
//
// Guests form a forest of depth at most MaxDepth: roots and their direct dependents.
// The depth limit is validated when a link is written, so readers never walk further
// than one level.
package hierarchy

import (
	"sort"
	"strings"

	"github.com/mcoot/guestdesk/internal/model"
)

// MaxDepth is the number of dependent levels below a root guest
const MaxDepth = 1

// BuildTree groups a flat guest list into roots with their direct dependents.
//
// A guest whose responsible reference resolves to a root in the list becomes that root's
// dependent. A guest whose reference is dangling, points at itself, or points at a guest that
// is not a root is kept as a root. Roots and dependents keep their input order.
func BuildTree(flat []*model.Guest) []*model.GuestNode {
	byID := make(map[model.GuestID]*model.Guest, len(flat))
	for _, g := range flat {
		byID[g.ID] = g
	}

	isRoot := func(g *model.Guest) bool {
		return parentOf(g, byID) == nil
	}

	nodes := make([]*model.GuestNode, 0, len(flat))
	index := make(map[model.GuestID]*model.GuestNode, len(flat))
	for _, g := range flat {
		if isRoot(g) {
			node := &model.GuestNode{Guest: g, Dependents: []*model.Guest{}}
			nodes = append(nodes, node)
			index[g.ID] = node
		}
	}

	for _, g := range flat {
		if isRoot(g) {
			continue
		}
		parent := parentOf(g, byID)
		if node, ok := index[parent.ID]; ok {
			node.Dependents = append(node.Dependents, g)
			continue
		}
		// Responsible guest is itself a dependent; stop walking and surface as a root
		node := &model.GuestNode{Guest: g, Dependents: []*model.Guest{}}
		nodes = append(nodes, node)
		index[g.ID] = node
	}

	return nodes
}

// parentOf returns the guest's responsible guest if it resolves within byID
func parentOf(g *model.Guest, byID map[model.GuestID]*model.Guest) *model.Guest {
	if g.ResponsibleID == nil || *g.ResponsibleID == g.ID {
		return nil
	}
	return byID[*g.ResponsibleID]
}

// SortByName orders roots, and each root's dependents, alphabetically by display name
func SortByName(nodes []*model.GuestNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return lessByName(nodes[i].Guest, nodes[j].Guest)
	})
	for _, node := range nodes {
		deps := node.Dependents
		sort.SliceStable(deps, func(i, j int) bool {
			return lessByName(deps[i], deps[j])
		})
	}
}

func lessByName(a, b *model.Guest) bool {
	an, bn := strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)
	if an != bn {
		return an < bn
	}
	return a.ID < b.ID
}

// ResolveGroup returns the group rooted at id within one event's guest list.
// A guest with no dependents is a group of one.
func ResolveGroup(flat []*model.Guest, id model.GuestID) (*model.GuestNode, error) {
	for _, node := range BuildTree(flat) {
		if node.Guest.ID == id {
			return node, nil
		}
		for _, dep := range node.Dependents {
			if dep.ID == id {
				// Dependents never have dependents of their own
				return &model.GuestNode{Guest: dep, Dependents: []*model.Guest{}}, nil
			}
		}
	}
	return nil, model.ErrGroupNotFound
}

// Members returns the group's guests, responsible guest first
func Members(node *model.GuestNode) []*model.Guest {
	members := make([]*model.Guest, 0, 1+len(node.Dependents))
	members = append(members, node.Guest)
	members = append(members, node.Dependents...)
	return members
}

// ValidateLink checks that dependent may point at responsibleID given the event's
// current guest list
func ValidateLink(flat []*model.Guest, dependent *model.Guest, responsibleID model.GuestID) error {
	if responsibleID == dependent.ID {
		return model.ErrSelfReference
	}

	byID := make(map[model.GuestID]*model.Guest, len(flat))
	for _, g := range flat {
		byID[g.ID] = g
	}

	responsible, ok := byID[responsibleID]
	if !ok {
		return model.ErrResponsibleNotFound
	}
	if responsible.EventID != dependent.EventID {
		return model.ErrCrossEventReference
	}
	if parentOf(responsible, byID) != nil {
		return model.ErrHierarchyTooDeep
	}
	if responsible.Category.IsChild() {
		return model.ErrChildResponsible
	}

	// A guest that already has dependents cannot itself become one
	for _, g := range flat {
		if g.ID != dependent.ID && g.ResponsibleID != nil && *g.ResponsibleID == dependent.ID {
			return model.ErrHierarchyTooDeep
		}
	}
	return nil
}
