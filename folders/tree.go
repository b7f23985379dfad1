// Package folders builds Content Builder folder hierarchy from flat category
// list.
package folders

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/maruel/natural"

	"mcsave/mcapi"
	"mcsave/utils/tree"
)

type Node struct {
	Category mcapi.Category
	Children []*Node
}

type Tree struct {
	Roots []*Node
	index map[int64]*Node
}

// Build links categories by parent id. Categories without parent, with
// unknown parent or taking part in parent cycle become roots so nothing is
// lost. Siblings are ordered by name using natural ordering.
func Build(categories []mcapi.Category) *Tree {
	t := &Tree{index: make(map[int64]*Node, len(categories))}

	order := make([]*Node, 0, len(categories))
	for _, c := range categories {
		if _, ok := t.index[c.ID]; ok {
			continue
		}
		n := &Node{Category: c}
		t.index[c.ID] = n
		order = append(order, n)
	}

	for _, n := range order {
		parent, ok := t.index[n.Category.ParentID]
		if n.Category.ParentID == 0 || !ok || t.loops(n) {
			t.Roots = append(t.Roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	sortNodes(t.Roots)
	for _, n := range order {
		sortNodes(n.Children)
	}
	return t
}

// loops reports whether following parents from n leads back to n.
func (t *Tree) loops(n *Node) bool {
	seen := map[int64]bool{n.Category.ID: true}
	for id := n.Category.ParentID; id != 0; {
		if seen[id] {
			return id == n.Category.ID
		}
		seen[id] = true
		p, ok := t.index[id]
		if !ok {
			return false
		}
		id = p.Category.ParentID
	}
	return false
}

func sortNodes(nodes []*Node) {
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		switch {
		case a.Category.Name == b.Category.Name:
			return cmp.Compare(a.Category.ID, b.Category.ID)
		case natural.Less(a.Category.Name, b.Category.Name):
			return -1
		default:
			return 1
		}
	})
}

// Find returns node by category id.
func (t *Tree) Find(id int64) (*Node, bool) {
	n, ok := t.index[id]
	return n, ok
}

// Len returns number of categories in the tree.
func (t *Tree) Len() int {
	return len(t.index)
}

// Walk visits nodes depth first in display order, stopping on first error.
func (t *Tree) Walk(fn func(n *Node, depth int) error) error {
	var walk func(nodes []*Node, depth int) error
	walk = func(nodes []*Node, depth int) error {
		for _, n := range nodes {
			if err := fn(n, depth); err != nil {
				return err
			}
			if err := walk(n.Children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(t.Roots, 0)
}

// Path returns names from root down to category.
func (t *Tree) Path(id int64) []string {
	var names []string
	seen := make(map[int64]bool)
	for n, ok := t.index[id]; ok && !seen[n.Category.ID]; n, ok = t.index[n.Category.ParentID] {
		seen[n.Category.ID] = true
		names = append(names, n.Category.Name)
	}
	slices.Reverse(names)
	return names
}

// Render produces indented listing of the tree. When assets are given they
// are listed under their categories.
func Render(t *Tree, assets map[int64][]mcapi.Asset) string {
	w := tree.NewWriter("")
	_ = t.Walk(func(n *Node, depth int) error {
		items := assets[n.Category.ID]
		if len(items) > 0 {
			w.Line(depth, "%s [%d] (%d)", n.Category.Name, n.Category.ID, len(items))
		} else {
			w.Line(depth, "%s [%d]", n.Category.Name, n.Category.ID)
		}
		for _, a := range items {
			w.Line(depth+1, "- %s [%d] %s", a.Name, a.ID, assetTypeLabel(a.AssetType))
		}
		return nil
	})
	return w.String()
}

func assetTypeLabel(ref mcapi.Ref) string {
	if len(ref.Name) > 0 {
		return ref.Name
	}
	return fmt.Sprintf("type %d", ref.ID)
}
