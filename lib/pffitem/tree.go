// Package pffitem links descriptors-index leaves into the item tree
// the rest of the core (and eventually the facade/CLI) navigates
// (§4.11). Phase 1 walks the descriptors index and links every leaf
// by identifier, parent identifier, and a unique self-parented root;
// phase 2 (owned by lib/pffrecover) feeds recovered candidates into a
// second, parallel tree of the same shape using InsertRecovered.
package pffitem

import (
	"github.com/libpff-rec/pff-rec/lib/containers"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffindex"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

// Item is one linked node: the descriptor leaf plus its children,
// ordered by identifier.
type Item struct {
	pffindex.DescriptorLeaf
	Recovered bool
	Children  *containers.SortedMap[pffprim.Identifier, *Item]
}

func newItem(leaf pffindex.DescriptorLeaf, recovered bool) *Item {
	return &Item{
		DescriptorLeaf: leaf,
		Recovered:      recovered,
		Children:       &containers.SortedMap[pffprim.Identifier, *Item]{},
	}
}

// Tree is a descriptor-to-item tree: either the live tree phase 1
// builds, or the parallel recovered tree phase 2 builds alongside it.
// The two never share a Tree value.
type Tree struct {
	Root     *Item
	Orphans  []*Item
	recovery bool
	byID     map[pffprim.Identifier]*Item
}

func newTree(recovery bool) *Tree {
	return &Tree{recovery: recovery, byID: make(map[pffprim.Identifier]*Item)}
}

// NewRecoveredTree starts an empty tree for phase-2 candidates.
func NewRecoveredTree() *Tree { return newTree(true) }

// Lookup finds an already-linked item by identifier.
func (t *Tree) Lookup(id pffprim.Identifier) (*Item, bool) {
	it, ok := t.byID[id]
	return it, ok
}

// Len reports how many items have been linked so far, root and
// orphans included.
func (t *Tree) Len() int { return len(t.byID) }

// Walk visits every linked item depth-first: the root's subtree, then
// each orphan's subtree in the order the orphans were linked. Children
// are visited in identifier order.
func (t *Tree) Walk(visit func(*Item) error) error {
	if t.Root != nil {
		if err := walkItem(t.Root, visit); err != nil {
			return err
		}
	}
	for _, o := range t.Orphans {
		if err := walkItem(o, visit); err != nil {
			return err
		}
	}
	return nil
}

func walkItem(it *Item, visit func(*Item) error) error {
	if err := visit(it); err != nil {
		return err
	}
	var err error
	it.Children.Range(func(_ pffprim.Identifier, child *Item) bool {
		err = walkItem(child, visit)
		return err == nil
	})
	return err
}

// attach installs item into the tree: as the root if self-parented
// (erroring if a root is already installed), as a child of an
// already-linked parent, or onto the orphan list if the parent cannot
// be found by either caller. attach never itself goes looking for a
// missing parent; BuildFromIndex does that before calling it.
func (t *Tree) attach(item *Item) error {
	if _, exists := t.byID[item.Identifier]; exists {
		return nil
	}
	t.byID[item.Identifier] = item

	if item.ParentIdentifier == item.Identifier {
		if t.Root != nil {
			return pfferrors.NewCorruptedError("link_item_tree",
				"second self-parented root descriptor %s (existing root %s)",
				item.Identifier, t.Root.Identifier)
		}
		t.Root = item
		return nil
	}

	if parent, ok := t.byID[item.ParentIdentifier]; ok {
		parent.Children.Store(item.Identifier, item)
		return nil
	}

	t.Orphans = append(t.Orphans, item)
	return nil
}

// InsertRecovered links one phase-2 candidate leaf into a recovered
// tree (§4.11 phase 2). Recovery never goes back to the live
// descriptors index to chase a missing parent — candidates surface in
// whatever order the unallocated-space scan finds them, so a parent
// that hasn't been scanned yet simply makes this candidate an orphan.
// It stays on the orphan list: inserting its parent later does not
// move it under that parent.
func (t *Tree) InsertRecovered(leaf pffindex.DescriptorLeaf) error {
	if !t.recovery {
		return pfferrors.NewArgumentError("insert_recovered", errNotRecoveryTree)
	}
	if _, already := t.byID[leaf.Identifier]; already {
		return nil
	}
	return t.attach(newItem(leaf, true))
}
