package pffitem

import (
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffindex"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

// BuildFromIndex runs phase 1 of the descriptor-to-item linker
// (§4.11): walk the descriptors index and link every leaf into one
// tree rooted at the unique self-parented descriptor. A parent that
// hasn't been linked yet is looked up directly in idx and linked
// first, recursively, bounded by pffprim.MaxRecursionDepth; a parent
// absent from the index entirely leaves the child on the orphan list.
func BuildFromIndex(idx *pffindex.DescriptorsIndex) (*Tree, error) {
	t := newTree(false)
	err := idx.Walk(func(leaf pffindex.DescriptorLeaf) error {
		_, err := t.link(idx, leaf, pffprim.MaxRecursionDepth)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) link(idx *pffindex.DescriptorsIndex, leaf pffindex.DescriptorLeaf, depthBudget int) (*Item, error) {
	if existing, ok := t.byID[leaf.Identifier]; ok {
		return existing, nil
	}
	if depthBudget <= 0 {
		return nil, pfferrors.NewCorruptedError("link_item_tree",
			"parent chain exceeds recursion depth at descriptor %s", leaf.Identifier)
	}

	if leaf.ParentIdentifier != leaf.Identifier {
		if _, ok := t.byID[leaf.ParentIdentifier]; !ok {
			parentLeaf, err := idx.GetByIdentifier(leaf.ParentIdentifier)
			switch {
			case err == nil:
				if _, err := t.link(idx, parentLeaf, depthBudget-1); err != nil {
					return nil, err
				}
			case pfferrors.IsNotFound(err):
				// Parent genuinely absent: attach below files this
				// leaf onto the orphan list.
			default:
				return nil, err
			}
		}
	}

	item := newItem(leaf, false)
	if err := t.attach(item); err != nil {
		return nil, err
	}
	return item, nil
}
