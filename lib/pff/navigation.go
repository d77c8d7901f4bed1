package pff

import (
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffldt"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
	"github.com/libpff-rec/pff-rec/lib/pffstream"
)

// RootItem returns the root of the live item tree: the unique
// self-parented descriptor every other descriptor chains up to
// (§4.11). Absent only when the descriptors index never had a
// self-parented entry, which a well-formed container never lacks.
func (c *Container) RootItem() (*Item, error) {
	if err := c.checkOpen("root_item"); err != nil {
		return nil, err
	}
	if c.itemTree.Root == nil {
		return nil, pfferrors.NewCorruptedError("root_item", "descriptors index has no self-parented root")
	}
	return c.itemTree.Root, nil
}

// RootFolderSubtree is an alias for RootItem kept for callers that
// think in terms of the message-store's root folder rather than the
// raw tree root (§4.11); the container never distinguishes the two.
func (c *Container) RootFolderSubtree() (*Item, bool) {
	item, err := c.RootItem()
	return item, err == nil
}

// ItemByIdentifier looks up any linked descriptor by identifier,
// whether reachable from the root or sitting on the orphan list.
// Returns ErrNotFound if id was never linked (§7).
func (c *Container) ItemByIdentifier(id pffprim.Identifier) (*Item, error) {
	if err := c.checkOpen("item_by_identifier"); err != nil {
		return nil, err
	}
	item, ok := c.itemTree.Lookup(id)
	if !ok {
		return nil, pfferrors.ErrNotFound
	}
	return item, nil
}

// Children returns item's children in identifier order.
func (c *Container) Children(item *Item) []*Item {
	var out []*Item
	item.Children.Range(func(_ pffprim.Identifier, child *Item) bool {
		out = append(out, child)
		return true
	})
	return out
}

// NumberOfOrphans reports how many descriptors in the live tree could
// not be linked under the root (§4.11, §4.13).
func (c *Container) NumberOfOrphans() int { return len(c.itemTree.Orphans) }

// Orphan returns the i'th orphaned descriptor in the live tree.
func (c *Container) Orphan(i int) (*Item, error) {
	if i < 0 || i >= len(c.itemTree.Orphans) {
		return nil, pfferrors.NewArgumentError("orphan", errIndexOutOfRange)
	}
	return c.itemTree.Orphans[i], nil
}

// RecoveredItemCount reports how many descriptors phase-2 recovery
// linked into the recovered tree (root, orphans, and all descendants),
// or 0 if recovery has not run (§4.11 phase 2).
func (c *Container) RecoveredItemCount() int {
	if c.recovered == nil {
		return 0
	}
	return c.recovered.Tree.Len()
}

// RecoveredNumberOfOrphans reports how many phase-2 candidates could
// not be linked under the recovered tree's own root, or 0 if recovery
// has not run.
func (c *Container) RecoveredNumberOfOrphans() int {
	if c.recovered == nil {
		return 0
	}
	return len(c.recovered.Tree.Orphans)
}

// RecoveredOrphan returns the i'th orphan in the recovered tree.
func (c *Container) RecoveredOrphan(i int) (*Item, error) {
	if c.recovered == nil || i < 0 || i >= len(c.recovered.Tree.Orphans) {
		return nil, pfferrors.NewArgumentError("recovered_orphan", errIndexOutOfRange)
	}
	return c.recovered.Tree.Orphans[i], nil
}

// RecoveredItemByIdentifier looks up a descriptor surfaced by recovery,
// independent of the live tree (§4.13).
func (c *Container) RecoveredItemByIdentifier(id pffprim.Identifier) (*Item, error) {
	if c.recovered == nil {
		return nil, pfferrors.ErrNotFound
	}
	item, ok := c.recovered.Tree.Lookup(id)
	if !ok {
		return nil, pfferrors.ErrNotFound
	}
	return item, nil
}

// lookupDescriptor resolves id against the live tree first (every
// linked descriptor, orphans included, since BuildFromIndex walks
// every leaf) and falls back to the recovered tree so callers don't
// care which pass surfaced a given descriptor.
func (c *Container) lookupDescriptor(id pffprim.Identifier) (*Item, error) {
	if item, ok := c.itemTree.Lookup(id); ok {
		return item, nil
	}
	if c.recovered != nil {
		if item, ok := c.recovered.Tree.Lookup(id); ok {
			return item, nil
		}
	}
	return nil, pfferrors.ErrNotFound
}

// DataStream resolves a descriptor's main payload into a seekable
// byte stream (§4.10). descriptorID is the Item.Identifier, not the
// Item.DataIdentifier: the stream needs the owning descriptor's node
// type to run the decryption heuristic (§4.9).
func (c *Container) DataStream(descriptorID pffprim.Identifier) (*pffstream.Stream, error) {
	if err := c.checkOpen("data_stream"); err != nil {
		return nil, err
	}
	item, err := c.lookupDescriptor(descriptorID)
	if err != nil {
		return nil, err
	}
	s, err := pffstream.New(c.file, c.header.Variant, c.offsetsIdx, item.DataIdentifier,
		c.encryptionMode, descriptorID.Type(), &c.sticky, c.opts.Strict)
	return s, c.wrapCancel("data_stream", err)
}

// LocalDescriptorStream resolves one sub-payload out of descriptorID's
// local-descriptors tree, keyed by subID (§4.7, §4.10).
func (c *Container) LocalDescriptorStream(descriptorID, subID pffprim.Identifier) (*pffstream.Stream, error) {
	if err := c.checkOpen("local_descriptor_stream"); err != nil {
		return nil, err
	}
	item, err := c.lookupDescriptor(descriptorID)
	if err != nil {
		return nil, err
	}
	if item.LocalDescriptorsIdentifier == 0 {
		return nil, pfferrors.ErrNotFound
	}

	ldtLeaf, err := c.offsetsIdx.GetByIdentifier(item.LocalDescriptorsIdentifier)
	if err != nil {
		return nil, c.wrapCancel("local_descriptor_stream", err)
	}

	ldt := pffldt.New(c.file, c.header.Variant, ldtLeaf.FileOffset, item.LocalDescriptorsIdentifier, c.opts.Strict)
	ldt.SetOnCorrupted(c.markCorrupted("local_descriptor_tree"))
	ldt.SetAbort(c.isAborted)

	val, err := ldt.GetByIdentifier(subID)
	if err != nil {
		return nil, c.wrapCancel("local_descriptor_stream", err)
	}

	s, err := pffstream.New(c.file, c.header.Variant, c.offsetsIdx, val.DataIdentifier,
		c.encryptionMode, pffprim.NodeTypeLocalDescriptor, &c.sticky, c.opts.Strict)
	return s, c.wrapCancel("local_descriptor_stream", err)
}
