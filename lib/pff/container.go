// Package pff is the public façade over the core: open a container,
// walk its item tree, read a descriptor's resolved byte stream,
// recover orphaned descriptors from unallocated space. Everything
// else in lib/ is plumbing this package wires together (§4.12
// "Container lifecycle", §6 "Consumer contract").
package pff

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/libpff-rec/pff-rec/lib/pffcache"
	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffheader"
	"github.com/libpff-rec/pff-rec/lib/pffindex"
	"github.com/libpff-rec/pff-rec/lib/pffitem"
	"github.com/libpff-rec/pff-rec/lib/pfflog"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
	"github.com/libpff-rec/pff-rec/lib/pffrecover"
)

// state is the container lifecycle state machine (§4.12).
type state uint8

const (
	stateUnopened state = iota
	stateHeaderRead
	stateIndexesInitialized
	stateItemTreeBuilt
	stateRecovered
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateUnopened:
		return "unopened"
	case stateHeaderRead:
		return "header-read"
	case stateIndexesInitialized:
		return "indexes-initialized"
	case stateItemTreeBuilt:
		return "item-tree-built"
	case stateRecovered:
		return "recovered"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Item is one linked node in the item tree: a descriptor plus its
// ordered children. Identical in shape whether it came from the live
// tree or a recovery scan; Item.Recovered tells them apart.
type Item = pffitem.Item

var recognizedCodepages = map[int]bool{
	874: true, 932: true, 936: true, 949: true, 950: true,
	1250: true, 1251: true, 1252: true, 1253: true, 1254: true,
	1255: true, 1256: true, 1257: true, 1258: true,
	20127: true, // ASCII
}

// Container is one open PFF file (§4.12). Not safe for concurrent use
// from multiple goroutines except for SignalAbort, which is the one
// write a second goroutine may legitimately make (§5).
type Container struct {
	opts   Options
	file   *pffcache.CachingFile
	header *pffheader.Header

	descriptorsIdx *pffindex.DescriptorsIndex
	offsetsIdx     *pffindex.OffsetsIndex
	itemTree       *pffitem.Tree
	recovered      *pffrecover.Result

	sticky         bool // shared force-decryption flag, one per container (§4.9 step 4)
	encryptionMode pffprim.EncryptionMode

	codepage  int
	corrupted atomic.Bool
	aborted   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc

	state state
}

// Open reads f's header, builds the descriptors and offsets indexes,
// links the item tree, and (if WithRecovery was given) runs phase-2
// recovery, in that order (§4.12).
func Open(f pffdiskio.File, opts ...Option) (*Container, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	ctx, cancel := context.WithCancel(o.Context)
	ctx = pfflog.WithLogger(ctx, o.Logger)
	log := pfflog.FromContext(ctx)

	c := &Container{
		opts:     *o,
		codepage: o.Codepage,
		state:    stateUnopened,
		ctx:      ctx,
		cancel:   cancel,
	}

	cf := pffcache.Wrap(f, o.CacheSize)
	c.file = cf

	header, err := pffheader.Read(cf)
	if err != nil {
		cancel()
		return nil, err
	}
	c.header = header
	c.encryptionMode = o.EncryptionOverride.Resolve(header.Encryption)
	c.state = stateHeaderRead
	log.WithField("variant", header.Variant).Info("header read")

	c.descriptorsIdx = pffindex.NewDescriptorsIndex(cf, header.Variant, header.DescriptorsRootOffset, header.DescriptorsRootBackPtr, o.Strict)
	c.offsetsIdx = pffindex.NewOffsetsIndex(cf, header.Variant, header.OffsetsRootOffset, header.OffsetsRootBackPtr, o.Strict)
	c.descriptorsIdx.SetOnCorrupted(c.markCorrupted("descriptors_index"))
	c.offsetsIdx.SetOnCorrupted(c.markCorrupted("offsets_index"))
	c.descriptorsIdx.SetAbort(c.isAborted)
	c.offsetsIdx.SetAbort(c.isAborted)
	c.state = stateIndexesInitialized

	itemTree, err := pffitem.BuildFromIndex(c.descriptorsIdx)
	if err != nil {
		cancel()
		return nil, err
	}
	c.itemTree = itemTree
	if len(itemTree.Orphans) > 0 {
		log.WithField("orphans", len(itemTree.Orphans)).Warn("descriptors with unreachable parents")
		c.corrupted.Store(true)
	}
	c.state = stateItemTreeBuilt

	if o.recoveryRequested {
		if err := c.runRecovery(log); err != nil {
			cancel()
			return nil, err
		}
		c.state = stateRecovered
	}

	return c, nil
}

func (c *Container) runRecovery(log *logrus.Entry) error {
	pageSize := c.header.Variant.PageSize()
	var table pffrecover.AllocationTable
	if c.opts.Recovery&IgnoreAllocationTable == 0 && c.header.AllocationTableRootOffset != 0 {
		byteLen := int((c.header.FileSize/int64(pageSize) + 7) / 8)
		t, err := pffrecover.ReadAllocationTable(c.file, c.header.AllocationTableRootOffset, byteLen)
		if err != nil {
			return err
		}
		table = t
	}

	var ranges []pffrecover.ByteRange
	if c.opts.Recovery&(ScanAllocated|IgnoreAllocationTable) != 0 || table == nil {
		ranges = []pffrecover.ByteRange{{Start: 0, End: c.file.Size()}}
	} else {
		ranges = pffrecover.UnallocatedRanges(table, c.file.Size(), pageSize)
	}

	scanner := &pffrecover.Scanner{File: c.file, Variant: c.header.Variant, Abort: c.isAborted}
	res, err := scanner.Scan(ranges)
	if err != nil {
		return err
	}
	c.recovered = res
	if len(res.Tree.Orphans) > 0 || len(res.DuplicateOffsetEntries) > 0 {
		c.corrupted.Store(true)
	}
	log.WithField("recovered_items", res.Tree.Len()).Info("recovery scan complete")
	return nil
}

func (c *Container) markCorrupted(_ string) func(offset int64) {
	return func(offset int64) {
		c.corrupted.Store(true)
	}
}

func (c *Container) isAborted() bool {
	if c.aborted.Load() {
		return true
	}
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// Close releases the underlying file handle. Idempotent; re-opening
// requires a fresh Open call (§4.12).
func (c *Container) Close() error {
	if c.state == stateClosed {
		return nil
	}
	c.cancel()
	c.state = stateClosed
	return c.file.Close()
}

// IsCorrupted reports whether any component has observed recoverable
// damage since Open (§4.13).
func (c *Container) IsCorrupted() bool { return c.corrupted.Load() }

// SignalAbort requests that every in-flight recursive operation
// return a CancelledError at its next checked step (§5, §9 "Abort").
// The only method safe to call from a goroutine other than the one
// using the rest of the Container API.
func (c *Container) SignalAbort() {
	c.aborted.Store(true)
}

// clearAbort resets the abort flag after an operation has observed
// and reported it, so the next call starts fresh (§9 "Abort").
func (c *Container) clearAbort() { c.aborted.Store(false) }

func (c *Container) checkOpen(op string) error {
	if c.state == stateUnopened || c.state == stateClosed {
		return pfferrors.NewArgumentError(op, errContainerNotOpen)
	}
	return nil
}

// wrapCancel normalizes a cancellation observed mid-operation into a
// *CancelledError and clears the abort flag, so the next call starts
// fresh (§9 "Abort"). Any other error, including nil, passes through
// unchanged.
func (c *Container) wrapCancel(op string, err error) error {
	if pfferrors.IsCancelled(err) {
		c.clearAbort()
		return newCancelledError(op)
	}
	return err
}

// GetCodepage returns the current access codepage.
func (c *Container) GetCodepage() int { return c.codepage }

// SetCodepage changes the access codepage used to decode narrow
// string properties (§6 "Access-codepage"). Returns ArgumentError for
// an unrecognized codepage number.
func (c *Container) SetCodepage(cp int) error {
	if !recognizedCodepages[cp] {
		return pfferrors.NewArgumentError("set_codepage", errUnrecognizedCodepage)
	}
	c.codepage = cp
	return nil
}

// DuplicateOffsetEntries returns every recovered offsets-index leaf
// that lost to an earlier, different leaf for the same identifier
// (spec.md §9 Open Question); exact repeats of the kept leaf are not
// listed. Returns nil if recovery has not run.
func (c *Container) DuplicateOffsetEntries() []pffindex.OffsetsLeaf {
	if c.recovered == nil {
		return nil
	}
	return c.recovered.DuplicateOffsetEntries
}

// Variant reports the container's on-disk format variant.
func (c *Container) Variant() pffprim.Variant { return c.header.Variant }
