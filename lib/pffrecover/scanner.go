package pffrecover

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffindex"
	"github.com/libpff-rec/pff-rec/lib/pffitem"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
	"github.com/libpff-rec/pff-rec/lib/pfftree"
)

// Scanner runs phase 2 over a set of byte ranges, hunting for
// descriptors-index and offsets-index leaf pages the live trees no
// longer reach.
type Scanner struct {
	File    pffdiskio.File
	Variant pffprim.Variant

	// Abort, if non-nil, is polled before each range and before each
	// candidate within a range; a true result aborts the scan with
	// pfferrors.ErrCancelled, per the container-wide abort contract
	// (§4.12).
	Abort func() bool
}

// Result is the outcome of one recovery scan.
type Result struct {
	Tree *pffitem.Tree

	// OffsetEntries is the recovered offsets-index leaves, keyed by
	// data identifier, first-by-file-order wins.
	OffsetEntries map[pffprim.Identifier]pffindex.OffsetsLeaf

	// DuplicateOffsetEntries holds every recovered offsets-index leaf
	// that lost to an earlier, different leaf for the same identifier
	// (Open Question "multiple recovered offsets-index entries",
	// spec.md §9); exact repeats of the kept leaf are not listed.
	DuplicateOffsetEntries []pffindex.OffsetsLeaf

	ScannedRanges []ByteRange
}

func magicBytes(magic uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], magic)
	return b[:]
}

// Scan hunts every range in ranges for descriptors-index and
// offsets-index leaf pages, validates each candidate the same way a
// live tree walk would (signature, entry-area bounds, header CRC —
// everything ReadNodeAny checks except the back-pointer, which isn't
// known in advance for a blind scan), and links survivors into a
// fresh recovered item tree.
func (s *Scanner) Scan(ranges []ByteRange) (*Result, error) {
	res := &Result{
		Tree:          pffitem.NewRecoveredTree(),
		OffsetEntries: make(map[pffprim.Identifier]pffindex.OffsetsLeaf),
		ScannedRanges: ranges,
	}

	pageSize := s.Variant.PageSize()
	hs := pfftree.HeaderSize(s.Variant)
	sigOffset := pageSize - hs + 8

	seen := bloom.NewWithEstimates(1_000_000, 0.001)

	descMagic := magicBytes(pffindex.DescriptorsIndexMagic)
	offsetsMagic := magicBytes(pffindex.OffsetsIndexMagic)

	for _, r := range ranges {
		if s.aborted() {
			return nil, pfferrors.ErrCancelled
		}

		if err := s.scanRange(r, descMagic, sigOffset, seen, func(off int64) error {
			return s.tryDescriptorCandidate(off, res)
		}); err != nil {
			return nil, err
		}
		if err := s.scanRange(r, offsetsMagic, sigOffset, seen, func(off int64) error {
			return s.tryOffsetsCandidate(off, res)
		}); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func (s *Scanner) aborted() bool { return s.Abort != nil && s.Abort() }

func (s *Scanner) scanRange(r ByteRange, magic []byte, sigOffset int, seen *bloom.BloomFilter, try func(candidateOffset int64) error) error {
	sr := pffdiskio.NewStatefulReader(s.File, r.Start, r.End)
	matches, err := pffdiskio.FindAll(sr, magic)
	if err != nil {
		return pfferrors.NewIoError("recover_scan", err)
	}
	for _, pos := range matches {
		if s.aborted() {
			return pfferrors.ErrCancelled
		}
		candidateOffset := r.Start + pos - int64(sigOffset)
		if candidateOffset < 0 {
			continue
		}
		key := seenKey(candidateOffset)
		if seen.Test(key) {
			continue
		}
		seen.Add(key)
		if err := try(candidateOffset); err != nil {
			return err
		}
	}
	return nil
}

func seenKey(off int64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(off))
	return b[:]
}

func (s *Scanner) tryDescriptorCandidate(off int64, res *Result) error {
	node, err := pfftree.ReadNodeAny(s.File, s.Variant, off, pffindex.DescriptorsIndexMagic)
	if err != nil || !node.Header.IsLeaf() {
		return nil
	}
	for i := 0; i < node.NumEntries(); i++ {
		leaf, err := pffindex.DecodeDescriptorEntry(s.Variant, node.Entry(i))
		if err != nil {
			continue
		}
		if err := res.Tree.InsertRecovered(leaf); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) tryOffsetsCandidate(off int64, res *Result) error {
	node, err := pfftree.ReadNodeAny(s.File, s.Variant, off, pffindex.OffsetsIndexMagic)
	if err != nil || !node.Header.IsLeaf() {
		return nil
	}
	for i := 0; i < node.NumEntries(); i++ {
		leaf, err := pffindex.DecodeOffsetsEntry(s.Variant, node.Entry(i))
		if err != nil {
			continue
		}
		if existing, ok := res.OffsetEntries[leaf.Identifier]; ok {
			if existing != leaf {
				res.DuplicateOffsetEntries = append(res.DuplicateOffsetEntries, leaf)
			}
			continue
		}
		res.OffsetEntries[leaf.Identifier] = leaf
	}
	return nil
}
