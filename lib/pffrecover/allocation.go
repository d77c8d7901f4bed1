// Package pffrecover implements phase 2 of the descriptor-to-item
// tree linker (§4.11): scanning unallocated data-block and page-block
// ranges for valid index-leaf signatures a corrupted or truncated
// descriptors index no longer reaches, and linking the survivors into
// a parallel recovered tree that never mutates the live one.
package pffrecover

import (
	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
)

// AllocationTable is a page-granularity bitmap read from the
// container's allocation-table root: bit N set means page N is live.
// It is kept as a bare byte blob whose bit semantics are interpreted
// by IsAllocated rather than by any on-disk struct, the same way
// btrfs-rec's FreeSpaceBitmap item is an undecoded byte slice.
type AllocationTable []byte

// IsAllocated reports whether page is marked live. A page past the
// end of the table (a table shorter than the file, or no table at
// all) is treated as unallocated — conservative for recovery, which
// would rather scan a few already-live pages than silently skip a
// range it has no bit for.
func (a AllocationTable) IsAllocated(page int) bool {
	byteIdx := page / 8
	if byteIdx < 0 || byteIdx >= len(a) {
		return false
	}
	return a[byteIdx]&(1<<uint(page%8)) != 0
}

// ReadAllocationTable reads byteLen bytes of allocation bitmap at off.
// off == 0 (no allocation table recorded in the header) yields a nil
// table, under which every page reports unallocated.
func ReadAllocationTable(f pffdiskio.File, off int64, byteLen int) (AllocationTable, error) {
	if off == 0 || byteLen <= 0 {
		return nil, nil
	}
	buf := make([]byte, byteLen)
	if err := pffdiskio.ReadAt(f, buf, off); err != nil {
		return nil, pfferrors.NewIoError("read_allocation_table", err)
	}
	return AllocationTable(buf), nil
}

// ByteRange is a half-open byte range [Start, End) to scan.
type ByteRange struct {
	Start, End int64
}

// UnallocatedRanges returns the maximal byte ranges within
// [0, fileSize) not covered by an allocated page, at pageSize
// granularity. A nil table yields one range covering the whole file.
func UnallocatedRanges(a AllocationTable, fileSize int64, pageSize int) []ByteRange {
	if pageSize <= 0 || fileSize <= 0 {
		return nil
	}

	var ranges []ByteRange
	open := false
	var start int64

	flush := func(end int64) {
		if open {
			ranges = append(ranges, ByteRange{Start: start, End: end})
			open = false
		}
	}

	for off := int64(0); off < fileSize; off += int64(pageSize) {
		page := int(off / int64(pageSize))
		if a.IsAllocated(page) {
			flush(off)
			continue
		}
		if !open {
			open = true
			start = off
		}
	}
	flush(fileSize)
	return ranges
}
