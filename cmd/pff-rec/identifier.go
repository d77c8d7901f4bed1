package main

import (
	"fmt"
	"strconv"

	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

// parseIdentifier accepts decimal ("4098") or 0x-prefixed hex
// ("0x1002") spellings of a node identifier, since descriptor IDs are
// conventionally printed in hex but small examples are easier typed
// in decimal.
func parseIdentifier(s string) (pffprim.Identifier, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	return pffprim.Identifier(v), nil
}
