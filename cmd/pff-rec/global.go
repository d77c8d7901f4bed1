package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/libpff-rec/pff-rec/lib/pff"
	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

// globalFlags holds the persistent flags every subcommand shares
// (§4.16 "Global flags"), bound once on the root command.
type globalFlags struct {
	encryption       string
	codepage         int
	scanAllocated    bool
	ignoreAllocTable bool
	cacheIndexNodes  int
	cacheDataBlocks  int
	logLevel         string
	strict           bool
}

func newGlobalFlags(root *cobra.Command) *globalFlags {
	f := &globalFlags{}
	pf := root.PersistentFlags()
	pf.StringVar(&f.encryption, "encryption", "auto", "encryption override: auto|none|compressible|high")
	pf.IntVar(&f.codepage, "codepage", 1252, "access codepage for narrow string properties")
	pf.BoolVar(&f.scanAllocated, "scan-allocated", false, "recovery: scan the whole file, not just unallocated ranges")
	pf.BoolVar(&f.ignoreAllocTable, "ignore-allocation-table", false, "recovery: ignore the allocation table and scan the whole file")
	pf.IntVar(&f.cacheIndexNodes, "cache-index-nodes", 8, "bounded LRU size for index node reads")
	pf.IntVar(&f.cacheDataBlocks, "cache-data-blocks", 64, "bounded LRU size for data block reads")
	pf.StringVar(&f.logLevel, "log-level", "info", "log level: panic|fatal|error|warn|info|debug|trace")
	pf.BoolVar(&f.strict, "strict", false, "fail hard on recoverable corruption instead of tolerating it")
	return f
}

func (f *globalFlags) encryptionOverride() (pffprim.EncryptionOverride, error) {
	switch f.encryption {
	case "auto":
		return pffprim.EncryptionOverrideAuto, nil
	case "none":
		return pffprim.EncryptionOverrideForceNone, nil
	case "compressible":
		return pffprim.EncryptionOverrideForceCompressible, nil
	case "high":
		return pffprim.EncryptionOverrideForceHigh, nil
	default:
		return 0, fmt.Errorf("unrecognized --encryption %q", f.encryption)
	}
}

func (f *globalFlags) logger() (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(f.logLevel)
	if err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	l := logrus.New()
	l.SetLevel(lvl)
	return l, nil
}

// recoveryFlags combines --scan-allocated and --ignore-allocation-table
// into the bitset pff.WithRecovery expects (§6 "Recovery flags").
func (f *globalFlags) recoveryFlags() pff.RecoveryFlags {
	var flags pff.RecoveryFlags
	if f.scanAllocated {
		flags |= pff.ScanAllocated
	}
	if f.ignoreAllocTable {
		flags |= pff.IgnoreAllocationTable
	}
	return flags
}

// cacheSize resolves the spec's two separate cache-size knobs onto
// the façade's single bounded pool (DESIGN.md's pffcache ledger entry
// explains why one pool serves both): the larger of the two wins, so
// neither flag is silently dropped.
func (f *globalFlags) cacheSize() int {
	if f.cacheIndexNodes > f.cacheDataBlocks {
		return f.cacheIndexNodes
	}
	return f.cacheDataBlocks
}

// open builds a *pff.Container from path using the shared flags, with
// recovery enabled only when withRecovery is true (only the `recover`
// subcommand needs phase 2 to run during Open).
func (f *globalFlags) open(path string, withRecovery bool) (*pff.Container, error) {
	enc, err := f.encryptionOverride()
	if err != nil {
		return nil, err
	}
	logger, err := f.logger()
	if err != nil {
		return nil, err
	}

	file, err := pffdiskio.Open(path)
	if err != nil {
		return nil, err
	}

	opts := []pff.Option{
		pff.WithEncryptionOverride(enc),
		pff.WithCodepage(f.codepage),
		pff.WithCacheSize(f.cacheSize()),
		pff.WithLogger(logger),
		pff.WithStrict(f.strict),
	}
	if withRecovery {
		opts = append(opts, pff.WithRecovery(f.recoveryFlags()))
	}

	c, err := pff.Open(file, opts...)
	if err != nil {
		file.Close()
		return nil, err
	}
	return c, nil
}
