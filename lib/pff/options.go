package pff

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/libpff-rec/pff-rec/lib/fmtutil"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

// RecoveryFlags is a bitset selecting how Open's optional phase-2
// recovery scan chooses its byte ranges (§4.11 phase 2, §6
// "Recovery flags").
type RecoveryFlags uint8

const (
	// ScanAllocated scans the whole file, including pages the
	// allocation table marks live, instead of only unallocated
	// ranges. Slower; finds descriptors orphaned by a corrupted
	// index that otherwise still occupy live-looking pages.
	ScanAllocated RecoveryFlags = 1 << iota

	// IgnoreAllocationTable skips reading the allocation table
	// entirely and scans the whole file, equivalent to treating
	// every page as unallocated. Implies ScanAllocated's effect.
	IgnoreAllocationTable
)

var recoveryFlagNames = []string{"ScanAllocated", "IgnoreAllocationTable"}

// String formats the flag set the way teacher's own bitfield types do
// (fmtutil.BitfieldString), e.g. "ScanAllocated|IgnoreAllocationTable".
func (f RecoveryFlags) String() string {
	return fmtutil.BitfieldString(f, recoveryFlagNames, fmtutil.HexNone)
}

// Options carries every caller-facing knob Open accepts (§6
// "Configuration options"), assembled via functional options
// (pff.WithXxx(...)), mirroring teacher's constructor-options
// pattern.
type Options struct {
	EncryptionOverride pffprim.EncryptionOverride
	Recovery           RecoveryFlags
	Codepage           int
	CacheSize          int
	Context            context.Context
	Logger             *logrus.Logger
	Strict             bool

	recoveryRequested bool
}

// Option configures Options.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		EncryptionOverride: pffprim.EncryptionOverrideAuto,
		Codepage:           1252,
		CacheSize:          0, // Wrap's default
		Context:            context.Background(),
		Logger:             logrus.StandardLogger(),
	}
}

// WithEncryptionOverride bypasses the header-declared encryption mode
// (§6 "Encryption override").
func WithEncryptionOverride(o pffprim.EncryptionOverride) Option {
	return func(opts *Options) { opts.EncryptionOverride = o }
}

// WithRecovery enables Open's phase-2 recovery scan with the given
// flags. Recovery with flags == 0 still runs, scanning only the
// ranges the allocation table marks free.
func WithRecovery(flags RecoveryFlags) Option {
	return func(opts *Options) {
		opts.Recovery = flags
		opts.recoveryRequested = true
	}
}

// WithCodepage sets the initial access codepage (one of the 15
// recognized Windows ANSI codepages, §6).
func WithCodepage(cp int) Option {
	return func(opts *Options) { opts.Codepage = cp }
}

// WithCacheSize bounds the read cache's entry count (§5 "Caches are
// bounded per-subsystem").
func WithCacheSize(n int) Option {
	return func(opts *Options) { opts.CacheSize = n }
}

// WithContext supplies an externally-owned context.Context; its
// cancellation is observed the same way SignalAbort is (§5 "Abort").
func WithContext(ctx context.Context) Option {
	return func(opts *Options) { opts.Context = ctx }
}

// WithLogger injects a *logrus.Logger; every log line Open and its
// descendants emit is threaded through pfflog from this logger.
func WithLogger(l *logrus.Logger) Option {
	return func(opts *Options) { opts.Logger = l }
}

// WithStrict disables tolerant-CRC-mismatch handling: any corruption
// that would otherwise set the container's corrupted flag and return
// partial data instead becomes a hard CorruptedError.
func WithStrict(strict bool) Option {
	return func(opts *Options) { opts.Strict = strict }
}
