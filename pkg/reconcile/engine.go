// Package reconcile makes a destination directory hold the same files as a
// source directory, using file content rather than names as identity.
//
// A run has three phases, always in this order:
//
//  1. Separate: every destination file is digested and looked up in the
//     source index. Files with no byte-identical source counterpart are
//     removed; exact matches (same name, same bytes) consume their source
//     file; content matches under another name are moved aside to a
//     pending name.
//  2. ResolveRenames: each pending file takes the name of the first
//     remaining byte-identical source file, or is removed when none is left.
//  3. CopyRemaining: every source file not consumed above is copied in.
//
// Copying runs last so files rescued by a rename are never copied again.
// The source is never modified.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/storage"
)

// PendingSuffix marks a destination file waiting for phase 2.
const PendingSuffix = "_for_rename"

// maxPendingAttempts bounds the numbered variants tried when the plain
// pending name is taken.
const maxPendingAttempts = 100

// Options configures a Synchronizer. Zero values select defaults.
type Options struct {
	// HashFunc builds the digest accumulator (default: SHA-256).
	HashFunc HashFunc

	// DigestBlockSize is the read size while hashing (default: 64 KiB).
	DigestBlockSize int

	// CompareChunkSize is the lockstep read size of the equality check
	// (default: 4 KiB).
	CompareChunkSize int

	// CopyChunkSize is the transfer size of phase 3 (default: 4 KiB).
	CopyChunkSize int

	// MaxBytesPerSecond caps the phase 3 copy rate (0 = unlimited).
	MaxBytesPerSecond int64

	// Metrics receives observations. nil disables metrics.
	Metrics Metrics
}

// Report summarizes one run.
type Report struct {
	RunID       string
	Source      string
	Destination string

	Matched int
	Renamed int
	Removed int
	Copied  int

	BytesCopied int64
	Duration    time.Duration
}

// String renders a one-line summary.
func (r *Report) String() string {
	return fmt.Sprintf("matched=%d renamed=%d removed=%d copied=%d bytes_copied=%d duration=%s",
		r.Matched, r.Renamed, r.Removed, r.Copied, r.BytesCopied, r.Duration.Round(time.Millisecond))
}

// Synchronizer runs reconciliations.
//
// A Synchronizer is not safe for concurrent use; run one Sync at a time.
type Synchronizer struct {
	digester *Digester
	comparer *Comparer
	copier   *Copier
	metrics  Metrics

	report *Report
}

// New returns a Synchronizer configured by opts.
func New(opts Options) *Synchronizer {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &Synchronizer{
		digester: NewDigester(opts.HashFunc, opts.DigestBlockSize),
		comparer: NewComparer(opts.CompareChunkSize),
		copier:   NewCopier(opts.CopyChunkSize).WithBandwidthLimit(opts.MaxBytesPerSecond),
		metrics:  metrics,
		report:   &Report{},
	}
}

// Report returns the counters of the current or last run.
func (s *Synchronizer) Report() *Report {
	return s.report
}

// Sync reconciles destination to match source.
//
// The source is wrapped read-only for the whole run. Any storage failure
// aborts the run immediately; changes already applied to the destination are
// kept. The returned report is valid even when err is non-nil.
func (s *Synchronizer) Sync(ctx context.Context, source, destination storage.Directory) (report *Report, err error) {
	start := time.Now()
	s.report = &Report{
		RunID:       uuid.NewString(),
		Source:      source.Name(),
		Destination: destination.Name(),
	}
	report = s.report
	source = storage.ReadOnly(source)

	defer func() {
		report.Duration = time.Since(start)
		s.metrics.ObserveSync(report.Duration, err)
		if err != nil {
			logger.Error("Sync %s failed after %s: %v", report.RunID, report.Duration, err)
			return
		}
		logger.Info("Sync %s done: %s", report.RunID, report)
	}()

	logger.Info("Sync %s: %s -> %s", report.RunID, report.Source, report.Destination)

	sourceFiles, err := source.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list source: %w", err)
	}
	destinationFiles, err := destination.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list destination: %w", err)
	}
	logger.Debug("Sync %s: %d source files, %d destination files",
		report.RunID, len(sourceFiles), len(destinationFiles))

	index := NewHashIndex()
	if len(sourceFiles) > 0 {
		phaseStart := time.Now()
		index, err = BuildIndex(ctx, s.digester, sourceFiles)
		s.metrics.ObservePhase("index", time.Since(phaseStart))
		if err != nil {
			return report, fmt.Errorf("index source: %w", err)
		}
	}

	pending := NewHashIndex()
	if len(destinationFiles) > 0 {
		if pending, err = s.Separate(ctx, index, destinationFiles); err != nil {
			return report, err
		}
	}

	if !pending.Empty() {
		if err := s.ResolveRenames(ctx, index, pending); err != nil {
			return report, err
		}
	}

	if err := s.CopyRemaining(ctx, index, destination); err != nil {
		return report, err
	}
	return report, nil
}

// Separate classifies every destination file against sourceIndex (phase 1)
// and returns the files moved aside to a pending name, keyed by digest.
//
// Exact matches are removed from sourceIndex. Content matches under another
// name leave sourceIndex untouched; ResolveRenames settles them.
func (s *Synchronizer) Separate(ctx context.Context, sourceIndex *HashIndex, destination []storage.File) (*HashIndex, error) {
	defer s.observePhase("separate", time.Now())

	reserved := make(map[string]struct{})
	for _, f := range sourceIndex.Files() {
		reserved[f.Name()] = struct{}{}
	}

	pending := NewHashIndex()
	for _, d := range destination {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		digest, err := s.digester.Digest(ctx, d)
		if err != nil {
			return nil, err
		}

		match, exact, err := s.findMatch(ctx, d, sourceIndex.Bucket(digest))
		if err != nil {
			return nil, err
		}

		switch {
		case match == nil:
			if err := s.remove(ctx, d); err != nil {
				return nil, err
			}

		case exact:
			sourceIndex.Remove(digest, match)
			s.report.Matched++
			s.metrics.RecordAction(ActionMatch)
			logger.Debug("Sync %s: %s unchanged", s.report.RunID, d.Name())

		default:
			original := d.Name()
			if err := s.moveAside(ctx, d, reserved); err != nil {
				return nil, err
			}
			pending.Add(digest, d)
			logger.Debug("Sync %s: %s matches %s [%s], pending as %s",
				s.report.RunID, original, match.Name(), digest.Short(), d.Name())
		}
	}
	return pending, nil
}

// findMatch scans bucket in order for a file byte-identical to d. A
// same-named identical file wins and stops the scan; otherwise the first
// identical file is returned with exact=false.
func (s *Synchronizer) findMatch(ctx context.Context, d storage.File, bucket []storage.File) (match storage.File, exact bool, err error) {
	for _, candidate := range bucket {
		equal, err := s.comparer.Equal(ctx, d, candidate)
		if err != nil {
			return nil, false, err
		}
		if !equal {
			continue
		}
		if d.Name() == candidate.Name() {
			return candidate, true, nil
		}
		if match == nil {
			match = candidate
		}
	}
	return match, false, nil
}

// moveAside renames f to its pending name. When that name is taken in the
// destination, numbered variants are tried. Names used by source files are
// skipped so that phase 2 and phase 3 never find their target occupied.
func (s *Synchronizer) moveAside(ctx context.Context, f storage.File, reserved map[string]struct{}) error {
	original := f.Name()

	for attempt := 0; attempt <= maxPendingAttempts; attempt++ {
		name := pendingName(original, attempt)
		if _, taken := reserved[name]; taken {
			continue
		}

		err := f.Rename(ctx, name)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrNameConflict) {
			return err
		}
		logger.Debug("Sync %s: pending name %s taken, trying next", s.report.RunID, name)
	}

	return fmt.Errorf("no free pending name for %s after %d attempts: %w",
		original, maxPendingAttempts+1, storage.ErrNameConflict)
}

// pendingName returns "<name>_for_rename" for attempt 0 and
// "<name>_for_rename.<attempt>" after that.
func pendingName(name string, attempt int) string {
	if attempt == 0 {
		return name + PendingSuffix
	}
	return fmt.Sprintf("%s%s.%d", name, PendingSuffix, attempt)
}

// ResolveRenames settles every pending file (phase 2): it takes the name of
// the first remaining byte-identical source file, which is then consumed, or
// it is removed.
func (s *Synchronizer) ResolveRenames(ctx context.Context, sourceIndex, pending *HashIndex) error {
	defer s.observePhase("resolve", time.Now())

	for _, digest := range pending.Digests() {
		for _, r := range pending.Bucket(digest) {
			if err := ctx.Err(); err != nil {
				return err
			}

			var match storage.File
			for _, candidate := range sourceIndex.Bucket(digest) {
				equal, err := s.comparer.Equal(ctx, r, candidate)
				if err != nil {
					return err
				}
				if equal {
					match = candidate
					break
				}
			}

			if match == nil {
				if err := s.remove(ctx, r); err != nil {
					return err
				}
				continue
			}

			from := r.Name()
			if err := r.Rename(ctx, match.Name()); err != nil {
				return err
			}
			sourceIndex.Remove(digest, match)
			s.report.Renamed++
			s.metrics.RecordAction(ActionRename)
			logger.Debug("Sync %s: renamed %s to %s", s.report.RunID, from, r.Name())
		}
	}
	return nil
}

// CopyRemaining copies every file still in sourceIndex into destination
// under the same name (phase 3). Copied files are removed from the index.
func (s *Synchronizer) CopyRemaining(ctx context.Context, sourceIndex *HashIndex, destination storage.Directory) error {
	defer s.observePhase("copy", time.Now())

	for _, digest := range sourceIndex.Digests() {
		for _, src := range sourceIndex.Bucket(digest) {
			if err := ctx.Err(); err != nil {
				return err
			}

			dst, err := destination.Create(ctx, src.Name())
			if err != nil {
				return fmt.Errorf("create %s: %w", src.Name(), err)
			}

			n, err := s.copier.Copy(ctx, src, dst)
			s.report.BytesCopied += n
			s.metrics.RecordBytesCopied(n)
			if err != nil {
				return err
			}

			sourceIndex.Remove(digest, src)
			s.report.Copied++
			s.metrics.RecordAction(ActionCopy)
			logger.Debug("Sync %s: copied %s (%d bytes)", s.report.RunID, src.Name(), n)
		}
	}
	return nil
}

func (s *Synchronizer) remove(ctx context.Context, f storage.File) error {
	if err := f.Remove(ctx); err != nil {
		return err
	}
	s.report.Removed++
	s.metrics.RecordAction(ActionRemove)
	logger.Debug("Sync %s: removed %s", s.report.RunID, f.Name())
	return nil
}

func (s *Synchronizer) observePhase(phase string, start time.Time) {
	s.metrics.ObservePhase(phase, time.Since(start))
}
