package unanet

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/unanetx/internal/shared"
)

// FetchFunc retrieves the record with the given id.
type FetchFunc func(ctx context.Context, id int) (Record, error)

// ScanOpts bounds a [Scanner]. At least one of Stop and MaxMisses must be positive.
type ScanOpts struct {
	Start       int  // First id
	Stop        int  // Last id, inclusive; zero for no upper bound
	MaxMisses   int  // Consecutive misses that end the scan; zero to disable
	MissOnError bool // Count errors other than not found as misses instead of stopping
}

// Scanner walks sequential ids until the id passes Stop or MaxMisses consecutive misses occur.
//
// A miss is a not found response, an empty record, or, with MissOnError, any other failure. Every hit
// resets the miss counter.
//
//	sc, _ := NewScanner(client.Invoice, ScanOpts{Start: 1, MaxMisses: 100})
//	for sc.Next(ctx) {
//		rows = append(rows, sc.Record())
//	}
//	if err := sc.Err(); err != nil { ... }
type Scanner struct {
	fetch  FetchFunc
	opts   ScanOpts
	next   int
	misses int
	id     int
	rec    Record
	err    error
	done   bool
}

// NewScanner creates a [Scanner] positioned before opts.Start.
func NewScanner(fetch FetchFunc, opts ScanOpts) (*Scanner, error) {
	if fetch == nil {
		return nil, fmt.Errorf("%w: fetch function", shared.ErrMissingArgument)
	}
	if opts.Stop <= 0 && opts.MaxMisses <= 0 {
		return nil, fmt.Errorf("%w: scan needs a stop id or a miss limit", shared.ErrInvalidArgument)
	}
	if opts.Stop > 0 && opts.Stop < opts.Start {
		return nil, fmt.Errorf("%w: stop %d is before start %d", shared.ErrInvalidArgument, opts.Stop, opts.Start)
	}
	return &Scanner{fetch: fetch, opts: opts, next: opts.Start}, nil
}

// Next advances to the next record, returning false when the scan is over.
func (s *Scanner) Next(ctx context.Context) bool {
	s.rec = nil
	for !s.done {
		if err := ctx.Err(); err != nil {
			s.stop(err)
			break
		}
		if s.opts.Stop > 0 && s.next > s.opts.Stop {
			s.done = true
			break
		}
		if s.opts.MaxMisses > 0 && s.misses >= s.opts.MaxMisses {
			s.done = true
			break
		}

		s.id = s.next
		s.next++

		rec, err := s.fetch(ctx, s.id)
		switch {
		case err == nil && len(rec) > 0:
			s.misses = 0
			s.rec = rec
			return true
		case err == nil, errors.Is(err, shared.ErrNotFound):
			s.misses++
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			s.stop(err)
		case s.opts.MissOnError:
			s.misses++
		default:
			s.stop(fmt.Errorf("id %d: %w", s.id, err))
		}
	}
	return false
}

func (s *Scanner) stop(err error) {
	s.err = err
	s.done = true
}

// Record returns the record found by the last successful call to [Scanner.Next].
func (s *Scanner) Record() Record {
	return s.rec
}

// ID returns the id most recently requested.
func (s *Scanner) ID() int {
	return s.id
}

// Misses returns the current number of consecutive misses.
func (s *Scanner) Misses() int {
	return s.misses
}

// Err returns the error that stopped the scan, if any. Running out of ids or misses is not an error.
func (s *Scanner) Err() error {
	return s.err
}
