// Copyright 2025 go-accelsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mergesort

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/ajroetker/go-accelsort/accel"
)

const (
	// DefaultWorkGroupSize is the leaf window W: the number of elements one
	// work-group sorts in the leaf phase.
	DefaultWorkGroupSize = 256

	// DefaultMergeGroupSize is the number of merge work-items per
	// work-group.
	DefaultMergeGroupSize = 16

	// maxReportedMismatches bounds Report.String output.
	maxReportedMismatches = 10
)

var (
	// ErrEmpty is returned by NewSession for an empty input.
	ErrEmpty = errors.New("mergesort: input must hold at least one element")

	// ErrNotRun is returned by Verify and Download before a successful Run.
	ErrNotRun = errors.New("mergesort: session has no result; call Run first")

	// ErrClosed is returned by every method of a closed session.
	ErrClosed = errors.New("mergesort: session closed")
)

// Options configures a Session. The zero value selects the defaults.
type Options struct {
	// WorkGroupSize is the leaf window W. If <= 0, DefaultWorkGroupSize.
	WorkGroupSize int

	// MergeGroupSize is the merge work-group size. If <= 0,
	// DefaultMergeGroupSize.
	MergeGroupSize int

	// Logger receives per-phase debug records. If nil, logging is
	// discarded.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.WorkGroupSize <= 0 {
		o.WorkGroupSize = DefaultWorkGroupSize
	}
	if o.MergeGroupSize <= 0 {
		o.MergeGroupSize = DefaultMergeGroupSize
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Session sorts one array on one queue. It owns a copy of the input, two
// device buffers of the input's length, and the downloaded output.
//
// A Session is not safe for concurrent use; independent sessions may share a
// queue.
type Session[T accel.Element] struct {
	q      accel.Queue[T]
	eng    engine[T]
	log    *slog.Logger
	input  []T
	output []T

	a, b   accel.Buffer
	result accel.Buffer
	passes []Pass
	closed bool
}

// NewSession copies input and allocates both device buffers. Allocation
// failures are returned as *accel.AllocationError and leave nothing
// allocated.
func NewSession[T accel.Element](q accel.Queue[T], prog accel.Program, input []T, opts Options) (*Session[T], error) {
	if len(input) < 1 {
		return nil, ErrEmpty
	}
	if q == nil || prog.SortBlock == nil || prog.Merge == nil {
		return nil, errors.New("mergesort: queue and both kernels are required")
	}
	opts = opts.withDefaults()

	a, err := q.CreateBuffer(len(input))
	if err != nil {
		return nil, fmt.Errorf("mergesort: buffer A: %w", err)
	}
	b, err := q.CreateBuffer(len(input))
	if err != nil {
		_ = a.Release()
		return nil, fmt.Errorf("mergesort: buffer B: %w", err)
	}

	log := opts.Logger.With("length", len(input))
	return &Session[T]{
		q: q,
		eng: engine[T]{
			q:     q,
			prog:  prog,
			w:     opts.WorkGroupSize,
			group: opts.MergeGroupSize,
			log:   log,
		},
		log:   log,
		input: slices.Clone(input),
		a:     a,
		b:     b,
	}, nil
}

// Len returns the number of elements being sorted.
func (s *Session[T]) Len() int {
	return len(s.input)
}

// Input returns the session's copy of the input. It is never modified.
func (s *Session[T]) Input() []T {
	return s.input
}

// Run uploads the input to buffer A, runs the leaf phase and every merge
// pass, and records the buffer holding the sorted array. The first failed
// transfer or dispatch aborts the run and is returned; the session then has
// no result.
func (s *Session[T]) Run(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	s.result, s.passes, s.output = nil, nil, nil

	if err := s.q.Write(ctx, s.a, s.input); err != nil {
		return fmt.Errorf("mergesort: upload: %w", err)
	}
	if err := s.eng.sortBlocks(ctx, s.a, len(s.input)); err != nil {
		return fmt.Errorf("mergesort: %w", err)
	}
	result, passes, err := s.eng.mergeBlocks(ctx, s.a, s.b, len(s.input))
	if err != nil {
		return fmt.Errorf("mergesort: %w", err)
	}

	s.result, s.passes = result, passes
	s.log.Info("sort complete", "passes", len(passes), "result", s.resultName())
	return nil
}

// Passes returns the merge passes of the last successful Run.
func (s *Session[T]) Passes() []Pass {
	return s.passes
}

func (s *Session[T]) resultName() string {
	switch s.result {
	case s.a:
		return "A"
	case s.b:
		return "B"
	default:
		return "none"
	}
}

// Download copies the result buffer of the last Run to host memory and
// returns it.
func (s *Session[T]) Download(ctx context.Context) ([]T, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.result == nil {
		return nil, ErrNotRun
	}
	out := make([]T, len(s.input))
	if err := s.q.Read(ctx, out, s.result); err != nil {
		return nil, fmt.Errorf("mergesort: download: %w", err)
	}
	s.output = out
	return out, nil
}

// Output returns the array fetched by the last Download or Verify, or nil.
func (s *Session[T]) Output() []T {
	return s.output
}

// Verify downloads the result and compares it with ReferenceSort applied to
// a copy of the input. Differences are reported in the Report, not as an
// error; errors are reserved for failed transfers and misuse.
func (s *Session[T]) Verify(ctx context.Context) (Report[T], error) {
	got, err := s.Download(ctx)
	if err != nil {
		return Report[T]{}, err
	}

	want := slices.Clone(s.input)
	ReferenceSort(want)

	report := Report[T]{Length: len(want)}
	for i := range want {
		if want[i] != got[i] {
			report.Mismatches = append(report.Mismatches, Mismatch[T]{Index: i, Expected: want[i], Actual: got[i]})
		}
	}
	if !report.Match() {
		s.log.Warn("verification failed", "mismatches", len(report.Mismatches))
	}
	return report, nil
}

// Close releases both device buffers. Calling Close more than once is safe.
func (s *Session[T]) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.result = nil
	return errors.Join(s.a.Release(), s.b.Release())
}

// Mismatch is one position where the accelerator disagrees with the oracle.
type Mismatch[T accel.Element] struct {
	Index    int
	Expected T
	Actual   T
}

// Report is the outcome of Verify.
type Report[T accel.Element] struct {
	Length     int
	Mismatches []Mismatch[T]
}

// Match reports whether the accelerator output equals the oracle output.
func (r Report[T]) Match() bool {
	return len(r.Mismatches) == 0
}

func (r Report[T]) String() string {
	if r.Match() {
		return fmt.Sprintf("match (%d elements)", r.Length)
	}
	shown := lo.Map(r.Mismatches[:min(len(r.Mismatches), maxReportedMismatches)], func(m Mismatch[T], _ int) string {
		return fmt.Sprintf("[%d] expected %v, got %v", m.Index, m.Expected, m.Actual)
	})
	s := fmt.Sprintf("%d of %d elements mismatched: %s", len(r.Mismatches), r.Length, strings.Join(shown, "; "))
	if len(r.Mismatches) > maxReportedMismatches {
		s += "; ..."
	}
	return s
}
