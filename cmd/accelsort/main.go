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

// Command accelsort sorts random arrays on the host accelerator and checks the
// result against the reference merge sort.
//
// Usage:
//
//	accelsort -type double -n 1023
//	accelsort -type float -n 1000000 -sessions 4 -v
//	accelsort -n 20 -dump
//
// It exits with status 1 if any run fails or any verification reports a
// mismatch.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-accelsort/accel"
	"github.com/ajroetker/go-accelsort/accel/cpu"
	"github.com/ajroetker/go-accelsort/mergesort"
)

var (
	elemType   = flag.String("type", "double", "Element type: float or double")
	length     = flag.Int("n", 1023, "Number of elements to sort")
	seed       = flag.Uint64("seed", 1, "Seed of the random input; session i uses seed+i")
	sessions   = flag.Int("sessions", 1, "Number of independent sessions sorting concurrently")
	workers    = flag.Int("workers", 0, "Compute units of the host device (default: GOMAXPROCS)")
	workGroup  = flag.Int("wg", mergesort.DefaultWorkGroupSize, "Leaf work-group size W")
	mergeGroup = flag.Int("mg", mergesort.DefaultMergeGroupSize, "Merge work-group size")
	blockSort  = flag.String("blocksort", "rank", "In-group leaf sort: rank or insertion")
	memLimit   = flag.Int64("mem", 0, "Device memory limit in bytes (0: unlimited)")
	dump       = flag.Bool("dump", false, "Print input, reference and accelerator arrays")
	verbose    = flag.Bool("v", false, "Log every dispatch")
)

// config is the parsed command line.
type config struct {
	kind     accel.Kind
	length   int
	seed     uint64
	sessions int
	device   cpu.Options
	opts     mergesort.Options
	dump     bool
	logger   *slog.Logger
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := parseConfig(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cfg.kind {
	case accel.Float32:
		err = run[float32](ctx, cfg)
	default:
		err = run[float64](ctx, cfg)
	}
	if err != nil {
		logger.Error("sort failed", "err", err)
		os.Exit(1)
	}
}

func parseConfig(logger *slog.Logger) (config, error) {
	kind, err := accel.ParseKind(*elemType)
	if err != nil {
		return config{}, err
	}
	if *length < 1 {
		return config{}, fmt.Errorf("-n must be positive, got %d", *length)
	}
	if *sessions < 1 {
		return config{}, fmt.Errorf("-sessions must be positive, got %d", *sessions)
	}
	var bs cpu.BlockSort
	switch *blockSort {
	case "rank":
		bs = cpu.RankSort
	case "insertion":
		bs = cpu.InsertionSort
	default:
		return config{}, fmt.Errorf("unknown -blocksort %q", *blockSort)
	}
	return config{
		kind:     kind,
		length:   *length,
		seed:     *seed,
		sessions: *sessions,
		device:   cpu.Options{Workers: *workers, MemoryLimit: *memLimit, BlockSort: bs},
		opts:     mergesort.Options{WorkGroupSize: *workGroup, MergeGroupSize: *mergeGroup, Logger: logger},
		dump:     *dump,
		logger:   logger,
	}, nil
}

// run sorts cfg.sessions arrays of type T concurrently on one device.
func run[T accel.Element](ctx context.Context, cfg config) error {
	dev := cpu.NewDevice[T](cfg.device)
	defer dev.Close()
	cfg.logger.Info("device ready", "device", dev.Name(), "units", dev.ComputeUnits(),
		"type", cfg.kind, "length", cfg.length, "sessions", cfg.sessions)

	g, ctx := errgroup.WithContext(ctx)
	for i := range cfg.sessions {
		g.Go(func() error {
			opts := cfg.opts
			opts.Logger = cfg.logger.With("session", i)
			return sortOnce(ctx, dev, mergesort.RandomInput[T](cfg.length, cfg.seed+uint64(i)), opts, cfg.dump)
		})
	}
	return g.Wait()
}

func sortOnce[T accel.Element](ctx context.Context, dev *cpu.Device[T], input []T, opts mergesort.Options, dump bool) error {
	s, err := mergesort.NewSession(dev.Queue(), dev.Program(), input, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Run(ctx); err != nil {
		return err
	}
	report, err := s.Verify(ctx)
	if err != nil {
		return err
	}

	if dump {
		want := append([]T(nil), s.Input()...)
		mergesort.ReferenceSort(want)
		fmt.Printf("input:       %v\nreference:   %v\naccelerator: %v\n", s.Input(), want, s.Output())
	}
	if !report.Match() {
		return fmt.Errorf("verification: %v", report)
	}
	opts.Logger.Info("verified", "result", report)
	return nil
}
