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

// Package cpu implements an accel device on the host CPU.
//
// Work-groups of a dispatch run in parallel on a persistent worker pool, one
// group per compute unit at a time; the work-items of a group run in order on
// the same goroutine. Buffers live in ordinary Go memory but are only
// reachable through the Queue, so host code observes the same upload,
// dispatch and download discipline a discrete accelerator imposes.
//
// # Example
//
//	dev := cpu.NewDevice[float64](cpu.Options{Workers: 4})
//	defer dev.Close()
//
//	q, prog := dev.Queue(), dev.Program()
//	buf, _ := q.CreateBuffer(len(data))
//	_ = q.Write(ctx, buf, data)
//	_ = q.Dispatch(ctx, prog.SortBlock, accel.NDRange{Global: 512, Local: 256},
//	    accel.SortBlockArgs{Data: buf, FinalBlockLen: 256})
package cpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ajroetker/go-accelsort/accel"
	"github.com/ajroetker/go-accelsort/accel/workerpool"
)

// BlockSort selects the routine the "sort-block" kernel uses inside a
// work-group.
type BlockSort int

const (
	// RankSort is the parallel insertion sort: each work-item counts the
	// elements that precede its own and writes it straight to that rank.
	RankSort BlockSort = iota

	// InsertionSort runs one sequential insertion sort per work-group.
	InsertionSort
)

func (b BlockSort) String() string {
	switch b {
	case RankSort:
		return "rank"
	case InsertionSort:
		return "insertion"
	default:
		return "unknown"
	}
}

// Options configures a host device. The zero value is usable.
type Options struct {
	// Workers is the number of compute units. If <= 0, accel.ComputeUnits().
	Workers int

	// MemoryLimit caps the bytes of live buffers. 0 means unlimited.
	MemoryLimit int64

	// BlockSort selects the in-group sort of the "sort-block" kernel.
	BlockSort BlockSort
}

// Device is a host-emulated accelerator for element type T.
type Device[T accel.Element] struct {
	opts  Options
	pool  *workerpool.Pool
	queue *Queue[T]

	mu   sync.Mutex
	used int64
}

// NewDevice creates a device and starts its compute units.
func NewDevice[T accel.Element](opts Options) *Device[T] {
	if opts.Workers <= 0 {
		opts.Workers = accel.ComputeUnits()
	}
	d := &Device[T]{
		opts: opts,
		pool: workerpool.New(opts.Workers),
	}
	d.queue = &Queue[T]{dev: d}
	return d
}

// Name identifies the device, e.g. "host-avx2".
func (d *Device[T]) Name() string {
	return "host-" + accel.CurrentLevel().String()
}

// ComputeUnits returns the number of work-groups that run concurrently.
func (d *Device[T]) ComputeUnits() int {
	return d.pool.NumWorkers()
}

// Queue returns the device's command queue.
func (d *Device[T]) Queue() *Queue[T] {
	return d.queue
}

// Program returns the compiled "sort-block" and "merge-pair" routines.
func (d *Device[T]) Program() accel.Program {
	return accel.Program{
		SortBlock: &kernel[T]{name: accel.SortBlockKernel, dev: d},
		Merge:     &kernel[T]{name: accel.MergeKernel, dev: d},
	}
}

// MemoryInUse returns the bytes held by live buffers.
func (d *Device[T]) MemoryInUse() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.used
}

// Close stops the compute units. Commands issued afterwards still complete,
// on the calling goroutine.
func (d *Device[T]) Close() {
	d.pool.Close()
}

func (d *Device[T]) reserve(bytes int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.MemoryLimit > 0 && d.used+bytes > d.opts.MemoryLimit {
		return fmt.Errorf("%w: %d of %d bytes in use", accel.ErrOutOfMemory, d.used, d.opts.MemoryLimit)
	}
	d.used += bytes
	return nil
}

func (d *Device[T]) unreserve(bytes int64) {
	d.mu.Lock()
	d.used -= bytes
	d.mu.Unlock()
}

// buffer is the device-side storage behind an accel.Buffer.
type buffer[T accel.Element] struct {
	dev      *Device[T]
	data     []T
	bytes    int64
	released atomic.Bool
}

func (b *buffer[T]) Len() int {
	return len(b.data)
}

func (b *buffer[T]) Release() error {
	if b.released.Swap(true) {
		return nil
	}
	b.dev.unreserve(b.bytes)
	return nil
}

// resolve returns the storage of buf if it is a live buffer of this device.
func (d *Device[T]) resolve(buf accel.Buffer) ([]T, error) {
	b, ok := buf.(*buffer[T])
	if !ok || b == nil || b.dev != d {
		return nil, accel.ErrInvalidBuffer
	}
	if b.released.Load() {
		return nil, accel.ErrReleased
	}
	return b.data, nil
}

// kernel is a routine compiled for one device.
type kernel[T accel.Element] struct {
	name string
	dev  *Device[T]
}

func (k *kernel[T]) Name() string {
	return k.name
}
