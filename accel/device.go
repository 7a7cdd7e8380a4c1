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

package accel

import (
	"context"
	"fmt"
)

// Names of the compiled routines a Program carries.
const (
	SortBlockKernel = "sort-block"
	MergeKernel     = "merge-pair"
)

// NDRange describes a one-dimensional launch: Global work-items split into
// work-groups of Local items each.
type NDRange struct {
	Global int
	Local  int
}

// Groups returns the number of work-groups in the launch.
func (r NDRange) Groups() int {
	if r.Local <= 0 {
		return 0
	}
	return r.Global / r.Local
}

// Validate checks that Global is a positive multiple of Local.
func (r NDRange) Validate() error {
	if r.Local <= 0 || r.Global <= 0 || r.Global%r.Local != 0 {
		return fmt.Errorf("%w: global=%d local=%d", ErrInvalidRange, r.Global, r.Local)
	}
	return nil
}

func (r NDRange) String() string {
	return fmt.Sprintf("[%d/%d]", r.Global, r.Local)
}

// RoundUp returns n rounded up to a multiple of group.
func RoundUp(n, group int) int {
	return (n + group - 1) / group * group
}

// Buffer is an opaque device-resident array.
type Buffer interface {
	// Len returns the number of elements the buffer holds.
	Len() int

	// Release frees the device storage. Releasing twice is a no-op.
	Release() error
}

// Kernel is a compiled device routine.
type Kernel interface {
	Name() string
}

// Program holds the two compiled routines the merge sort drives.
type Program struct {
	SortBlock Kernel
	Merge     Kernel
}

// Args is the argument list of one kernel launch. It is implemented by
// SortBlockArgs and MergeArgs only.
type Args interface {
	kernelArgs()
}

// SortBlockArgs are the arguments of the "sort-block" routine. Every work-group
// sorts Local consecutive elements of Data in place; the last group sorts
// FinalBlockLen elements.
type SortBlockArgs struct {
	Data          Buffer
	FinalBlockLen int
}

func (SortBlockArgs) kernelArgs() {}

// MergeArgs are the arguments of the "merge-pair" routine. Work-item i merges
// the runs Src[i*2*BlockSize : i*2*BlockSize+BlockSize] and the run that
// follows it into the same range of Dst. The second run of the last pair
// (i == PairCount-1) has TailBlockSize elements. Work-items with
// i >= PairCount do nothing.
type MergeArgs struct {
	Src           Buffer
	Dst           Buffer
	BlockSize     int
	TailBlockSize int
	PairCount     int
}

func (MergeArgs) kernelArgs() {}

// Queue is a command queue bound to one device. Every method blocks until the
// device has finished the command.
type Queue[T Element] interface {
	// CreateBuffer allocates a read/write buffer of n elements. Failures are
	// reported as *AllocationError.
	CreateBuffer(n int) (Buffer, error)

	// Write uploads src into the start of dst. Failures are *TransferError.
	Write(ctx context.Context, dst Buffer, src []T) error

	// Read downloads the start of src into dst. Failures are *TransferError.
	Read(ctx context.Context, dst []T, src Buffer) error

	// Copy copies n elements starting at offset from src to the same offset
	// of dst. Failures are *TransferError.
	Copy(ctx context.Context, dst, src Buffer, offset, n int) error

	// Dispatch runs kernel over nd and waits for every work-group to
	// complete. Failures are *DispatchError.
	Dispatch(ctx context.Context, kernel Kernel, nd NDRange, args Args) error
}
