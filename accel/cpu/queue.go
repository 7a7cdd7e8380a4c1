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

package cpu

import (
	"context"
	"fmt"

	"github.com/ajroetker/go-accelsort/accel"
)

// parallelCopyThreshold is the transfer size, in elements, above which copies
// are split across compute units.
const parallelCopyThreshold = 1 << 16

// Queue is the in-order, blocking command queue of a Device.
type Queue[T accel.Element] struct {
	dev *Device[T]
}

var _ accel.Queue[float32] = (*Queue[float32])(nil)

// CreateBuffer allocates a read/write buffer of n elements.
func (q *Queue[T]) CreateBuffer(n int) (accel.Buffer, error) {
	bytes := int64(n) * int64(accel.SizeOf[T]())
	if n < 1 {
		return nil, &accel.AllocationError{Elems: n, Bytes: int(bytes), Err: accel.ErrInvalidSize}
	}
	if err := q.dev.reserve(bytes); err != nil {
		return nil, &accel.AllocationError{Elems: n, Bytes: int(bytes), Err: err}
	}
	return &buffer[T]{dev: q.dev, data: make([]T, n), bytes: bytes}, nil
}

// Write uploads src into the start of dst.
func (q *Queue[T]) Write(ctx context.Context, dst accel.Buffer, src []T) error {
	fail := func(err error) error {
		return &accel.TransferError{Direction: accel.HostToDevice, Elems: len(src), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	data, err := q.dev.resolve(dst)
	if err != nil {
		return fail(err)
	}
	if len(src) > len(data) {
		return fail(fmt.Errorf("%w: %d elements into buffer of %d", accel.ErrOutOfRange, len(src), len(data)))
	}
	q.copy(data, src)
	return nil
}

// Read downloads the start of src into dst.
func (q *Queue[T]) Read(ctx context.Context, dst []T, src accel.Buffer) error {
	fail := func(err error) error {
		return &accel.TransferError{Direction: accel.DeviceToHost, Elems: len(dst), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	data, err := q.dev.resolve(src)
	if err != nil {
		return fail(err)
	}
	if len(dst) > len(data) {
		return fail(fmt.Errorf("%w: %d elements from buffer of %d", accel.ErrOutOfRange, len(dst), len(data)))
	}
	q.copy(dst, data)
	return nil
}

// Copy copies src[offset:offset+n] to dst[offset:offset+n].
func (q *Queue[T]) Copy(ctx context.Context, dst, src accel.Buffer, offset, n int) error {
	fail := func(err error) error {
		return &accel.TransferError{Direction: accel.DeviceToDevice, Elems: n, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	to, err := q.dev.resolve(dst)
	if err != nil {
		return fail(err)
	}
	from, err := q.dev.resolve(src)
	if err != nil {
		return fail(err)
	}
	if offset < 0 || n < 0 || offset+n > len(to) || offset+n > len(from) {
		return fail(fmt.Errorf("%w: [%d,%d) of buffers %d/%d", accel.ErrOutOfRange, offset, offset+n, len(from), len(to)))
	}
	q.copy(to[offset:offset+n], from[offset:offset+n])
	return nil
}

// Dispatch runs kernel over nd and returns when every work-group is done.
func (q *Queue[T]) Dispatch(ctx context.Context, k accel.Kernel, nd accel.NDRange, args accel.Args) error {
	name := "<nil>"
	if k != nil {
		name = k.Name()
	}
	fail := func(err error) error {
		return &accel.DispatchError{Kernel: name, Range: nd, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := nd.Validate(); err != nil {
		return fail(err)
	}
	kk, ok := k.(*kernel[T])
	if !ok || kk.dev != q.dev {
		return fail(accel.ErrUnknownKernel)
	}

	var err error
	switch a := args.(type) {
	case accel.SortBlockArgs:
		if kk.name != accel.SortBlockKernel {
			return fail(fmt.Errorf("%w: %s does not take sort-block arguments", accel.ErrUnknownKernel, kk.name))
		}
		err = q.dev.sortBlock(nd, a)
	case accel.MergeArgs:
		if kk.name != accel.MergeKernel {
			return fail(fmt.Errorf("%w: %s does not take merge arguments", accel.ErrUnknownKernel, kk.name))
		}
		err = q.dev.mergePairs(nd, a)
	default:
		err = fmt.Errorf("%w: arguments %T", accel.ErrUnknownKernel, args)
	}
	if err != nil {
		return fail(err)
	}
	return nil
}

func (q *Queue[T]) copy(dst, src []T) {
	n := min(len(dst), len(src))
	if n < parallelCopyThreshold {
		copy(dst[:n], src[:n])
		return
	}
	q.dev.pool.ParallelFor(n, func(start, end int) {
		copy(dst[start:end], src[start:end])
	})
}
