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
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory is returned when a device cannot hold another buffer.
	ErrOutOfMemory = errors.New("device out of memory")

	// ErrReleased is returned when a released buffer is used.
	ErrReleased = errors.New("buffer already released")

	// ErrOutOfRange is returned when a transfer or a work-item would touch
	// elements outside a buffer.
	ErrOutOfRange = errors.New("access out of buffer range")

	// ErrUnknownKernel is returned when a dispatch names a kernel the device
	// did not compile, or passes arguments the kernel does not accept.
	ErrUnknownKernel = errors.New("unknown kernel")

	// ErrInvalidRange is returned for malformed NDRange launches.
	ErrInvalidRange = errors.New("invalid ND range")

	// ErrInvalidSize is returned when a buffer of fewer than one element is
	// requested.
	ErrInvalidSize = errors.New("invalid buffer size")

	// ErrInvalidBuffer is returned for nil buffers and buffers created by
	// another device.
	ErrInvalidBuffer = errors.New("invalid buffer")

	// ErrAliased is returned when a merge names the same buffer as source and
	// destination.
	ErrAliased = errors.New("source and destination buffers alias")
)

// AllocationError reports a failed device buffer creation.
type AllocationError struct {
	Elems int
	Bytes int
	Err   error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("accel: allocate %d elements (%d bytes): %v", e.Elems, e.Bytes, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// Direction of a host/device transfer.
type Direction int

const (
	HostToDevice Direction = iota
	DeviceToHost
	DeviceToDevice
)

func (d Direction) String() string {
	switch d {
	case HostToDevice:
		return "host->device"
	case DeviceToHost:
		return "device->host"
	case DeviceToDevice:
		return "device->device"
	default:
		return "unknown"
	}
}

// TransferError reports a failed upload, download or device copy.
type TransferError struct {
	Direction Direction
	Elems     int
	Err       error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("accel: transfer %s of %d elements: %v", e.Direction, e.Elems, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// DispatchError reports a kernel launch that could not be issued or did not
// complete.
type DispatchError struct {
	Kernel string
	Range  NDRange
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("accel: dispatch %s over %v: %v", e.Kernel, e.Range, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
