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

// Package accel defines the boundary between a sorting host program and a
// parallel compute accelerator.
//
// The boundary is deliberately small: a command queue that moves data between
// host slices and device buffers and runs compiled routines, plus the two
// routines a merge sort needs ("sort-block" and "merge-pair"). Device discovery,
// context creation and program compilation happen behind it.
//
// Basic usage:
//
//	dev := cpu.NewDevice[float32](cpu.Options{})
//	defer dev.Close()
//
//	q := dev.Queue()
//	buf, err := q.CreateBuffer(len(data))
//	if err != nil {
//	    return err
//	}
//	defer buf.Release()
//
//	if err := q.Write(ctx, buf, data); err != nil {
//	    return err
//	}
package accel

import (
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Element is a constraint for the numeric scalar types a device can sort.
type Element interface {
	constraints.Integer | constraints.Float
}

// Kind selects the element type of a sort.
type Kind int

const (
	// Float32 is single precision.
	Float32 Kind = iota

	// Float64 is double precision.
	Float64
)

// String returns the name used on the command line for the kind.
func (k Kind) String() string {
	switch k {
	case Float32:
		return "float"
	case Float64:
		return "double"
	default:
		return "unknown"
	}
}

// Size returns the element size in bytes.
func (k Kind) Size() int {
	switch k {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// ParseKind parses "float"/"float32" or "double"/"float64".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float", "float32", "single":
		return Float32, nil
	case "double", "float64":
		return Float64, nil
	}
	return 0, fmt.Errorf("accel: unknown element type %q (want float or double)", s)
}

// SizeOf returns the size in bytes of one element of type T.
func SizeOf[T Element]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
