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
	"math"

	"github.com/ajroetker/go-accelsort/accel"
)

// ReferenceSort sorts data in place with a single-threaded recursive merge
// sort. It is the oracle Session.Verify checks the accelerator against.
func ReferenceSort[T accel.Element](data []T) {
	if len(data) > 1 {
		referenceSort(data, 0, len(data)-1, sentinel[T]())
	}
}

// referenceSort sorts the inclusive range data[start:end+1].
func referenceSort[T accel.Element](data []T, start, end int, inf T) {
	if start >= end {
		return
	}
	mid := start + (end-start)/2
	referenceSort(data, start, mid, inf)
	referenceSort(data, mid+1, end, inf)
	referenceMerge(data, start, mid, end, inf)
}

// referenceMerge merges the sorted ranges [start, mid] and [mid+1, end]. Each
// half is copied into scratch with one extra slot holding inf.
func referenceMerge[T accel.Element](data []T, start, mid, end int, inf T) {
	n1 := mid - start + 1
	n2 := end - mid
	left := make([]T, n1+1)
	right := make([]T, n2+1)
	copy(left, data[start:mid+1])
	copy(right, data[mid+1:end+1])
	left[n1] = inf
	right[n2] = inf

	i, j := 0, 0
	for k := start; k <= end; k++ {
		// i < n1 keeps an element equal to inf in right from losing to
		// left's sentinel.
		if i < n1 && left[i] <= right[j] {
			data[k] = left[i]
			i++
		} else {
			data[k] = right[j]
			j++
		}
	}
}

// sentinel returns a value no element of T exceeds: +Inf for floats and the
// maximum value for integers.
func sentinel[T accel.Element]() T {
	half := 0.5
	if T(half) != 0 {
		inf := math.Inf(1)
		return T(inf)
	}
	v := T(1)
	for v*2 > v {
		v *= 2
	}
	return v + (v - 1)
}
