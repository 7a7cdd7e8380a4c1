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
	"fmt"

	"github.com/ajroetker/go-accelsort/accel"
)

// sortBlock is the "sort-block" routine. Work-group g sorts
// data[g*Local : g*Local+Local] in place; the last group sorts FinalBlockLen
// elements and its remaining work-items are idle.
func (d *Device[T]) sortBlock(nd accel.NDRange, a accel.SortBlockArgs) error {
	data, err := d.resolve(a.Data)
	if err != nil {
		return err
	}
	local, groups := nd.Local, nd.Groups()
	if a.FinalBlockLen < 1 || a.FinalBlockLen > local {
		return fmt.Errorf("%w: final block of %d with work-group size %d", accel.ErrInvalidRange, a.FinalBlockLen, local)
	}
	if end := (groups-1)*local + a.FinalBlockLen; end > len(data) {
		return fmt.Errorf("%w: last work-group ends at %d, buffer holds %d", accel.ErrOutOfRange, end, len(data))
	}

	return d.pool.RunGroups(groups, func(g int) error {
		n := local
		if g == groups-1 {
			n = a.FinalBlockLen
		}
		block := data[g*local : g*local+n]
		switch d.opts.BlockSort {
		case InsertionSort:
			insertionSort(block)
		default:
			rankSort(block)
		}
		return nil
	})
}

// rankSort emulates one work-group of the parallel insertion sort. Work-item i
// finds the final position of block[i] by counting the elements that are
// smaller, or equal and earlier, writes it to group-local memory, and after
// the barrier the group copies local memory back.
func rankSort[T accel.Element](block []T) {
	local := make([]T, len(block))
	for i, v := range block {
		pos := 0
		for j, w := range block {
			if w < v || (w == v && j < i) {
				pos++
			}
		}
		local[pos] = v
	}
	copy(block, local)
}

func insertionSort[T accel.Element](data []T) {
	for i := 1; i < len(data); i++ {
		key := data[i]
		j := i - 1
		for j >= 0 && data[j] > key {
			data[j+1] = data[j]
			j--
		}
		data[j+1] = key
	}
}

// mergePairs is the "merge-pair" routine. Work-item i merges the two adjacent
// sorted runs starting at i*2*BlockSize of Src into the same range of Dst.
func (d *Device[T]) mergePairs(nd accel.NDRange, a accel.MergeArgs) error {
	src, err := d.resolve(a.Src)
	if err != nil {
		return err
	}
	dst, err := d.resolve(a.Dst)
	if err != nil {
		return err
	}
	if a.Src == a.Dst {
		return accel.ErrAliased
	}
	if a.BlockSize < 1 || a.TailBlockSize < 0 || a.TailBlockSize > a.BlockSize || a.PairCount < 0 {
		return fmt.Errorf("%w: block=%d tail=%d pairs=%d", accel.ErrInvalidRange, a.BlockSize, a.TailBlockSize, a.PairCount)
	}
	if nd.Global < a.PairCount {
		return fmt.Errorf("%w: %d work-items for %d pairs", accel.ErrInvalidRange, nd.Global, a.PairCount)
	}

	span := 2 * a.BlockSize
	return d.pool.RunGroups(nd.Groups(), func(g int) error {
		for l := range nd.Local {
			gid := g*nd.Local + l
			if gid >= a.PairCount {
				return nil
			}
			lo := gid * span
			mid := lo + a.BlockSize
			hi := mid + a.BlockSize
			if gid == a.PairCount-1 {
				hi = mid + a.TailBlockSize
			}
			if hi > len(src) || hi > len(dst) {
				return fmt.Errorf("%w: work-item %d touches [%d,%d) of %d elements", accel.ErrOutOfRange, gid, lo, hi, min(len(src), len(dst)))
			}
			mergeRuns(dst[lo:hi], src[lo:mid], src[mid:hi])
		}
		return nil
	})
}

// mergeRuns writes the two-pointer merge of sorted runs left and right to out.
// Equal elements are taken from left first.
func mergeRuns[T accel.Element](out, left, right []T) {
	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		if left[i] <= right[j] {
			out[k] = left[i]
			i++
		} else {
			out[k] = right[j]
			j++
		}
		k++
	}
	k += copy(out[k:], left[i:])
	copy(out[k:], right[j:])
}
