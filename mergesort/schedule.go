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
	"fmt"

	"github.com/ajroetker/go-accelsort/accel"
)

// Pass describes one merge pass over an array of a fixed length.
type Pass struct {
	// BlockSize is the length of the sorted runs entering the pass.
	BlockSize int

	// MergeSpan is 2*BlockSize, the length of a merged pair.
	MergeSpan int

	// PairCount is the number of pairs merged, including a final partial
	// pair whose second run is shorter than BlockSize.
	PairCount int

	// TailBlockSize is the length of the second run of the last pair. It
	// equals BlockSize unless the last pair is partial.
	TailBlockSize int

	// CarryOffset and CarryLen locate the trailing run that has no partner
	// in this pass. It is copied unchanged to the output buffer. CarryLen is
	// zero when every element belongs to a pair.
	CarryOffset int
	CarryLen    int
}

// NewPass computes the pass that merges runs of blockSize elements of an
// array of length elements. A PairCount of zero means no pass is needed.
func NewPass(length, blockSize int) Pass {
	p := Pass{
		BlockSize:     blockSize,
		MergeSpan:     blockSize << 1,
		TailBlockSize: blockSize,
	}
	p.PairCount = length / p.MergeSpan
	residual := length - p.PairCount*p.MergeSpan
	if residual > blockSize {
		p.TailBlockSize = residual - blockSize
		p.PairCount++
	} else if p.PairCount > 0 && residual > 0 {
		p.CarryOffset = length - residual
		p.CarryLen = residual
	}
	return p
}

// End returns one past the last element written by the merge of the pass.
func (p Pass) End() int {
	if p.PairCount == 0 {
		return 0
	}
	return (p.PairCount-1)*p.MergeSpan + p.BlockSize + p.TailBlockSize
}

// Range returns the launch of the pass with work-groups of group work-items.
// Work-items beyond PairCount are idle.
func (p Pass) Range(group int) accel.NDRange {
	return accel.NDRange{Global: accel.RoundUp(p.PairCount, group), Local: group}
}

func (p Pass) String() string {
	s := fmt.Sprintf("block=%d span=%d pairs=%d tail=%d", p.BlockSize, p.MergeSpan, p.PairCount, p.TailBlockSize)
	if p.CarryLen > 0 {
		s += fmt.Sprintf(" carry=[%d,%d)", p.CarryOffset, p.CarryOffset+p.CarryLen)
	}
	return s
}

// Schedule returns every merge pass that sorting length elements with leaf
// windows of w elements runs, in order. It is empty when length <= w.
func Schedule(length, w int) []Pass {
	if length <= w {
		return nil
	}
	var passes []Pass
	for p := NewPass(length, w); p.PairCount > 0; p = NewPass(length, p.BlockSize<<1) {
		passes = append(passes, p)
	}
	return passes
}

// LeafRange returns the launch of the leaf phase for length elements and
// windows of w elements, and the length of the final window.
func LeafRange(length, w int) (nd accel.NDRange, finalBlockLen int) {
	finalBlockLen = length % w
	if finalBlockLen == 0 {
		finalBlockLen = w
	}
	groups := length / w
	if finalBlockLen != w {
		groups++
	}
	return accel.NDRange{Global: groups * w, Local: w}, finalBlockLen
}
