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
	"fmt"
	"log/slog"

	"github.com/ajroetker/go-accelsort/accel"
)

// engine drives the leaf and merge dispatches of one sort. It holds no
// buffers between calls.
type engine[T accel.Element] struct {
	q     accel.Queue[T]
	prog  accel.Program
	w     int
	group int
	log   *slog.Logger
}

// mergeBlocks runs merge passes over runs of e.w sorted elements until one
// run spans length elements. a holds the leaf-sorted array and b is scratch.
// It returns the buffer holding the result and the passes it ran.
func (e *engine[T]) mergeBlocks(ctx context.Context, a, b accel.Buffer, length int) (accel.Buffer, []Pass, error) {
	if length <= e.w {
		return a, nil, nil
	}

	// Roles are stored swapped; every pass swaps them before dispatching.
	in, out := b, a
	var passes []Pass
	for p := NewPass(length, e.w); p.PairCount > 0; p = NewPass(length, p.BlockSize<<1) {
		in, out = out, in
		if err := ctx.Err(); err != nil {
			return nil, passes, err
		}

		args := accel.MergeArgs{
			Src:           in,
			Dst:           out,
			BlockSize:     p.BlockSize,
			TailBlockSize: p.TailBlockSize,
			PairCount:     p.PairCount,
		}
		if err := e.q.Dispatch(ctx, e.prog.Merge, p.Range(e.group), args); err != nil {
			return nil, passes, fmt.Errorf("merge pass %d (%v): %w", len(passes)+1, p, err)
		}
		if p.CarryLen > 0 {
			if err := e.q.Copy(ctx, out, in, p.CarryOffset, p.CarryLen); err != nil {
				return nil, passes, fmt.Errorf("merge pass %d carry: %w", len(passes)+1, err)
			}
		}

		passes = append(passes, p)
		e.log.Debug("merge pass", "pass", len(passes), "block", p.BlockSize, "pairs", p.PairCount,
			"tail", p.TailBlockSize, "carry", p.CarryLen)
	}
	return out, passes, nil
}
