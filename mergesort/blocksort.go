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

	"github.com/ajroetker/go-accelsort/accel"
)

// sortBlocks runs the leaf phase: every window of e.w elements of buf is
// sorted in place by one work-group. Windows stay unordered relative to each
// other; when length <= e.w the single window is the whole array.
func (e *engine[T]) sortBlocks(ctx context.Context, buf accel.Buffer, length int) error {
	nd, final := LeafRange(length, e.w)
	e.log.Debug("leaf phase", "groups", nd.Groups(), "window", e.w, "final", final)

	args := accel.SortBlockArgs{Data: buf, FinalBlockLen: final}
	if err := e.q.Dispatch(ctx, e.prog.SortBlock, nd, args); err != nil {
		return fmt.Errorf("leaf phase: %w", err)
	}
	return nil
}
