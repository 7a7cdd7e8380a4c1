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

// Package mergesort sorts numeric arrays on an accelerator with a bottom-up
// merge sort.
//
// # Algorithm
//
// The sort runs in two phases, each a sequence of blocking dispatches on an
// accel.Queue:
//   - Leaf phase: the array is cut into windows of W elements (the
//     work-group size) and every window is sorted independently by the
//     "sort-block" routine. A trailing window holds length mod W elements.
//   - Merge phase: adjacent sorted runs of BlockSize elements are merged
//     pairwise by the "merge-pair" routine, one work-item per pair, and
//     BlockSize doubles until a single run spans the array.
//
// Each merge pass reads one device buffer and writes the other, and the roles
// swap every pass. A trailing run that has no partner in a pass is copied
// across unchanged and merged in a later pass. Arrays of any length are
// handled without padding; see Pass for the per-pass bookkeeping.
//
// # Verification
//
// Session.Verify downloads the result and compares it element by element
// against ReferenceSort, a host-only recursive merge sort that shares no code
// with the accelerated path.
//
// # Example Usage
//
//	dev := cpu.NewDevice[float32](cpu.Options{})
//	defer dev.Close()
//
//	s, err := mergesort.NewSession(dev.Queue(), dev.Program(), data, mergesort.Options{})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//	report, err := s.Verify(ctx)
package mergesort
