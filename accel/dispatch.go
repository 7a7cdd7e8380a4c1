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
	"os"
	"runtime"
	"strconv"
)

// HostLevel describes the vector capability of the host CPU. The host device
// reports it as part of its name; it does not change sorting results.
type HostLevel int

const (
	// HostScalar indicates no detected vector extension.
	HostScalar HostLevel = iota

	// HostSSE2 indicates the x86-64 baseline.
	HostSSE2

	// HostAVX2 indicates 256-bit AVX2.
	HostAVX2

	// HostAVX512 indicates AVX-512F.
	HostAVX512

	// HostNEON indicates ARM Advanced SIMD.
	HostNEON

	// HostSVE indicates ARM SVE.
	HostSVE
)

// String returns a human-readable name for the level.
func (l HostLevel) String() string {
	switch l {
	case HostScalar:
		return "scalar"
	case HostSSE2:
		return "sse2"
	case HostAVX2:
		return "avx2"
	case HostAVX512:
		return "avx512"
	case HostNEON:
		return "neon"
	case HostSVE:
		return "sve"
	default:
		return "unknown"
	}
}

// currentLevel is set by init() in dispatch_*.go files.
var currentLevel HostLevel

// CurrentLevel returns the detected host vector level.
func CurrentLevel() HostLevel {
	return currentLevel
}

// ComputeUnits returns how many work-groups the host device runs at once.
// It is GOMAXPROCS unless ACCEL_NO_PARALLEL is set.
func ComputeUnits() int {
	if NoParallelEnv() {
		return 1
	}
	return runtime.GOMAXPROCS(0)
}

// NoParallelEnv checks if the ACCEL_NO_PARALLEL environment variable is set.
// When set, the host device executes work-groups one at a time, which is
// useful when debugging a kernel.
func NoParallelEnv() bool {
	val := os.Getenv("ACCEL_NO_PARALLEL")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}
