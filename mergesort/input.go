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
	"math/rand/v2"

	"github.com/samber/lo"

	"github.com/ajroetker/go-accelsort/accel"
)

// RandomMax bounds the values RandomInput produces.
const RandomMax = 10000

// RandomInput returns n whole numbers drawn uniformly from [0, RandomMax)
// with a generator seeded by seed.
func RandomInput[T accel.Element](n int, seed uint64) []T {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return lo.Times(n, func(int) T {
		return T(rng.IntN(RandomMax))
	})
}

// SortedInput returns 0, 1, ..., n-1.
func SortedInput[T accel.Element](n int) []T {
	return lo.Times(n, func(i int) T { return T(i) })
}

// ReversedInput returns n-1, n-2, ..., 0.
func ReversedInput[T accel.Element](n int) []T {
	return lo.Times(n, func(i int) T { return T(n - 1 - i) })
}
