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
	"context"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ajroetker/go-accelsort/accel"
)

func upload[T accel.Element](t *testing.T, d *Device[T], data []T) accel.Buffer {
	t.Helper()
	buf, err := d.Queue().CreateBuffer(len(data))
	if err != nil {
		t.Fatalf("CreateBuffer(%d): %v", len(data), err)
	}
	t.Cleanup(func() { _ = buf.Release() })
	if err := d.Queue().Write(context.Background(), buf, data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf
}

func download[T accel.Element](t *testing.T, d *Device[T], buf accel.Buffer) []T {
	t.Helper()
	out := make([]T, buf.Len())
	if err := d.Queue().Read(context.Background(), out, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	return out
}

func TestDeviceName(t *testing.T) {
	d := NewDevice[float32](Options{Workers: 2})
	defer d.Close()

	if got, want := d.Name(), "host-"+accel.CurrentLevel().String(); got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}
	if d.ComputeUnits() != 2 {
		t.Errorf("ComputeUnits() = %d, want 2", d.ComputeUnits())
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	d := NewDevice[float64](Options{Workers: 4})
	defer d.Close()

	for _, n := range []int{1, 7, 256, parallelCopyThreshold + 3} {
		data := make([]float64, n)
		for i := range data {
			data[i] = rand.Float64()
		}
		buf := upload(t, d, data)
		if diff := cmp.Diff(data, download(t, d, buf)); diff != "" {
			t.Errorf("n=%d: round trip mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestSortBlock(t *testing.T) {
	for _, variant := range []BlockSort{RankSort, InsertionSort} {
		t.Run(variant.String(), func(t *testing.T) {
			d := NewDevice[int32](Options{Workers: 3, BlockSort: variant})
			defer d.Close()

			const local = 16
			for _, n := range []int{1, 5, 16, 17, 40, 64} {
				data := make([]int32, n)
				for i := range data {
					data[i] = rand.Int31n(20) - 10
				}
				buf := upload(t, d, data)

				final := n % local
				if final == 0 {
					final = local
				}
				nd := accel.NDRange{Global: accel.RoundUp(n, local), Local: local}
				err := d.Queue().Dispatch(context.Background(), d.Program().SortBlock, nd,
					accel.SortBlockArgs{Data: buf, FinalBlockLen: final})
				if err != nil {
					t.Fatalf("n=%d: Dispatch: %v", n, err)
				}

				got := download(t, d, buf)
				for start := 0; start < n; start += local {
					end := min(start+local, n)
					want := slices.Clone(data[start:end])
					slices.Sort(want)
					if diff := cmp.Diff(want, got[start:end]); diff != "" {
						t.Errorf("n=%d block at %d (-want +got):\n%s", n, start, diff)
					}
				}
			}
		})
	}
}

func TestSortBlockOutOfRange(t *testing.T) {
	d := NewDevice[float32](Options{})
	defer d.Close()

	buf := upload(t, d, make([]float32, 20))
	nd := accel.NDRange{Global: 32, Local: 16}
	err := d.Queue().Dispatch(context.Background(), d.Program().SortBlock, nd,
		accel.SortBlockArgs{Data: buf, FinalBlockLen: 16})

	var de *accel.DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("Dispatch error = %v, want *DispatchError", err)
	}
	if de.Kernel != accel.SortBlockKernel || !errors.Is(err, accel.ErrOutOfRange) {
		t.Errorf("Dispatch error = %v, want sort-block out of range", err)
	}
}

func TestMergePairs(t *testing.T) {
	d := NewDevice[float32](Options{Workers: 4})
	defer d.Close()

	// Runs of 4: [1 3 5 7][0 2 4 6] [2 2 9 9][1 8] and the tail pair has 2.
	src := []float32{1, 3, 5, 7, 0, 2, 4, 6, 2, 2, 9, 9, 1, 8}
	in := upload(t, d, src)
	out := upload(t, d, make([]float32, len(src)))

	nd := accel.NDRange{Global: 16, Local: 16}
	args := accel.MergeArgs{Src: in, Dst: out, BlockSize: 4, TailBlockSize: 2, PairCount: 2}
	if err := d.Queue().Dispatch(context.Background(), d.Program().Merge, nd, args); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	want := []float32{0, 1, 2, 3, 4, 5, 6, 7, 1, 2, 2, 8, 9, 9}
	if diff := cmp.Diff(want, download(t, d, out)); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMergePairsIdleWorkItems(t *testing.T) {
	d := NewDevice[int64](Options{Workers: 2})
	defer d.Close()

	src := []int64{4, 5, 1, 2}
	in := upload(t, d, src)
	out := upload(t, d, make([]int64, len(src)))

	// 32 work-items for a single pair; all but one must stay idle.
	nd := accel.NDRange{Global: 32, Local: 16}
	args := accel.MergeArgs{Src: in, Dst: out, BlockSize: 2, TailBlockSize: 2, PairCount: 1}
	if err := d.Queue().Dispatch(context.Background(), d.Program().Merge, nd, args); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if diff := cmp.Diff([]int64{1, 2, 4, 5}, download(t, d, out)); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMergePairsErrors(t *testing.T) {
	d := NewDevice[float32](Options{})
	defer d.Close()
	ctx := context.Background()

	in := upload(t, d, make([]float32, 8))
	out := upload(t, d, make([]float32, 8))
	merge := d.Program().Merge
	nd := accel.NDRange{Global: 16, Local: 16}

	tests := []struct {
		name string
		args accel.MergeArgs
		want error
	}{
		{"aliased", accel.MergeArgs{Src: in, Dst: in, BlockSize: 4, TailBlockSize: 4, PairCount: 1}, accel.ErrAliased},
		{"past end", accel.MergeArgs{Src: in, Dst: out, BlockSize: 4, TailBlockSize: 4, PairCount: 2}, accel.ErrOutOfRange},
		{"tail too large", accel.MergeArgs{Src: in, Dst: out, BlockSize: 2, TailBlockSize: 3, PairCount: 1}, accel.ErrInvalidRange},
		{"zero block size", accel.MergeArgs{Src: in, Dst: out, BlockSize: 0, TailBlockSize: 0, PairCount: 1}, accel.ErrInvalidRange},
		{"too few work-items", accel.MergeArgs{Src: in, Dst: out, BlockSize: 1, TailBlockSize: 1, PairCount: 17}, accel.ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Queue().Dispatch(ctx, merge, nd, tt.args)
			if !errors.Is(err, tt.want) {
				t.Errorf("Dispatch error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDispatchKernelMismatch(t *testing.T) {
	d := NewDevice[float32](Options{})
	defer d.Close()
	other := NewDevice[float32](Options{})
	defer other.Close()

	buf := upload(t, d, make([]float32, 4))
	nd := accel.NDRange{Global: 4, Local: 4}
	ctx := context.Background()

	if err := d.Queue().Dispatch(ctx, d.Program().Merge, nd, accel.SortBlockArgs{Data: buf, FinalBlockLen: 4}); !errors.Is(err, accel.ErrUnknownKernel) {
		t.Errorf("merge with sort-block args: %v, want ErrUnknownKernel", err)
	}
	if err := d.Queue().Dispatch(ctx, other.Program().SortBlock, nd, accel.SortBlockArgs{Data: buf, FinalBlockLen: 4}); !errors.Is(err, accel.ErrUnknownKernel) {
		t.Errorf("foreign kernel: %v, want ErrUnknownKernel", err)
	}
	if err := other.Queue().Write(ctx, buf, []float32{1}); !errors.Is(err, accel.ErrInvalidBuffer) {
		t.Errorf("foreign buffer: %v, want ErrInvalidBuffer", err)
	}
	if err := d.Queue().Dispatch(ctx, d.Program().SortBlock, accel.NDRange{Global: 5, Local: 4}, accel.SortBlockArgs{Data: buf, FinalBlockLen: 1}); !errors.Is(err, accel.ErrInvalidRange) {
		t.Errorf("ragged range: %v, want ErrInvalidRange", err)
	}
}

func TestMemoryLimit(t *testing.T) {
	d := NewDevice[float64](Options{MemoryLimit: 100 * 8})
	defer d.Close()
	q := d.Queue()

	a, err := q.CreateBuffer(60)
	if err != nil {
		t.Fatalf("CreateBuffer(60): %v", err)
	}
	if d.MemoryInUse() != 480 {
		t.Errorf("MemoryInUse() = %d, want 480", d.MemoryInUse())
	}

	_, err = q.CreateBuffer(60)
	var ae *accel.AllocationError
	if !errors.As(err, &ae) || !errors.Is(err, accel.ErrOutOfMemory) {
		t.Fatalf("second CreateBuffer error = %v, want AllocationError(ErrOutOfMemory)", err)
	}
	if ae.Elems != 60 || ae.Bytes != 480 {
		t.Errorf("AllocationError = %+v", ae)
	}

	if err := a.Release(); err != nil {
		t.Fatal(err)
	}
	_ = a.Release()
	if d.MemoryInUse() != 0 {
		t.Errorf("MemoryInUse() after release = %d, want 0", d.MemoryInUse())
	}
	if err := q.Write(context.Background(), a, []float64{1}); !errors.Is(err, accel.ErrReleased) {
		t.Errorf("Write to released buffer: %v, want ErrReleased", err)
	}
	if _, err := q.CreateBuffer(0); !errors.Is(err, accel.ErrInvalidSize) {
		t.Errorf("CreateBuffer(0): %v, want ErrInvalidSize", err)
	}
}

func TestTransferErrors(t *testing.T) {
	d := NewDevice[int32](Options{})
	defer d.Close()
	q := d.Queue()

	a := upload(t, d, make([]int32, 4))
	b := upload(t, d, make([]int32, 4))

	var te *accel.TransferError
	err := q.Write(context.Background(), a, make([]int32, 5))
	if !errors.As(err, &te) || te.Direction != accel.HostToDevice || !errors.Is(err, accel.ErrOutOfRange) {
		t.Errorf("oversized Write: %v", err)
	}
	err = q.Read(context.Background(), make([]int32, 5), a)
	if !errors.As(err, &te) || te.Direction != accel.DeviceToHost {
		t.Errorf("oversized Read: %v", err)
	}
	err = q.Copy(context.Background(), b, a, 2, 3)
	if !errors.As(err, &te) || te.Direction != accel.DeviceToDevice {
		t.Errorf("Copy past end: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Write(ctx, a, []int32{1}); !errors.Is(err, context.Canceled) {
		t.Errorf("Write with canceled context: %v", err)
	}
}

func TestCopy(t *testing.T) {
	d := NewDevice[int32](Options{})
	defer d.Close()
	q := d.Queue()

	a := upload(t, d, []int32{1, 2, 3, 4, 5})
	b := upload(t, d, make([]int32, 5))
	if err := q.Copy(context.Background(), b, a, 3, 2); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if diff := cmp.Diff([]int32{0, 0, 0, 4, 5}, download(t, d, b)); diff != "" {
		t.Errorf("Copy mismatch (-want +got):\n%s", diff)
	}
}

func BenchmarkSortBlock(b *testing.B) {
	for _, variant := range []BlockSort{RankSort, InsertionSort} {
		b.Run(variant.String(), func(b *testing.B) {
			d := NewDevice[float32](Options{BlockSort: variant})
			defer d.Close()
			q := d.Queue()

			n := 1 << 14
			data := make([]float32, n)
			for i := range data {
				data[i] = rand.Float32()
			}
			buf, _ := q.CreateBuffer(n)
			defer buf.Release()

			nd := accel.NDRange{Global: n, Local: 256}
			ctx := context.Background()
			for b.Loop() {
				_ = q.Write(ctx, buf, data)
				_ = q.Dispatch(ctx, d.Program().SortBlock, nd, accel.SortBlockArgs{Data: buf, FinalBlockLen: 256})
			}
		})
	}
}
