package posemb

import (
	"testing"

	"github.com/voxelflow/posemb/internal/cp"
	"github.com/voxelflow/posemb/internal/tensor"
)

func testGroup(t *testing.T, size, rank int) *cp.StaticGroup {
	t.Helper()
	ranks := make([]int, size)
	for i := range ranks {
		ranks[i] = i
	}
	g, err := cp.NewStaticGroup(ranks, rank)
	if err != nil {
		t.Fatalf("NewStaticGroup: %v", err)
	}
	return g
}

func TestCPAdapterPassthroughWithoutGroup(t *testing.T) {
	inner := newTestRope(t, Rope3DConfig{})
	shape := Shape{B: 1, T: 4, H: 2, W: 2}
	plain, err := inner.Generate(shape, nil)
	if err != nil {
		t.Fatalf("inner generate: %v", err)
	}
	for _, a := range []*CPAdapter{
		WithContextParallel(inner, nil),
		WithContextParallel(inner, testGroup(t, 1, 0)),
	} {
		got, err := a.Generate(shape, nil)
		if err != nil {
			t.Fatalf("adapter generate: %v", err)
		}
		if !tensor.Equal(got, plain) {
			t.Fatalf("single-rank adapter changed the output")
		}
	}
}

func TestCPAdapterShardsRotarySequence(t *testing.T) {
	inner := newTestRope(t, Rope3DConfig{})
	local := Shape{B: 1, T: 2, H: 2, W: 3}
	global, err := inner.Generate(Shape{B: 1, T: 4, H: 2, W: 3}, nil)
	if err != nil {
		t.Fatalf("global generate: %v", err)
	}
	frame := 2 * 3 * global.Dims[1] * 4 // elements per temporal frame

	for rank := 0; rank < 2; rank++ {
		a := WithContextParallel(inner, testGroup(t, 2, rank))
		shard, err := a.Generate(local, nil)
		if err != nil {
			t.Fatalf("rank %d generate: %v", rank, err)
		}
		if shard.Dims[0] != 2*2*3 {
			t.Fatalf("rank %d shard dims: got %v", rank, shard.Dims)
		}
		base := rank * 2 * frame
		for i := range shard.Data {
			if shard.Data[i] != global.Data[base+i] {
				t.Fatalf("rank %d shard differs from global block at %d", rank, i)
			}
		}
	}
}

func TestCPAdapterShardsAdditiveTimeAxis(t *testing.T) {
	inner := newTestAxis(t, AxisConfig{})
	local := Shape{B: 2, T: 2, H: 2, W: 2}
	global, err := inner.Generate(Shape{B: 2, T: 4, H: 2, W: 2}, nil)
	if err != nil {
		t.Fatalf("global generate: %v", err)
	}

	shards := make([]*tensor.Tensor, 2)
	for rank := 0; rank < 2; rank++ {
		a := WithContextParallel(inner, testGroup(t, 2, rank))
		shard, err := a.Generate(local, nil)
		if err != nil {
			t.Fatalf("rank %d generate: %v", rank, err)
		}
		wantDims := []int{2, 2, 2, 2, 96}
		for i, d := range wantDims {
			if shard.Dims[i] != d {
				t.Fatalf("rank %d dims: got %v want %v", rank, shard.Dims, wantDims)
			}
		}
		shards[rank] = shard
	}
	// the shards reassemble into the global embedding.
	if !tensor.Equal(tensor.Concat(1, shards...), global) {
		t.Fatalf("shards do not reassemble into the global embedding")
	}
}

func TestCPAdapterRespectsViewBoundaries(t *testing.T) {
	inner, err := NewRopeMultiCam(RopeMultiCamConfig{
		Rope3DConfig: Rope3DConfig{HeadDim: 96, LenH: 8, LenW: 8, LenT: 8},
		Views:        2,
	})
	if err != nil {
		t.Fatalf("NewRopeMultiCam: %v", err)
	}
	opts := &GenerateOptions{FPS: []float64{24}}
	// local T folds 2 views x 2 frames; global T folds 2 views x 4 frames.
	local := Shape{B: 1, T: 4, H: 2, W: 2}
	global, err := inner.Generate(Shape{B: 1, T: 8, H: 2, W: 2}, opts)
	if err != nil {
		t.Fatalf("global generate: %v", err)
	}
	frame := 2 * 2 * global.Dims[1] * 4
	globalPerView := 4 * frame

	for rank := 0; rank < 2; rank++ {
		a := WithContextParallel(inner, testGroup(t, 2, rank))
		shard, err := a.Generate(local, opts)
		if err != nil {
			t.Fatalf("rank %d generate: %v", rank, err)
		}
		if shard.Dims[0] != 4*2*2 {
			t.Fatalf("rank %d dims: got %v", rank, shard.Dims)
		}
		// view v of the shard is frames [rank*2, rank*2+2) of view v of
		// the global sequence, never a block cut across views.
		chunk := 2 * frame
		for v := 0; v < 2; v++ {
			seg := shard.Data[v*chunk : (v+1)*chunk]
			want := global.Data[v*globalPerView+rank*chunk:]
			for i := range seg {
				if seg[i] != want[i] {
					t.Fatalf("rank %d view %d differs at %d", rank, v, i)
				}
			}
		}
	}
}

func TestCPAdapterShardsMultiCamAdditive(t *testing.T) {
	inner, err := NewSinCosAxisMultiCam(SinCosAxisMultiCamConfig{
		AxisConfig: AxisConfig{ModelChannels: 96, LenH: 8, LenW: 8, LenT: 8},
		Views:      2,
	})
	if err != nil {
		t.Fatalf("NewSinCosAxisMultiCam: %v", err)
	}
	local := Shape{B: 1, T: 4, H: 2, W: 2}
	global, err := inner.Generate(Shape{B: 1, T: 8, H: 2, W: 2}, nil)
	if err != nil {
		t.Fatalf("global generate: %v", err)
	}
	a := WithContextParallel(inner, testGroup(t, 2, 1))
	shard, err := a.Generate(local, nil)
	if err != nil {
		t.Fatalf("sharded generate: %v", err)
	}
	if shard.Dims[1] != 4 {
		t.Fatalf("shard time extent: got %v", shard.Dims)
	}
	// rank 1 holds frames [2,4) of each view's 4-frame global segment.
	for v := 0; v < 2; v++ {
		for f := 0; f < 2; f++ {
			gOff := global.Offset(0, v*4+2+f, 0, 0, 0)
			sOff := shard.Offset(0, v*2+f, 0, 0, 0)
			row := 2 * 2 * 96
			for i := 0; i < row; i++ {
				if shard.Data[sOff+i] != global.Data[gOff+i] {
					t.Fatalf("view %d frame %d differs at %d", v, f, i)
				}
			}
		}
	}
}
