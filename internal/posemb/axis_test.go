package posemb

import (
	"errors"
	"math"
	"testing"

	"github.com/voxelflow/posemb/internal/tensor"
)

func newTestAxis(t *testing.T, cfg AxisConfig) *SinCosAxis {
	t.Helper()
	if cfg.ModelChannels == 0 {
		cfg.ModelChannels = 96
	}
	if cfg.LenH == 0 {
		cfg.LenH = 8
	}
	if cfg.LenW == 0 {
		cfg.LenW = 8
	}
	if cfg.LenT == 0 {
		cfg.LenT = 8
	}
	e, err := NewSinCosAxis(cfg)
	if err != nil {
		t.Fatalf("NewSinCosAxis: %v", err)
	}
	return e
}

func TestSinCosAxisChannelLayout(t *testing.T) {
	e := newTestAxis(t, AxisConfig{})
	out, err := e.Generate(Shape{B: 2, T: 3, H: 4, W: 5}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	wantDims := []int{2, 3, 4, 5, 96}
	for i, d := range wantDims {
		if out.Dims[i] != d {
			t.Fatalf("dims: got %v want %v", out.Dims, wantDims)
		}
	}

	// channels are temporal | height | width slices of the per-axis
	// tables; cross-check one cell against SinCos1D directly.
	dimT, dimH := 32, 32
	embT, _ := SinCos1D(dimT, arange(8))
	embH, _ := SinCos1D(dimH, arange(8))
	embW, _ := SinCos1D(dimH, arange(8))
	tIdx, hIdx, wIdx := 2, 1, 3
	off := out.Offset(1, tIdx, hIdx, wIdx, 0)
	cell := out.Data[off : off+96]
	for i := 0; i < dimT; i++ {
		if cell[i] != embT.Data[tIdx*dimT+i] {
			t.Fatalf("temporal channel %d mismatch", i)
		}
	}
	for i := 0; i < dimH; i++ {
		if cell[dimT+i] != embH.Data[hIdx*dimH+i] {
			t.Fatalf("height channel %d mismatch", i)
		}
		if cell[dimT+dimH+i] != embW.Data[wIdx*dimH+i] {
			t.Fatalf("width channel %d mismatch", i)
		}
	}

	// the batch axis replicates.
	for i := 0; i < out.NumElems()/2; i++ {
		if out.Data[i] != out.Data[out.NumElems()/2+i] {
			t.Fatalf("batch items differ at %d", i)
		}
	}
}

func TestSinCosAxisBatchedCrop(t *testing.T) {
	e := newTestAxis(t, AxisConfig{ModelChannels: 72, LenH: 4, LenW: 4, LenT: 4})
	out, err := e.Generate(Shape{B: 2, T: 2, H: 2, W: 2}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	wantDims := []int{2, 2, 2, 2, 72}
	for i, d := range wantDims {
		if out.Dims[i] != d {
			t.Fatalf("dims: got %v want %v", out.Dims, wantDims)
		}
	}
	// 72 channels split 24|24|24 across t|h|w; each range is the cropped
	// per-axis table row.
	dimT, dimH := 24, 24
	embT, _ := SinCos1D(dimT, arange(4))
	embH, _ := SinCos1D(dimH, arange(4))
	off := out.Offset(1, 1, 0, 1, 0)
	cell := out.Data[off : off+72]
	for i := 0; i < dimT; i++ {
		if cell[i] != embT.Data[1*dimT+i] {
			t.Fatalf("temporal channel %d mismatch", i)
		}
	}
	for i := 0; i < dimH; i++ {
		if cell[dimT+i] != embH.Data[0*dimH+i] {
			t.Fatalf("height channel %d mismatch", i)
		}
		if cell[dimT+dimH+i] != embH.Data[1*dimH+i] {
			t.Fatalf("width channel %d mismatch", i)
		}
	}
}

func TestSinCosAxisExtrapolationRescalesPositions(t *testing.T) {
	plain := newTestAxis(t, AxisConfig{})
	stretched := newTestAxis(t, AxisConfig{TExtrapolation: 2})

	a, err := plain.Generate(Shape{B: 1, T: 2, H: 1, W: 1}, nil)
	if err != nil {
		t.Fatalf("plain: %v", err)
	}
	b, err := stretched.Generate(Shape{B: 1, T: 4, H: 1, W: 1}, nil)
	if err != nil {
		t.Fatalf("stretched: %v", err)
	}
	// doubling the extrapolation ratio halves the effective position, so
	// frame 2 of the stretched table matches frame 1 of the plain one on
	// the temporal channels.
	dimT := 32
	offA := a.Offset(0, 1, 0, 0, 0)
	offB := b.Offset(0, 2, 0, 0, 0)
	for i := 0; i < dimT; i++ {
		if math.Abs(float64(a.Data[offA+i]-b.Data[offB+i])) > 1e-6 {
			t.Fatalf("temporal channel %d: %g vs %g", i, a.Data[offA+i], b.Data[offB+i])
		}
	}
}

func TestSinCosAxisErrors(t *testing.T) {
	if _, err := NewSinCosAxis(AxisConfig{ModelChannels: 96, LenH: 4, LenW: 4, LenT: 4, Interpolation: InterpResize}); !errors.Is(err, ErrUnknownInterpolation) {
		t.Fatalf("resize policy: got %v", err)
	}
	if _, err := NewSinCosAxis(AxisConfig{ModelChannels: 10, LenH: 4, LenW: 4, LenT: 4}); !errors.Is(err, ErrBadDimSplit) {
		t.Fatalf("bad channel split: got %v", err)
	}
	e := newTestAxis(t, AxisConfig{LenT: 4})
	if _, err := e.Generate(Shape{B: 1, T: 5, H: 2, W: 2}, nil); !errors.Is(err, ErrShapeBounds) {
		t.Fatalf("T beyond table: got %v", err)
	}
}

func TestLearnableAxisSumAndNormalize(t *testing.T) {
	c := 6
	tables := AxisTables{
		H: tensor.New(4, c),
		W: tensor.New(4, c),
		T: tensor.New(4, c),
	}
	for i := range tables.H.Data {
		tables.H.Data[i] = 1
	}
	for i := range tables.W.Data {
		tables.W.Data[i] = 2
	}
	for i := range tables.T.Data {
		tables.T.Data[i] = 3
	}
	e, err := NewLearnableAxis(LearnableAxisConfig{ModelChannels: c, LenH: 4, LenW: 4, LenT: 4}, tables)
	if err != nil {
		t.Fatalf("NewLearnableAxis: %v", err)
	}
	out, err := e.Generate(Shape{B: 1, T: 2, H: 2, W: 2}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// every channel vector is the constant 6, which normalizes to 1.
	for i, v := range out.Data {
		if math.Abs(float64(v)-1) > 1e-4 {
			t.Fatalf("normalized value at %d: got %g want 1", i, v)
		}
	}
}

func TestLearnableAxisZeroTablesAllocated(t *testing.T) {
	e, err := NewLearnableAxis(LearnableAxisConfig{ModelChannels: 4, LenH: 2, LenW: 2, LenT: 2}, AxisTables{})
	if err != nil {
		t.Fatalf("NewLearnableAxis: %v", err)
	}
	tabs := e.Tables()
	if tabs.H == nil || tabs.W == nil || tabs.T == nil {
		t.Fatalf("nil tables not allocated")
	}
	out, err := e.Generate(Shape{B: 1, T: 1, H: 1, W: 1}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i, v := range out.Data {
		if v != 0 {
			t.Fatalf("zero tables produced %g at %d", v, i)
		}
	}
}

func TestLearnableAxisSeesTableMutations(t *testing.T) {
	e, err := NewLearnableAxis(LearnableAxisConfig{ModelChannels: 4, LenH: 2, LenW: 2, LenT: 2}, AxisTables{})
	if err != nil {
		t.Fatalf("NewLearnableAxis: %v", err)
	}
	before, _ := e.Generate(Shape{B: 1, T: 1, H: 1, W: 1}, nil)
	e.Tables().T.Data[0] = 5
	after, err := e.Generate(Shape{B: 1, T: 1, H: 1, W: 1}, nil)
	if err != nil {
		t.Fatalf("Generate after mutation: %v", err)
	}
	if tensor.Equal(before, after) {
		t.Fatalf("optimizer update invisible to the generator")
	}
}

func TestLearnableAxisDimValidation(t *testing.T) {
	bad := AxisTables{H: tensor.New(3, 4)}
	if _, err := NewLearnableAxis(LearnableAxisConfig{ModelChannels: 4, LenH: 2, LenW: 2, LenT: 2}, bad); err == nil {
		t.Fatalf("expected dim mismatch error")
	}
	if _, err := NewLearnableAxis(LearnableAxisConfig{ModelChannels: 4, LenH: 2, LenW: 2, LenT: 2, Interpolation: InterpResize}, AxisTables{}); !errors.Is(err, ErrUnknownInterpolation) {
		t.Fatalf("resize policy: got %v", err)
	}
}
