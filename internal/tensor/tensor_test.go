package tensor

import (
	"math"
	"testing"
)

func iotaTensor(dims ...int) *Tensor {
	t := New(dims...)
	for i := range t.Data {
		t.Data[i] = float32(i)
	}
	return t
}

func TestOffsetRowMajor(t *testing.T) {
	x := iotaTensor(2, 3, 4)
	if got := x.At(0, 0, 0); got != 0 {
		t.Fatalf("at(0,0,0): got %g", got)
	}
	if got := x.At(1, 2, 3); got != 23 {
		t.Fatalf("at(1,2,3): got %g", got)
	}
	if got := x.At(1, 0, 2); got != 14 {
		t.Fatalf("at(1,0,2): got %g", got)
	}

	s := x.Strides()
	if s[0] != 12 || s[1] != 4 || s[2] != 1 {
		t.Fatalf("strides: got %v", s)
	}
}

func TestReshapeSharesData(t *testing.T) {
	x := iotaTensor(2, 6)
	y := x.Reshape(3, 4)
	y.Set(99, 0, 0)
	if x.At(0, 0) != 99 {
		t.Fatalf("reshape did not alias data")
	}
	if x.Clone().At(0, 0) != 99 {
		t.Fatalf("clone lost value")
	}
}

func TestCropTakesLeadingRegion(t *testing.T) {
	x := iotaTensor(3, 4)
	got := Crop(x, 2, 2)
	want := []float32{0, 1, 4, 5}
	for i, w := range want {
		if got.Data[i] != w {
			t.Fatalf("crop[%d]: got %g want %g", i, got.Data[i], w)
		}
	}
}

func TestNarrowCopiesRange(t *testing.T) {
	x := iotaTensor(2, 4, 3)
	got := Narrow(x, 1, 1, 2)
	if got.Dims[0] != 2 || got.Dims[1] != 2 || got.Dims[2] != 3 {
		t.Fatalf("narrow dims: got %v", got.Dims)
	}
	// outer block 0: rows 1 and 2 of the source.
	want := []float32{3, 4, 5, 6, 7, 8}
	for i, w := range want {
		if got.Data[i] != w {
			t.Fatalf("narrow[%d]: got %g want %g", i, got.Data[i], w)
		}
	}
	// narrowing must not alias the source.
	got.Data[0] = -1
	if x.At(0, 1, 0) != 3 {
		t.Fatalf("narrow aliased source data")
	}
}

func TestStrideAxisSamplesEveryStep(t *testing.T) {
	x := iotaTensor(6, 2)
	got := StrideAxis(x, 0, 2, 3)
	want := []float32{0, 1, 4, 5, 8, 9}
	for i, w := range want {
		if got.Data[i] != w {
			t.Fatalf("stride[%d]: got %g want %g", i, got.Data[i], w)
		}
	}
}

func TestConcatAlongMiddleAxis(t *testing.T) {
	a := iotaTensor(2, 1, 3)
	b := iotaTensor(2, 2, 3)
	got := Concat(1, a, b)
	if got.Dims[0] != 2 || got.Dims[1] != 3 || got.Dims[2] != 3 {
		t.Fatalf("concat dims: got %v", got.Dims)
	}
	// block 0 of the result is a's block 0 followed by b's block 0.
	want := []float32{0, 1, 2, 0, 1, 2, 3, 4, 5}
	for i, w := range want {
		if got.Data[i] != w {
			t.Fatalf("concat[%d]: got %g want %g", i, got.Data[i], w)
		}
	}
}

func TestOuterProduct(t *testing.T) {
	got := Outer([]float64{0, 1, 2}, []float64{0.5, 2})
	want := []float32{0, 0, 0.5, 2, 1, 4}
	for i, w := range want {
		if got.Data[i] != w {
			t.Fatalf("outer[%d]: got %g want %g", i, got.Data[i], w)
		}
	}
}

func TestNormalizeRMSUnitOutput(t *testing.T) {
	x := FromData([]float32{3, 4, 0.3, 0.4}, 2, 2)
	NormalizeRMS(x, 1e-6)
	for r := 0; r < 2; r++ {
		row := x.Data[r*2 : (r+1)*2]
		var sum float64
		for _, v := range row {
			sum += float64(v) * float64(v)
		}
		rms := math.Sqrt(sum / 2)
		if math.Abs(rms-1) > 1e-4 {
			t.Fatalf("row %d rms: got %g want 1", r, rms)
		}
	}
	// Both rows point the same way, so after rescaling they agree.
	if math.Abs(float64(x.Data[0]-x.Data[2])) > 1e-5 {
		t.Fatalf("scale invariance broken: %g vs %g", x.Data[0], x.Data[2])
	}
}

func TestNormalizeRMSZeroRowStaysFinite(t *testing.T) {
	x := New(1, 4)
	NormalizeRMS(x, 1e-6)
	for i, v := range x.Data {
		if v != 0 || math.IsNaN(float64(v)) {
			t.Fatalf("zero row [%d]: got %g", i, v)
		}
	}
}

func TestEqual(t *testing.T) {
	a := iotaTensor(2, 3)
	b := a.Clone()
	if !Equal(a, b) {
		t.Fatalf("clones should be equal")
	}
	b.Data[0] = 7
	if Equal(a, b) {
		t.Fatalf("mutated clone should differ")
	}
	if Equal(a, a.Reshape(3, 2)) {
		t.Fatalf("different dims should differ")
	}
}
