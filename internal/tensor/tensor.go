package tensor

import "fmt"

// Tensor is a dense row-major float32 tensor.
//
// Dims holds the extent of each axis, slowest-varying first. Data holds the
// flattened values. Tensor does not perform any memory safety beyond the
// checks performed by Go's slice types; out-of-range indices panic, the same
// contract callers of this package already accept for slices.
type Tensor struct {
	Dims []int
	Data []float32
}

// New allocates a zero-initialised tensor with the given dims.
func New(dims ...int) *Tensor {
	n := checkDims(dims)
	return &Tensor{
		Dims: append([]int(nil), dims...),
		Data: make([]float32, n),
	}
}

// FromData wraps existing data in a tensor. The data is referenced, not
// copied, so mutations are visible to the caller. The length must match the
// product of dims.
func FromData(data []float32, dims ...int) *Tensor {
	n := checkDims(dims)
	if n != len(data) {
		panic("data length mismatch")
	}
	return &Tensor{
		Dims: append([]int(nil), dims...),
		Data: data,
	}
}

func checkDims(dims []int) int {
	n := 1
	for _, d := range dims {
		if d < 0 {
			panic("negative dimension for tensor")
		}
		if d != 0 && n > int(^uint(0)>>1)/d {
			panic("tensor too large")
		}
		n *= d
	}
	return n
}

// Rank returns the number of axes.
func (t *Tensor) Rank() int { return len(t.Dims) }

// NumElems returns the total element count.
func (t *Tensor) NumElems() int {
	n := 1
	for _, d := range t.Dims {
		n *= d
	}
	return n
}

// Strides returns the row-major stride of each axis in elements.
func (t *Tensor) Strides() []int {
	s := make([]int, len(t.Dims))
	acc := 1
	for i := len(t.Dims) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= t.Dims[i]
	}
	return s
}

// Offset converts a multi-axis index into a flat offset into Data.
func (t *Tensor) Offset(idx ...int) int {
	if len(idx) != len(t.Dims) {
		panic("index rank mismatch")
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= t.Dims[i] {
			panic(fmt.Sprintf("index out of range: axis %d, %d not in [0,%d)", i, x, t.Dims[i]))
		}
		off = off*t.Dims[i] + x
	}
	return off
}

// At returns the element at the given multi-axis index.
func (t *Tensor) At(idx ...int) float32 { return t.Data[t.Offset(idx...)] }

// Set stores v at the given multi-axis index.
func (t *Tensor) Set(v float32, idx ...int) { t.Data[t.Offset(idx...)] = v }

// Reshape returns a view over the same data with new dims. The element count
// must be unchanged. Because the layout is row-major and contiguous, no data
// moves.
func (t *Tensor) Reshape(dims ...int) *Tensor {
	n := checkDims(dims)
	if n != len(t.Data) {
		panic("reshape element count mismatch")
	}
	return &Tensor{
		Dims: append([]int(nil), dims...),
		Data: t.Data,
	}
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	out := New(t.Dims...)
	copy(out.Data, t.Data)
	return out
}

// Equal reports whether two tensors have identical dims and bit-identical
// values.
func Equal(a, b *Tensor) bool {
	if len(a.Dims) != len(b.Dims) {
		return false
	}
	for i := range a.Dims {
		if a.Dims[i] != b.Dims[i] {
			return false
		}
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}
