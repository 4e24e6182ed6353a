package tensor

import "math"

// Outer computes the outer product of pos and freqs: out[i][j] =
// pos[i]*freqs[j]. The product is carried out in float64 so that large
// position indices do not lose low frequencies to rounding before the
// trigonometric step.
func Outer(pos, freqs []float64) *Tensor {
	out := New(len(pos), len(freqs))
	for i, p := range pos {
		row := out.Data[i*len(freqs) : (i+1)*len(freqs)]
		for j, f := range freqs {
			row[j] = float32(p * f)
		}
	}
	return out
}

// Crop returns a copy of the leading sub-tensor with the given extents.
// Every extent must satisfy 0 <= dims[i] <= t.Dims[i]; pass t.Dims[i] for
// axes that keep their full extent.
func Crop(t *Tensor, dims ...int) *Tensor {
	if len(dims) != len(t.Dims) {
		panic("crop rank mismatch")
	}
	for i, d := range dims {
		if d < 0 || d > t.Dims[i] {
			panic("crop extent out of range")
		}
	}
	out := New(dims...)
	srcStrides := t.Strides()
	copyRegion(out.Data, t.Data, dims, srcStrides, 0, 0, out.Strides())
	return out
}

func copyRegion(dst, src []float32, dims, srcStrides []int, srcOff, dstOff int, dstStrides []int) {
	if len(dims) == 1 {
		copy(dst[dstOff:dstOff+dims[0]], src[srcOff:srcOff+dims[0]])
		return
	}
	for i := 0; i < dims[0]; i++ {
		copyRegion(dst, src, dims[1:], srcStrides[1:], srcOff+i*srcStrides[0], dstOff+i*dstStrides[0], dstStrides[1:])
	}
}

// Narrow returns a copy of the slice [start, start+length) along the given
// axis, with all other axes kept whole.
func Narrow(t *Tensor, axis, start, length int) *Tensor {
	if axis < 0 || axis >= len(t.Dims) {
		panic("narrow axis out of range")
	}
	if start < 0 || length < 0 || start+length > t.Dims[axis] {
		panic("narrow range out of bounds")
	}
	outer := 1
	for i := 0; i < axis; i++ {
		outer *= t.Dims[i]
	}
	inner := 1
	for i := axis + 1; i < len(t.Dims); i++ {
		inner *= t.Dims[i]
	}
	dims := append([]int(nil), t.Dims...)
	dims[axis] = length
	out := New(dims...)
	srcRow := t.Dims[axis] * inner
	dstRow := length * inner
	for o := 0; o < outer; o++ {
		src := t.Data[o*srcRow+start*inner : o*srcRow+(start+length)*inner]
		copy(out.Data[o*dstRow:(o+1)*dstRow], src)
	}
	return out
}

// StrideAxis returns a copy holding count entries taken every step-th
// position along the given axis, starting at index 0. It is the strided-crop
// primitive behind the fps-bucketed tables: higher frame rates sample the
// stored table more densely.
func StrideAxis(t *Tensor, axis, step, count int) *Tensor {
	if axis < 0 || axis >= len(t.Dims) {
		panic("stride axis out of range")
	}
	if step <= 0 || count < 0 {
		panic("invalid stride parameters")
	}
	if count > 0 && (count-1)*step >= t.Dims[axis] {
		panic("strided range exceeds axis extent")
	}
	outer := 1
	for i := 0; i < axis; i++ {
		outer *= t.Dims[i]
	}
	inner := 1
	for i := axis + 1; i < len(t.Dims); i++ {
		inner *= t.Dims[i]
	}
	dims := append([]int(nil), t.Dims...)
	dims[axis] = count
	out := New(dims...)
	srcRow := t.Dims[axis] * inner
	dstRow := count * inner
	for o := 0; o < outer; o++ {
		for k := 0; k < count; k++ {
			src := t.Data[o*srcRow+k*step*inner : o*srcRow+(k*step+1)*inner]
			copy(out.Data[o*dstRow+k*inner:o*dstRow+(k+1)*inner], src)
		}
	}
	return out
}

// Concat concatenates the tensors along the given axis. All other axes must
// agree exactly.
func Concat(axis int, ts ...*Tensor) *Tensor {
	if len(ts) == 0 {
		panic("concat of zero tensors")
	}
	first := ts[0]
	if axis < 0 || axis >= len(first.Dims) {
		panic("concat axis out of range")
	}
	total := 0
	for _, t := range ts {
		if len(t.Dims) != len(first.Dims) {
			panic("concat rank mismatch")
		}
		for i := range t.Dims {
			if i != axis && t.Dims[i] != first.Dims[i] {
				panic("concat dims mismatch off the concat axis")
			}
		}
		total += t.Dims[axis]
	}
	dims := append([]int(nil), first.Dims...)
	dims[axis] = total
	out := New(dims...)

	outer := 1
	for i := 0; i < axis; i++ {
		outer *= first.Dims[i]
	}
	inner := 1
	for i := axis + 1; i < len(first.Dims); i++ {
		inner *= first.Dims[i]
	}
	dstRow := total * inner
	off := 0
	for _, t := range ts {
		srcRow := t.Dims[axis] * inner
		for o := 0; o < outer; o++ {
			copy(out.Data[o*dstRow+off:o*dstRow+off+srcRow], t.Data[o*srcRow:(o+1)*srcRow])
		}
		off += srcRow
	}
	return out
}

// NormalizeRMS rescales each last-axis vector to roughly unit RMS:
// v / (eps + |v| / sqrt(len(v))). The eps term keeps near-zero vectors
// finite.
func NormalizeRMS(t *Tensor, eps float32) {
	if len(t.Dims) == 0 {
		return
	}
	c := t.Dims[len(t.Dims)-1]
	if c == 0 {
		return
	}
	invSqrtC := 1.0 / math.Sqrt(float64(c))
	for off := 0; off < len(t.Data); off += c {
		row := t.Data[off : off+c]
		var sum float64
		for _, v := range row {
			sum += float64(v) * float64(v)
		}
		norm := float32(math.Sqrt(sum)*invSqrtC) + eps
		inv := 1.0 / norm
		for i := range row {
			row[i] *= inv
		}
	}
}
