package tensor

// ResizeAxisLinear resizes one axis of t to newLen by linear interpolation,
// copying the rest. alignCorners selects the source-coordinate mapping:
// when true the first and last samples of source and destination coincide
// (src = i*(n-1)/(m-1)); when false samples are treated as cell centres
// (src = (i+0.5)*n/m - 0.5, clamped). The two mappings produce different
// values everywhere except the trivial cases, so callers must pick the one
// their stored tables were trained against.
func ResizeAxisLinear(t *Tensor, axis, newLen int, alignCorners bool) *Tensor {
	if axis < 0 || axis >= len(t.Dims) {
		panic("resize axis out of range")
	}
	if newLen < 0 {
		panic("negative resize extent")
	}
	srcLen := t.Dims[axis]
	if srcLen == 0 {
		panic("resize of empty axis")
	}
	dims := append([]int(nil), t.Dims...)
	dims[axis] = newLen
	out := New(dims...)
	if newLen == 0 {
		return out
	}

	outer := 1
	for i := 0; i < axis; i++ {
		outer *= t.Dims[i]
	}
	inner := 1
	for i := axis + 1; i < len(t.Dims); i++ {
		inner *= t.Dims[i]
	}
	srcRow := srcLen * inner
	dstRow := newLen * inner

	for i := 0; i < newLen; i++ {
		src := sourceCoord(i, srcLen, newLen, alignCorners)
		lo := int(src)
		if lo > srcLen-1 {
			lo = srcLen - 1
		}
		hi := lo + 1
		if hi > srcLen-1 {
			hi = srcLen - 1
		}
		frac := float32(src - float64(lo))
		for o := 0; o < outer; o++ {
			loRow := t.Data[o*srcRow+lo*inner : o*srcRow+(lo+1)*inner]
			hiRow := t.Data[o*srcRow+hi*inner : o*srcRow+(hi+1)*inner]
			dst := out.Data[o*dstRow+i*inner : o*dstRow+(i+1)*inner]
			for j := range dst {
				dst[j] = loRow[j] + frac*(hiRow[j]-loRow[j])
			}
		}
	}
	return out
}

func sourceCoord(i, srcLen, dstLen int, alignCorners bool) float64 {
	if alignCorners {
		if dstLen == 1 {
			return 0
		}
		return float64(i) * float64(srcLen-1) / float64(dstLen-1)
	}
	src := (float64(i)+0.5)*float64(srcLen)/float64(dstLen) - 0.5
	if src < 0 {
		src = 0
	}
	if max := float64(srcLen - 1); src > max {
		src = max
	}
	return src
}

// ResizeBilinear resizes two axes by linear interpolation. Bilinear
// interpolation is separable, so it is exactly two successive 1-D passes.
func ResizeBilinear(t *Tensor, axis0, newLen0, axis1, newLen1 int, alignCorners bool) *Tensor {
	out := ResizeAxisLinear(t, axis0, newLen0, alignCorners)
	return ResizeAxisLinear(out, axis1, newLen1, alignCorners)
}

// ResizeTrilinear resizes three axes by linear interpolation, one separable
// pass per axis.
func ResizeTrilinear(t *Tensor, axis0, newLen0, axis1, newLen1, axis2, newLen2 int, alignCorners bool) *Tensor {
	out := ResizeAxisLinear(t, axis0, newLen0, alignCorners)
	out = ResizeAxisLinear(out, axis1, newLen1, alignCorners)
	return ResizeAxisLinear(out, axis2, newLen2, alignCorners)
}
