package posemb

import (
	"fmt"
	"math"

	"github.com/voxelflow/posemb/internal/tensor"
)

// SinCos1D builds the classic sinusoidal table for the given positions:
// row i is [sin(p_i*w_0) .. sin(p_i*w_{d/2-1}), cos(p_i*w_0) .. cos(p_i*w_{d/2-1})]
// with w_k = 1/10000^(2k/d). embedDim must be even.
func SinCos1D(embedDim int, pos []float64) (*tensor.Tensor, error) {
	if embedDim%2 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrOddEmbedDim, embedDim)
	}
	half := embedDim / 2
	omega := make([]float64, half)
	for k := range omega {
		omega[k] = 1.0 / math.Pow(10000, float64(k)/float64(half))
	}
	out := tensor.New(len(pos), embedDim)
	for i, p := range pos {
		row := out.Data[i*embedDim : (i+1)*embedDim]
		for k, w := range omega {
			arg := p * w
			row[k] = float32(math.Sin(arg))
			row[half+k] = float32(math.Cos(arg))
		}
	}
	return out, nil
}

// SinCos3DGrid builds a (lenH*lenW*lenT, embedDim) table over the integer
// grid of positions, each axis divided by its interpolation scale. Rows are
// ordered with H slowest-varying, then W, then T, which is the order
// downstream code assumes when reshaping back to (T,H,W,C).
//
// When concat is true each axis gets its own channel range (h and w at
// embedDim/3 rounded down to even, t the remainder) concatenated in h|w|t
// order; otherwise three full-width tables are summed elementwise.
func SinCos3DGrid(embedDim, lenH, lenW, lenT int, spatialScale, temporalScale float64, concat bool) (*tensor.Tensor, error) {
	if lenH <= 0 || lenW <= 0 || lenT <= 0 {
		return nil, fmt.Errorf("grid extents must be positive, got (%d,%d,%d)", lenH, lenW, lenT)
	}
	if spatialScale == 0 || temporalScale == 0 {
		return nil, fmt.Errorf("interpolation scales must be non-zero")
	}
	n := lenH * lenW * lenT
	posH := make([]float64, n)
	posW := make([]float64, n)
	posT := make([]float64, n)
	i := 0
	for h := 0; h < lenH; h++ {
		for w := 0; w < lenW; w++ {
			for t := 0; t < lenT; t++ {
				posH[i] = float64(h) / spatialScale
				posW[i] = float64(w) / spatialScale
				posT[i] = float64(t) / temporalScale
				i++
			}
		}
	}

	if concat {
		dimH := embedDim / 3 / 2 * 2
		dimW := dimH
		dimT := embedDim - dimH - dimW
		if dimH == 0 || dimT%2 != 0 || dimH+dimW+dimT != embedDim {
			return nil, fmt.Errorf("%w: %d != %d + %d + %d", ErrBadDimSplit, embedDim, dimH, dimW, dimT)
		}
		embH, err := SinCos1D(dimH, posH)
		if err != nil {
			return nil, err
		}
		embW, err := SinCos1D(dimW, posW)
		if err != nil {
			return nil, err
		}
		embT, err := SinCos1D(dimT, posT)
		if err != nil {
			return nil, err
		}
		return tensor.Concat(1, embH, embW, embT), nil
	}

	embH, err := SinCos1D(embedDim, posH)
	if err != nil {
		return nil, err
	}
	embW, err := SinCos1D(embedDim, posW)
	if err != nil {
		return nil, err
	}
	embT, err := SinCos1D(embedDim, posT)
	if err != nil {
		return nil, err
	}
	for j := range embH.Data {
		embH.Data[j] += embW.Data[j] + embT.Data[j]
	}
	return embH, nil
}
