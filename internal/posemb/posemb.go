// Package posemb generates the positional-encoding tensors consumed by the
// attention layers of a video diffusion transformer.
//
// Inputs are described by their (Batch, Time, Height, Width, Channels) shape
// plus an optional per-sample frames-per-second value. Each embedding variant
// is a concrete type behind the Embedder interface. The set is closed: the
// adapters in this package dispatch on the unexported layout hooks, so
// variants cannot be implemented outside the package.
package posemb

import (
	"fmt"

	"github.com/voxelflow/posemb/internal/tensor"
)

// Shape is the (B,T,H,W,C) extent of the input the embedding is generated
// for. For multi-camera variants T folds Views x per-view frames.
type Shape struct {
	B, T, H, W, C int
}

func (s Shape) String() string {
	return fmt.Sprintf("(B=%d,T=%d,H=%d,W=%d,C=%d)", s.B, s.T, s.H, s.W, s.C)
}

// GenerateOptions carries the per-call inputs.
//
// FPS is nil for image inputs, a single element for a batch-wide frame rate,
// or one element per batch item. NTK optionally overrides the rotary
// frequency scaling for this call only.
type GenerateOptions struct {
	FPS []float64
	NTK *NTKOverrides
}

// NTKOverrides replaces the cached per-axis NTK factors of a rotary
// generator for a single call. Nil fields keep the construction-time value.
type NTKOverrides struct {
	H, W, T *float64
}

func (o *GenerateOptions) fps() []float64 {
	if o == nil {
		return nil
	}
	return o.FPS
}

func (o *GenerateOptions) ntk() *NTKOverrides {
	if o == nil {
		return nil
	}
	return o.NTK
}

// Embedder is the single generation entry point shared by every variant.
// The returned tensor is either rotary form (L, headDim/2, 2, 2),
// broadcastable over batch and heads, or additive form (B,T,H,W,C).
type Embedder interface {
	Generate(shape Shape, opts *GenerateOptions) (*tensor.Tensor, error)

	// layout and viewCount drive the context-parallel adapter: they name
	// the axis that plays the time role in the output and how many camera
	// views are folded into it.
	layout() outputLayout
	viewCount() int
}

type outputLayout int

const (
	// layoutAdditive marks (B,T,H,W,C) outputs; time is axis 1.
	layoutAdditive outputLayout = iota
	// layoutRotaryFlat marks (T*H*W, ...) outputs; time is the slowest
	// component of axis 0.
	layoutRotaryFlat
)

// uniformFPS reports whether all provided frame rates agree. Nil and
// single-element inputs are uniform by definition.
func uniformFPS(fps []float64) bool {
	for i := 1; i < len(fps); i++ {
		if fps[i] != fps[0] {
			return false
		}
	}
	return true
}

// validateFPS enforces the batch constraint shared by the temporal-rescaling
// variants: heterogeneous frame rates are only representable when each batch
// element is processed independently along time.
func validateFPS(shape Shape, fps []float64) error {
	if uniformFPS(fps) || shape.B == 1 || shape.T == 1 {
		return nil
	}
	return fmt.Errorf("%w: batch of %d videos with T=%d needs a single frame rate", ErrNonUniformFPS, shape.B, shape.T)
}

func arange(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func scaled(pos []float64, factor float64) []float64 {
	out := make([]float64, len(pos))
	for i, p := range pos {
		out[i] = p * factor
	}
	return out
}
