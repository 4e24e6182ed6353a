package posemb

import (
	"fmt"

	"github.com/voxelflow/posemb/internal/tensor"
)

// RopeMultiCamConfig extends Rope3DConfig with the camera-view count. The
// input's time axis folds Views x per-view frames.
type RopeMultiCamConfig struct {
	Rope3DConfig
	Views int
}

// RopeMultiCam generates rotary embeddings for synchronized camera views:
// each view gets the single-camera embedding for its per-view shape, and the
// per-view outputs are concatenated along the flattened sequence axis in
// view order.
type RopeMultiCam struct {
	inner *Rope3D
	views int
}

func NewRopeMultiCam(cfg RopeMultiCamConfig) (*RopeMultiCam, error) {
	if cfg.Views <= 0 {
		cfg.Views = 4
	}
	inner, err := NewRope3D(cfg.Rope3DConfig)
	if err != nil {
		return nil, err
	}
	return &RopeMultiCam{inner: inner, views: cfg.Views}, nil
}

func (e *RopeMultiCam) layout() outputLayout { return layoutRotaryFlat }
func (e *RopeMultiCam) viewCount() int       { return e.views }

// Generate produces (T*H*W, HeadDim/2, 2, 2) with T = Views x per-view
// frames. All views share one frame rate; heterogeneous fps across views is
// a fatal configuration error, never a silent fallback.
func (e *RopeMultiCam) Generate(shape Shape, opts *GenerateOptions) (*tensor.Tensor, error) {
	if shape.T%e.views != 0 {
		return nil, fmt.Errorf("%w: T=%d, views=%d", ErrBadViews, shape.T, e.views)
	}
	fps := opts.fps()
	if !uniformFPS(fps) {
		return nil, fmt.Errorf("%w: got %v", ErrViewFPS, fps)
	}
	perView := shape
	perView.T = shape.T / e.views
	if fps == nil && perView.T != 1 {
		return nil, fmt.Errorf("%w: per-view T=%d without fps", ErrImageFPS, perView.T)
	}
	view, err := e.inner.Generate(perView, opts)
	if err != nil {
		return nil, err
	}
	// Views reuse the same per-view embedding; lay them out back to back.
	tiles := make([]*tensor.Tensor, e.views)
	for i := range tiles {
		tiles[i] = view
	}
	return tensor.Concat(0, tiles...), nil
}

// SinCosAxisMultiCamConfig extends AxisConfig with the camera-view count.
type SinCosAxisMultiCamConfig struct {
	AxisConfig
	Views int
}

// SinCosAxisMultiCam reuses one set of per-axis tables across camera views:
// the per-view segment of the time axis repeats the same cropped embedding.
type SinCosAxisMultiCam struct {
	inner *SinCosAxis
	views int
}

func NewSinCosAxisMultiCam(cfg SinCosAxisMultiCamConfig) (*SinCosAxisMultiCam, error) {
	if cfg.Views <= 0 {
		cfg.Views = 4
	}
	inner, err := NewSinCosAxis(cfg.AxisConfig)
	if err != nil {
		return nil, err
	}
	return &SinCosAxisMultiCam{inner: inner, views: cfg.Views}, nil
}

func (e *SinCosAxisMultiCam) layout() outputLayout { return layoutAdditive }
func (e *SinCosAxisMultiCam) viewCount() int       { return e.views }

// Generate produces (B, T, H, W, C) with T = Views x per-view frames.
func (e *SinCosAxisMultiCam) Generate(shape Shape, opts *GenerateOptions) (*tensor.Tensor, error) {
	if shape.T%e.views != 0 {
		return nil, fmt.Errorf("%w: T=%d, views=%d", ErrBadViews, shape.T, e.views)
	}
	perView := shape
	perView.T = shape.T / e.views
	view, err := e.inner.Generate(perView, opts)
	if err != nil {
		return nil, err
	}
	tiles := make([]*tensor.Tensor, e.views)
	for i := range tiles {
		tiles[i] = view
	}
	return tensor.Concat(1, tiles...), nil
}
