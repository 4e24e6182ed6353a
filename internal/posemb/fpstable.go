package posemb

import (
	"fmt"

	"github.com/voxelflow/posemb/internal/tensor"
)

// FPSTableConfig configures the frame-rate-bucketed 3-D table variants.
// The stored table is laid out at MaxFPS density; lower frame rates stride
// through it, higher ones sample it more densely.
type FPSTableConfig struct {
	ModelChannels    int
	LenH, LenW, LenT int

	MinFPS, MaxFPS int

	// Interpolation is crop or resize.
	Interpolation string

	Learnable bool

	// Grid scales for the sinusoidal builder.
	SpatialScale, TemporalScale float64
}

func (c *FPSTableConfig) defaults() {
	if c.Interpolation == "" {
		c.Interpolation = InterpCrop
	}
	if c.SpatialScale == 0 {
		c.SpatialScale = 1
	}
	if c.TemporalScale == 0 {
		c.TemporalScale = 1
	}
}

func (c *FPSTableConfig) validate() error {
	if c.MinFPS < 1 || c.MaxFPS < c.MinFPS {
		return fmt.Errorf("fps range [%d,%d] is invalid", c.MinFPS, c.MaxFPS)
	}
	switch c.Interpolation {
	case InterpCrop, InterpResize:
		return nil
	default:
		return fmt.Errorf("%w: %q (fps-aware tables support crop and resize)", ErrUnknownInterpolation, c.Interpolation)
	}
}

// tableLenT is the stored temporal extent: crop stores the full MaxFPS
// density, resize stores the MinFPS baseline and interpolates up.
func (c *FPSTableConfig) tableLenT() int {
	if c.Interpolation == InterpCrop {
		return c.LenT * (c.MaxFPS / c.MinFPS)
	}
	return c.LenT
}

// SinCos3DFPS is the frame-rate-aware fixed (or learnable) sinusoidal table.
type SinCos3DFPS struct {
	cfg   FPSTableConfig
	table *tensor.Tensor
}

func NewSinCos3DFPS(cfg FPSTableConfig) (*SinCos3DFPS, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	grid, err := SinCos3DGrid(cfg.ModelChannels, cfg.LenH, cfg.LenW, cfg.tableLenT(), cfg.SpatialScale, cfg.TemporalScale, true)
	if err != nil {
		return nil, err
	}
	return &SinCos3DFPS{cfg: cfg, table: gridToTable(grid, cfg.LenH, cfg.LenW, cfg.tableLenT(), cfg.ModelChannels)}, nil
}

// Table exposes the stored table (mutable in place when Learnable).
func (e *SinCos3DFPS) Table() *tensor.Tensor { return e.table }

func (e *SinCos3DFPS) layout() outputLayout { return layoutAdditive }
func (e *SinCos3DFPS) viewCount() int       { return 1 }

func (e *SinCos3DFPS) Generate(shape Shape, opts *GenerateOptions) (*tensor.Tensor, error) {
	return adaptFPSTable(e.table, e.cfg, shape, opts.fps())
}

// Learnable3DFPS is the frame-rate-aware externally-owned parameter table.
type Learnable3DFPS struct {
	cfg   FPSTableConfig
	table *tensor.Tensor
}

// NewLearnable3DFPS wires the generator to the given table (allocated
// zeroed when nil). The variant exists only in learnable form.
func NewLearnable3DFPS(cfg FPSTableConfig, table *tensor.Tensor) (*Learnable3DFPS, error) {
	cfg.defaults()
	if !cfg.Learnable {
		return nil, fmt.Errorf("%w: Learnable3DFPS", ErrNotLearnable)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if table == nil {
		table = tensor.New(1, cfg.tableLenT(), cfg.LenH, cfg.LenW, cfg.ModelChannels)
	}
	if err := checkTableDims(table, 1, cfg.tableLenT(), cfg.LenH, cfg.LenW, cfg.ModelChannels); err != nil {
		return nil, err
	}
	return &Learnable3DFPS{cfg: cfg, table: table}, nil
}

// Table exposes the referenced parameter table.
func (e *Learnable3DFPS) Table() *tensor.Tensor { return e.table }

func (e *Learnable3DFPS) layout() outputLayout { return layoutAdditive }
func (e *Learnable3DFPS) viewCount() int       { return 1 }

func (e *Learnable3DFPS) Generate(shape Shape, opts *GenerateOptions) (*tensor.Tensor, error) {
	return adaptFPSTable(e.table, e.cfg, shape, opts.fps())
}

func adaptFPSTable(table *tensor.Tensor, cfg FPSTableConfig, shape Shape, fps []float64) (*tensor.Tensor, error) {
	T, H, W := shape.T, shape.H, shape.W
	c := table.Dims[4]

	if T == 1 {
		// Image case: frame rate does not apply.
		switch cfg.Interpolation {
		case InterpCrop:
			if H > table.Dims[2] || W > table.Dims[3] {
				return nil, fmt.Errorf("%w: (H=%d,W=%d) > stored (%d,%d)",
					ErrShapeBounds, H, W, table.Dims[2], table.Dims[3])
			}
			return tensor.Crop(table, 1, 1, H, W, c), nil
		case InterpResize:
			frame0 := tensor.Narrow(table, 1, 0, 1)
			return tensor.ResizeBilinear(frame0, 2, H, 3, W, true), nil
		}
	}

	if fps == nil {
		return nil, fmt.Errorf("%w: got T=%d without fps", ErrImageFPS, T)
	}
	perBatch, err := expandFPS(fps, shape.B)
	if err != nil {
		return nil, err
	}

	segments := make([]*tensor.Tensor, 0, len(perBatch))
	for _, f := range perBatch {
		var seg *tensor.Tensor
		switch cfg.Interpolation {
		case InterpCrop:
			// Stride so that higher fps samples denser positions;
			// non-exact ratios truncate toward zero.
			stride := int(float64(cfg.MaxFPS) / f)
			if stride < 1 {
				return nil, fmt.Errorf("fps %g above configured max %d", f, cfg.MaxFPS)
			}
			if (T-1)*stride >= table.Dims[1] || H > table.Dims[2] || W > table.Dims[3] {
				return nil, fmt.Errorf("%w: (T=%d@stride %d,H=%d,W=%d) > stored (%d,%d,%d)",
					ErrShapeBounds, T, stride, H, W, table.Dims[1], table.Dims[2], table.Dims[3])
			}
			seg = tensor.StrideAxis(table, 1, stride, T)
			seg = tensor.Crop(seg, 1, T, H, W, c)
		case InterpResize:
			ratio := int(f / float64(cfg.MinFPS))
			if ratio < 1 {
				return nil, fmt.Errorf("fps %g below configured min %d", f, cfg.MinFPS)
			}
			// Corner alignment matters here: the stored table was
			// trained against aligned-corner upsampling.
			seg = tensor.ResizeTrilinear(table, 1, T*ratio, 2, H, 3, W, true)
			seg = tensor.Narrow(seg, 1, 0, T)
		}
		segments = append(segments, seg)
	}
	if len(segments) == 1 {
		return segments[0], nil
	}
	return tensor.Concat(0, segments...), nil
}

func expandFPS(fps []float64, b int) ([]float64, error) {
	switch len(fps) {
	case 1:
		out := make([]float64, b)
		for i := range out {
			out[i] = fps[0]
		}
		return out, nil
	case b:
		return fps, nil
	default:
		return nil, fmt.Errorf("fps has %d entries for batch of %d", len(fps), b)
	}
}
