package posemb

import (
	"fmt"

	"github.com/voxelflow/posemb/internal/tensor"
)

// Table3DConfig configures the 3-D table variants (fixed sinusoidal or
// learnable).
type Table3DConfig struct {
	ModelChannels    int
	LenH, LenW, LenT int

	// Interpolation is one of crop, resize, crop_resize.
	Interpolation string

	// Learnable marks the table as an externally-owned parameter. The
	// sinusoidal builder accepts either; Learnable3D requires it.
	Learnable bool

	// Grid scales for the sinusoidal builder.
	SpatialScale, TemporalScale float64

	// InitLengthForResize is the temporal crop applied before the
	// crop_resize policy resizes; it matches the length the model was
	// trained with. Defaults to 16.
	InitLengthForResize int
}

func (c *Table3DConfig) defaults() {
	if c.Interpolation == "" {
		c.Interpolation = InterpCrop
	}
	if c.SpatialScale == 0 {
		c.SpatialScale = 1
	}
	if c.TemporalScale == 0 {
		c.TemporalScale = 1
	}
	if c.InitLengthForResize == 0 {
		c.InitLengthForResize = 16
	}
}

// SinCos3D holds one dense (1,LenT,LenH,LenW,C) sinusoidal table and adapts
// it to the requested shape by crop, resize, or crop-then-resize.
type SinCos3D struct {
	cfg   Table3DConfig
	table *tensor.Tensor
}

// NewSinCos3D builds the table from the 3-D grid (axis-concatenated channel
// layout) and rearranges it from (H·W·T, C) rows into (1,T,H,W,C).
func NewSinCos3D(cfg Table3DConfig) (*SinCos3D, error) {
	cfg.defaults()
	switch cfg.Interpolation {
	case InterpCrop, InterpResize, InterpCropResize:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolation, cfg.Interpolation)
	}
	grid, err := SinCos3DGrid(cfg.ModelChannels, cfg.LenH, cfg.LenW, cfg.LenT, cfg.SpatialScale, cfg.TemporalScale, true)
	if err != nil {
		return nil, err
	}
	return &SinCos3D{cfg: cfg, table: gridToTable(grid, cfg.LenH, cfg.LenW, cfg.LenT, cfg.ModelChannels)}, nil
}

// gridToTable reorders (H·W·T, C) rows (H slowest) into a (1,T,H,W,C) table.
func gridToTable(grid *tensor.Tensor, lenH, lenW, lenT, c int) *tensor.Tensor {
	table := tensor.New(1, lenT, lenH, lenW, c)
	for h := 0; h < lenH; h++ {
		for w := 0; w < lenW; w++ {
			for t := 0; t < lenT; t++ {
				src := grid.Data[((h*lenW+w)*lenT+t)*c:]
				dst := table.Data[table.Offset(0, t, h, w, 0):]
				copy(dst[:c], src[:c])
			}
		}
	}
	return table
}

// Table exposes the stored table (mutable in place when Learnable).
func (e *SinCos3D) Table() *tensor.Tensor { return e.table }

func (e *SinCos3D) layout() outputLayout { return layoutAdditive }
func (e *SinCos3D) viewCount() int       { return 1 }

// Generate adapts the stored table to the requested (T,H,W). The output
// keeps a leading batch axis of 1 and broadcasts over the caller's batch.
func (e *SinCos3D) Generate(shape Shape, opts *GenerateOptions) (*tensor.Tensor, error) {
	return adaptTable3D(e.table, e.cfg, shape)
}

func adaptTable3D(table *tensor.Tensor, cfg Table3DConfig, shape Shape) (*tensor.Tensor, error) {
	T, H, W := shape.T, shape.H, shape.W
	c := table.Dims[4]
	switch cfg.Interpolation {
	case InterpCrop:
		if T > table.Dims[1] || H > table.Dims[2] || W > table.Dims[3] {
			return nil, fmt.Errorf("%w: (T=%d,H=%d,W=%d) > stored (%d,%d,%d)",
				ErrShapeBounds, T, H, W, table.Dims[1], table.Dims[2], table.Dims[3])
		}
		return tensor.Crop(table, 1, T, H, W, c), nil

	case InterpResize:
		return tensor.ResizeTrilinear(table, 1, T, 2, H, 3, W, false), nil

	case InterpCropResize:
		// Inference-only: crop time to the trained length, then resize
		// time and the spatial plane in two stages.
		if H > table.Dims[2] || W > table.Dims[3] {
			return nil, fmt.Errorf("%w: (H=%d,W=%d) > stored (%d,%d)",
				ErrShapeBounds, H, W, table.Dims[2], table.Dims[3])
		}
		initT := cfg.InitLengthForResize
		if initT > table.Dims[1] {
			initT = table.Dims[1]
		}
		cropped := tensor.Crop(table, 1, initT, H, W, c)
		resized := tensor.ResizeAxisLinear(cropped, 1, T, false)
		return tensor.ResizeBilinear(resized, 2, H, 3, W, false), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolation, cfg.Interpolation)
	}
}

// Learnable3D adapts an externally-owned (1,LenT,LenH,LenW,C) parameter
// table by crop or resize.
type Learnable3D struct {
	cfg   Table3DConfig
	table *tensor.Tensor
}

// NewLearnable3D wires the generator to the given table (allocated zeroed
// when nil). The variant exists only in learnable form.
func NewLearnable3D(cfg Table3DConfig, table *tensor.Tensor) (*Learnable3D, error) {
	cfg.defaults()
	if !cfg.Learnable {
		return nil, fmt.Errorf("%w: Learnable3D", ErrNotLearnable)
	}
	switch cfg.Interpolation {
	case InterpCrop, InterpResize:
	default:
		return nil, fmt.Errorf("%w: %q (learnable 3-D tables support crop and resize)", ErrUnknownInterpolation, cfg.Interpolation)
	}
	if table == nil {
		table = tensor.New(1, cfg.LenT, cfg.LenH, cfg.LenW, cfg.ModelChannels)
	}
	if err := checkTableDims(table, 1, cfg.LenT, cfg.LenH, cfg.LenW, cfg.ModelChannels); err != nil {
		return nil, err
	}
	return &Learnable3D{cfg: cfg, table: table}, nil
}

func checkTableDims(t *tensor.Tensor, dims ...int) error {
	if t.Rank() != len(dims) {
		return fmt.Errorf("pos_embed table has rank %d, want %d", t.Rank(), len(dims))
	}
	for i, d := range dims {
		if t.Dims[i] != d {
			return fmt.Errorf("pos_embed table has dims %v, want %v", t.Dims, dims)
		}
	}
	return nil
}

// Table exposes the referenced parameter table.
func (e *Learnable3D) Table() *tensor.Tensor { return e.table }

func (e *Learnable3D) layout() outputLayout { return layoutAdditive }
func (e *Learnable3D) viewCount() int       { return 1 }

func (e *Learnable3D) Generate(shape Shape, opts *GenerateOptions) (*tensor.Tensor, error) {
	return adaptTable3D(e.table, e.cfg, shape)
}
