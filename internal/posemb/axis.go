package posemb

import (
	"fmt"

	"github.com/voxelflow/posemb/internal/tensor"
)

// Interpolation policy names shared by the table-backed variants.
const (
	InterpCrop       = "crop"
	InterpResize     = "resize"
	InterpCropResize = "crop_resize"
)

// AxisConfig configures the axis-concatenated sinusoidal table variant.
type AxisConfig struct {
	ModelChannels    int
	LenH, LenW, LenT int

	// Interpolation must be "crop"; frequency rescaling via the
	// extrapolation ratios is the supported way to extend the range.
	Interpolation string

	HExtrapolation, WExtrapolation, TExtrapolation float64
}

func (c *AxisConfig) defaults() {
	if c.Interpolation == "" {
		c.Interpolation = InterpCrop
	}
	if c.HExtrapolation <= 0 {
		c.HExtrapolation = 1
	}
	if c.WExtrapolation <= 0 {
		c.WExtrapolation = 1
	}
	if c.TExtrapolation <= 0 {
		c.TExtrapolation = 1
	}
}

// SinCosAxis holds one fixed sinusoidal table per axis, each on a disjoint
// channel range (temporal | height | width), cropped to the requested shape.
type SinCosAxis struct {
	cfg              AxisConfig
	embH, embW, embT *tensor.Tensor
	dimH, dimT       int
}

// NewSinCosAxis precomputes the per-axis tables. Rescaling position ids by
// 1/extrapolation_ratio is equivalent to rescaling the frequencies.
func NewSinCosAxis(cfg AxisConfig) (*SinCosAxis, error) {
	cfg.defaults()
	if cfg.Interpolation != InterpCrop {
		return nil, fmt.Errorf("%w: %q (axis tables support crop only)", ErrUnknownInterpolation, cfg.Interpolation)
	}
	if cfg.LenH <= 0 || cfg.LenW <= 0 || cfg.LenT <= 0 {
		return nil, fmt.Errorf("table extents must be positive, got (%d,%d,%d)", cfg.LenH, cfg.LenW, cfg.LenT)
	}
	dimH, dimT, err := splitHeadDim(cfg.ModelChannels)
	if err != nil {
		return nil, err
	}
	embH, err := SinCos1D(dimH, scaled(arange(cfg.LenH), 1/cfg.HExtrapolation))
	if err != nil {
		return nil, err
	}
	embW, err := SinCos1D(dimH, scaled(arange(cfg.LenW), 1/cfg.WExtrapolation))
	if err != nil {
		return nil, err
	}
	embT, err := SinCos1D(dimT, scaled(arange(cfg.LenT), 1/cfg.TExtrapolation))
	if err != nil {
		return nil, err
	}
	return &SinCosAxis{cfg: cfg, embH: embH, embW: embW, embT: embT, dimH: dimH, dimT: dimT}, nil
}

func (e *SinCosAxis) layout() outputLayout { return layoutAdditive }
func (e *SinCosAxis) viewCount() int       { return 1 }

// Generate crops each per-axis table and concatenates the rows along the
// channel axis, replicated over the batch: output (B,T,H,W,C).
func (e *SinCosAxis) Generate(shape Shape, opts *GenerateOptions) (*tensor.Tensor, error) {
	if err := e.checkBounds(shape); err != nil {
		return nil, err
	}
	B, T, H, W := shape.B, shape.T, shape.H, shape.W
	c := e.cfg.ModelChannels
	out := tensor.New(B, T, H, W, c)
	for b := 0; b < B; b++ {
		for t := 0; t < T; t++ {
			rowT := e.embT.Data[t*e.dimT : (t+1)*e.dimT]
			for h := 0; h < H; h++ {
				rowH := e.embH.Data[h*e.dimH : (h+1)*e.dimH]
				for w := 0; w < W; w++ {
					rowW := e.embW.Data[w*e.dimH : (w+1)*e.dimH]
					dst := out.Data[out.Offset(b, t, h, w, 0) : out.Offset(b, t, h, w, 0)+c]
					n := copy(dst, rowT)
					n += copy(dst[n:], rowH)
					copy(dst[n:], rowW)
				}
			}
		}
	}
	return out, nil
}

func (e *SinCosAxis) checkBounds(shape Shape) error {
	if shape.T > e.cfg.LenT || shape.H > e.cfg.LenH || shape.W > e.cfg.LenW {
		return fmt.Errorf("%w: (T=%d,H=%d,W=%d) > (len_t=%d,len_h=%d,len_w=%d)",
			ErrShapeBounds, shape.T, shape.H, shape.W, e.cfg.LenT, e.cfg.LenH, e.cfg.LenW)
	}
	return nil
}

// AxisTables are the externally-owned learnable per-axis parameter tables,
// each full model width: H is (LenH, C), W is (LenW, C), T is (LenT, C).
// The generator references them, it never copies; the optimizer collaborator
// mutates them in place between forward calls.
type AxisTables struct {
	H, W, T *tensor.Tensor
}

// LearnableAxisConfig configures the axis-summed learnable variant.
type LearnableAxisConfig struct {
	ModelChannels    int
	LenH, LenW, LenT int
	Interpolation    string // must be "crop"
}

// LearnableAxis sums full-width per-axis learnable embeddings and finishes
// with a unit-RMS rescale.
type LearnableAxis struct {
	cfg    LearnableAxisConfig
	tables AxisTables
}

// NewLearnableAxis wires the generator to the given tables. Nil tables are
// allocated zeroed (the checkpoint loader fills them in later).
func NewLearnableAxis(cfg LearnableAxisConfig, tables AxisTables) (*LearnableAxis, error) {
	if cfg.Interpolation == "" {
		cfg.Interpolation = InterpCrop
	}
	if cfg.Interpolation != InterpCrop {
		return nil, fmt.Errorf("%w: %q (axis tables support crop only)", ErrUnknownInterpolation, cfg.Interpolation)
	}
	if cfg.LenH <= 0 || cfg.LenW <= 0 || cfg.LenT <= 0 || cfg.ModelChannels <= 0 {
		return nil, fmt.Errorf("table extents must be positive, got (%d,%d,%d,C=%d)", cfg.LenH, cfg.LenW, cfg.LenT, cfg.ModelChannels)
	}
	if tables.H == nil {
		tables.H = tensor.New(cfg.LenH, cfg.ModelChannels)
	}
	if tables.W == nil {
		tables.W = tensor.New(cfg.LenW, cfg.ModelChannels)
	}
	if tables.T == nil {
		tables.T = tensor.New(cfg.LenT, cfg.ModelChannels)
	}
	for _, tc := range []struct {
		name string
		tab  *tensor.Tensor
		rows int
	}{
		{"h", tables.H, cfg.LenH},
		{"w", tables.W, cfg.LenW},
		{"t", tables.T, cfg.LenT},
	} {
		if tc.tab.Rank() != 2 || tc.tab.Dims[0] != tc.rows || tc.tab.Dims[1] != cfg.ModelChannels {
			return nil, fmt.Errorf("pos_emb_%s table has dims %v, want (%d,%d)", tc.name, tc.tab.Dims, tc.rows, cfg.ModelChannels)
		}
	}
	return &LearnableAxis{cfg: cfg, tables: tables}, nil
}

// Tables exposes the referenced parameter tables.
func (e *LearnableAxis) Tables() AxisTables { return e.tables }

func (e *LearnableAxis) layout() outputLayout { return layoutAdditive }
func (e *LearnableAxis) viewCount() int       { return 1 }

// Generate sums the cropped per-axis rows elementwise, replicated over the
// batch, then rescales each channel vector to unit RMS (eps 1e-6).
func (e *LearnableAxis) Generate(shape Shape, opts *GenerateOptions) (*tensor.Tensor, error) {
	if shape.T > e.cfg.LenT || shape.H > e.cfg.LenH || shape.W > e.cfg.LenW {
		return nil, fmt.Errorf("%w: (T=%d,H=%d,W=%d) > (len_t=%d,len_h=%d,len_w=%d)",
			ErrShapeBounds, shape.T, shape.H, shape.W, e.cfg.LenT, e.cfg.LenH, e.cfg.LenW)
	}
	B, T, H, W := shape.B, shape.T, shape.H, shape.W
	c := e.cfg.ModelChannels
	out := tensor.New(B, T, H, W, c)
	for b := 0; b < B; b++ {
		for t := 0; t < T; t++ {
			rowT := e.tables.T.Data[t*c : (t+1)*c]
			for h := 0; h < H; h++ {
				rowH := e.tables.H.Data[h*c : (h+1)*c]
				for w := 0; w < W; w++ {
					rowW := e.tables.W.Data[w*c : (w+1)*c]
					dst := out.Data[out.Offset(b, t, h, w, 0) : out.Offset(b, t, h, w, 0)+c]
					for i := range dst {
						dst[i] = rowT[i] + rowH[i] + rowW[i]
					}
				}
			}
		}
	}
	tensor.NormalizeRMS(out, 1e-6)
	return out, nil
}
