package posemb

import (
	"fmt"
	"math"

	"github.com/voxelflow/posemb/internal/tensor"
)

// splitHeadDim partitions a head dimension into per-axis rotary widths:
// height and width each take dim/6*2 channels, time the remainder. The
// partition must cover dim exactly with even, usable widths; anything else
// is a construction-time error.
func splitHeadDim(dim int) (dimH, dimT int, err error) {
	dimH = dim / 6 * 2
	dimT = dim - 2*dimH
	if dimH < 4 || dimT < 4 || dimT%2 != 0 || dimH+dimH+dimT != dim {
		return 0, 0, fmt.Errorf("%w: %d != %d + %d + %d", ErrBadDimSplit, dim, dimH, dimH, dimT)
	}
	return dimH, dimT, nil
}

// freqBand returns the rotary frequency band for an axis of width dim:
// band[i] = 1/theta^(2i/dim) for i in [0, dim/2).
func freqBand(dim int, theta float64) []float64 {
	band := make([]float64, dim/2)
	for i := range band {
		band[i] = 1.0 / math.Pow(theta, float64(2*i)/float64(dim))
	}
	return band
}

// ntkFactor derives the default NTK extrapolation factor for an axis of
// width dim from its extrapolation ratio.
func ntkFactor(ratio float64, dim int) float64 {
	return math.Pow(ratio, float64(dim)/float64(dim-2))
}

// Rope3DConfig configures the axis-factorized rotary generator.
type Rope3DConfig struct {
	HeadDim int

	// LenH and LenW bound the spatial extents; LenT sizes the precomputed
	// position range.
	LenH, LenW, LenT int

	// BaseFPS is the frame rate positions are expressed in. Defaults to 24.
	BaseFPS float64

	// Extrapolation ratios per axis; 1 (the default) means no NTK
	// rescaling.
	HExtrapolation, WExtrapolation, TExtrapolation float64
}

func (c *Rope3DConfig) defaults() {
	if c.BaseFPS <= 0 {
		c.BaseFPS = 24
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

// Rope3D generates axis-factorized rotary embeddings for a single camera
// view. Output is (T*H*W, HeadDim/2, 2, 2): one 2x2 rotation block per
// channel pair, concatenated along the channel axis in temporal, height,
// width order. Downstream query/key rotation assumes that exact ordering.
type Rope3D struct {
	cfg        Rope3DConfig
	seq        []float64
	dimH, dimT int

	hNTK, wNTK, tNTK float64
}

// NewRope3D validates the axis-dim partition and precomputes the position
// sequence and default NTK factors.
func NewRope3D(cfg Rope3DConfig) (*Rope3D, error) {
	cfg.defaults()
	if cfg.LenH <= 0 || cfg.LenW <= 0 || cfg.LenT <= 0 {
		return nil, fmt.Errorf("table extents must be positive, got (%d,%d,%d)", cfg.LenH, cfg.LenW, cfg.LenT)
	}
	dimH, dimT, err := splitHeadDim(cfg.HeadDim)
	if err != nil {
		return nil, err
	}
	return &Rope3D{
		cfg:  cfg,
		seq:  arange(max(cfg.LenH, max(cfg.LenW, cfg.LenT))),
		dimH: dimH,
		dimT: dimT,
		hNTK: ntkFactor(cfg.HExtrapolation, dimH),
		wNTK: ntkFactor(cfg.WExtrapolation, dimH),
		tNTK: ntkFactor(cfg.TExtrapolation, dimT),
	}, nil
}

func (e *Rope3D) layout() outputLayout { return layoutRotaryFlat }
func (e *Rope3D) viewCount() int       { return 1 }

// Generate produces the rotation blocks for the given shape. fps rescales
// the temporal indices by BaseFPS/fps so physical motion speed is
// fps-invariant; nil fps uses raw frame indices.
func (e *Rope3D) Generate(shape Shape, opts *GenerateOptions) (*tensor.Tensor, error) {
	hNTK, wNTK, tNTK := e.hNTK, e.wNTK, e.tNTK
	if o := opts.ntk(); o != nil {
		if o.H != nil {
			hNTK = *o.H
		}
		if o.W != nil {
			wNTK = *o.W
		}
		if o.T != nil {
			tNTK = *o.T
		}
	}
	hFreqs := freqBand(e.dimH, 10000*hNTK)
	wFreqs := freqBand(e.dimH, 10000*wNTK)
	tFreqs := freqBand(e.dimT, 10000*tNTK)

	T, H, W := shape.T, shape.H, shape.W
	if H > e.cfg.LenH || W > e.cfg.LenW {
		return nil, fmt.Errorf("%w: (H=%d,W=%d) > (max_h=%d,max_w=%d)", ErrShapeBounds, H, W, e.cfg.LenH, e.cfg.LenW)
	}
	fps := opts.fps()
	if err := validateFPS(shape, fps); err != nil {
		return nil, err
	}

	timePos := e.positions(T)
	if fps != nil {
		timePos = scaled(timePos, e.cfg.BaseFPS/fps[0])
	}

	cosT, sinT := angleTables(timePos, tFreqs)
	cosH, sinH := angleTables(e.seq[:H], hFreqs)
	cosW, sinW := angleTables(e.seq[:W], wFreqs)

	halfDim := e.cfg.HeadDim / 2
	out := tensor.New(T*H*W, halfDim, 2, 2)
	pos := 0
	for t := 0; t < T; t++ {
		for h := 0; h < H; h++ {
			for w := 0; w < W; w++ {
				row := out.Data[pos*halfDim*4 : (pos+1)*halfDim*4]
				off := writeRotationBlocks(row, 0, cosT[t], sinT[t])
				off = writeRotationBlocks(row, off, cosH[h], sinH[h])
				writeRotationBlocks(row, off, cosW[w], sinW[w])
				pos++
			}
		}
	}
	return out, nil
}

// positions returns frame indices 0..n-1, reusing the precomputed sequence
// when it is long enough (it always is until a context-parallel adapter
// expands T past LenT).
func (e *Rope3D) positions(n int) []float64 {
	if n <= len(e.seq) {
		return e.seq[:n]
	}
	return arange(n)
}

// angleTables evaluates cos and sin of every position/frequency product.
func angleTables(pos, freqs []float64) (cos, sin [][]float32) {
	cos = make([][]float32, len(pos))
	sin = make([][]float32, len(pos))
	for i, p := range pos {
		c := make([]float32, len(freqs))
		s := make([]float32, len(freqs))
		for k, f := range freqs {
			arg := p * f
			c[k] = float32(math.Cos(arg))
			s[k] = float32(math.Sin(arg))
		}
		cos[i] = c
		sin[i] = s
	}
	return cos, sin
}

// writeRotationBlocks appends one [[cos,-sin],[sin,cos]] block per frequency
// starting at block offset off, returning the next offset.
func writeRotationBlocks(row []float32, off int, cos, sin []float32) int {
	for k := range cos {
		b := (off + k) * 4
		row[b+0] = cos[k]
		row[b+1] = -sin[k]
		row[b+2] = sin[k]
		row[b+3] = cos[k]
	}
	return off + len(cos)
}

// Rope1DConfig configures the flat rotary generator, which treats the
// flattened T*H*W sequence as one axis.
type Rope1DConfig struct {
	HeadDim          int
	LenH, LenW, LenT int
}

// Rope1D is the flat single-band rotary variant. Output is
// (T*H*W, 1, 1, HeadDim): per-position rotation angles duplicated across the
// two half-ranges.
type Rope1D struct {
	cfg Rope1DConfig
	seq []float64
}

func NewRope1D(cfg Rope1DConfig) (*Rope1D, error) {
	if cfg.HeadDim <= 0 || cfg.HeadDim%2 != 0 {
		return nil, fmt.Errorf("%w: head dim %d", ErrOddEmbedDim, cfg.HeadDim)
	}
	if cfg.LenH <= 0 || cfg.LenW <= 0 || cfg.LenT <= 0 {
		return nil, fmt.Errorf("table extents must be positive, got (%d,%d,%d)", cfg.LenH, cfg.LenW, cfg.LenT)
	}
	return &Rope1D{
		cfg: cfg,
		seq: arange(cfg.LenH * cfg.LenW * cfg.LenT),
	}, nil
}

func (e *Rope1D) layout() outputLayout { return layoutRotaryFlat }
func (e *Rope1D) viewCount() int       { return 1 }

// Generate emits per-position angles for the flattened sequence. The T
// override in opts.NTK rescales the single frequency band.
func (e *Rope1D) Generate(shape Shape, opts *GenerateOptions) (*tensor.Tensor, error) {
	ntk := 1.0
	if o := opts.ntk(); o != nil && o.T != nil {
		ntk = *o.T
	}
	freqs := freqBand(e.cfg.HeadDim, 10000*ntk)

	length := shape.T * shape.H * shape.W
	if length > len(e.seq) {
		return nil, fmt.Errorf("%w: sequence length %d > %d", ErrShapeBounds, length, len(e.seq))
	}
	half := len(freqs)
	out := tensor.New(length, 1, 1, e.cfg.HeadDim)
	for i := 0; i < length; i++ {
		row := out.Data[i*e.cfg.HeadDim : (i+1)*e.cfg.HeadDim]
		for k, f := range freqs {
			a := float32(e.seq[i] * f)
			row[k] = a
			row[half+k] = a
		}
	}
	return out, nil
}
