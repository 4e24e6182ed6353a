package posemb

import "fmt"

// Variant names accepted by New.
const (
	VariantRope1D             = "rope1d"
	VariantRope3D             = "rope3d"
	VariantRopeMultiCam       = "rope3d-multicam"
	VariantSinCosAxis         = "sincos-axis"
	VariantSinCosAxisMultiCam = "sincos-axis-multicam"
	VariantLearnableAxis      = "learnable-axis"
	VariantSinCos3D           = "sincos3d"
	VariantLearnable3D        = "learnable3d"
	VariantSinCos3DFPS        = "sincos3d-fps"
	VariantLearnable3DFPS     = "learnable3d-fps"
)

// Variants lists every constructible variant, in a stable order.
var Variants = []string{
	VariantRope1D,
	VariantRope3D,
	VariantRopeMultiCam,
	VariantSinCosAxis,
	VariantSinCosAxisMultiCam,
	VariantLearnableAxis,
	VariantSinCos3D,
	VariantLearnable3D,
	VariantSinCos3DFPS,
	VariantLearnable3DFPS,
}

// Config is the flattened construction surface used by the CLI and the REST
// API; fields irrelevant to the chosen variant are ignored. Library callers
// can use the per-variant constructors directly instead.
type Config struct {
	Variant string `json:"variant" yaml:"variant"`

	HeadDim       int `json:"head_dim" yaml:"head_dim"`
	ModelChannels int `json:"model_channels" yaml:"model_channels"`

	LenH int `json:"len_h" yaml:"len_h"`
	LenW int `json:"len_w" yaml:"len_w"`
	LenT int `json:"len_t" yaml:"len_t"`

	BaseFPS float64 `json:"base_fps" yaml:"base_fps"`
	MinFPS  int     `json:"min_fps" yaml:"min_fps"`
	MaxFPS  int     `json:"max_fps" yaml:"max_fps"`

	Interpolation string `json:"interpolation" yaml:"interpolation"`
	Learnable     bool   `json:"learnable" yaml:"learnable"`

	SpatialScale        float64 `json:"spatial_scale" yaml:"spatial_scale"`
	TemporalScale       float64 `json:"temporal_scale" yaml:"temporal_scale"`
	InitLengthForResize int     `json:"init_length_for_resize" yaml:"init_length_for_resize"`

	HExtrapolation float64 `json:"h_extrapolation" yaml:"h_extrapolation"`
	WExtrapolation float64 `json:"w_extrapolation" yaml:"w_extrapolation"`
	TExtrapolation float64 `json:"t_extrapolation" yaml:"t_extrapolation"`

	Views int `json:"views" yaml:"views"`
}

// New constructs the embedding variant named by cfg.Variant. Learnable
// variants receive freshly zeroed tables; callers that own trained tables
// use the per-variant constructors.
func New(cfg Config) (Embedder, error) {
	switch cfg.Variant {
	case VariantRope1D:
		return NewRope1D(Rope1DConfig{
			HeadDim: cfg.HeadDim,
			LenH:    cfg.LenH, LenW: cfg.LenW, LenT: cfg.LenT,
		})
	case VariantRope3D:
		return NewRope3D(cfg.rope3D())
	case VariantRopeMultiCam:
		return NewRopeMultiCam(RopeMultiCamConfig{Rope3DConfig: cfg.rope3D(), Views: cfg.Views})
	case VariantSinCosAxis:
		return NewSinCosAxis(cfg.axis())
	case VariantSinCosAxisMultiCam:
		return NewSinCosAxisMultiCam(SinCosAxisMultiCamConfig{AxisConfig: cfg.axis(), Views: cfg.Views})
	case VariantLearnableAxis:
		return NewLearnableAxis(LearnableAxisConfig{
			ModelChannels: cfg.ModelChannels,
			LenH:          cfg.LenH, LenW: cfg.LenW, LenT: cfg.LenT,
			Interpolation: cfg.Interpolation,
		}, AxisTables{})
	case VariantSinCos3D:
		return NewSinCos3D(cfg.table3D())
	case VariantLearnable3D:
		return NewLearnable3D(cfg.table3D(), nil)
	case VariantSinCos3DFPS:
		return NewSinCos3DFPS(cfg.fpsTable())
	case VariantLearnable3DFPS:
		return NewLearnable3DFPS(cfg.fpsTable(), nil)
	default:
		return nil, fmt.Errorf("unknown embedding variant %q", cfg.Variant)
	}
}

func (cfg Config) rope3D() Rope3DConfig {
	return Rope3DConfig{
		HeadDim: cfg.HeadDim,
		LenH:    cfg.LenH, LenW: cfg.LenW, LenT: cfg.LenT,
		BaseFPS:        cfg.BaseFPS,
		HExtrapolation: cfg.HExtrapolation,
		WExtrapolation: cfg.WExtrapolation,
		TExtrapolation: cfg.TExtrapolation,
	}
}

func (cfg Config) axis() AxisConfig {
	return AxisConfig{
		ModelChannels: cfg.ModelChannels,
		LenH:          cfg.LenH, LenW: cfg.LenW, LenT: cfg.LenT,
		Interpolation:  cfg.Interpolation,
		HExtrapolation: cfg.HExtrapolation,
		WExtrapolation: cfg.WExtrapolation,
		TExtrapolation: cfg.TExtrapolation,
	}
}

func (cfg Config) table3D() Table3DConfig {
	return Table3DConfig{
		ModelChannels: cfg.ModelChannels,
		LenH:          cfg.LenH, LenW: cfg.LenW, LenT: cfg.LenT,
		Interpolation:       cfg.Interpolation,
		Learnable:           cfg.Learnable,
		SpatialScale:        cfg.SpatialScale,
		TemporalScale:       cfg.TemporalScale,
		InitLengthForResize: cfg.InitLengthForResize,
	}
}

func (cfg Config) fpsTable() FPSTableConfig {
	return FPSTableConfig{
		ModelChannels: cfg.ModelChannels,
		LenH:          cfg.LenH, LenW: cfg.LenW, LenT: cfg.LenT,
		MinFPS:        cfg.MinFPS, MaxFPS: cfg.MaxFPS,
		Interpolation: cfg.Interpolation,
		Learnable:     cfg.Learnable,
		SpatialScale:  cfg.SpatialScale,
		TemporalScale: cfg.TemporalScale,
	}
}
