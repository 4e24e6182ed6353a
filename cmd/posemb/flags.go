package main

import (
	"github.com/urfave/cli/v3"

	"github.com/voxelflow/posemb/internal/posemb"
)

var (
	variant       string
	headDim       int64
	modelChannels int64
	lenT          int64
	lenH          int64
	lenW          int64
	baseFPS       float64
	minFPS        int64
	maxFPS        int64
	interpolation string
	learnable     bool
	hExtrap       float64
	wExtrap       float64
	tExtrap       float64
	views         int64
	logLevel      string
	logFormat     string
	debug         bool
)

func embedderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "variant",
			Aliases:     []string{"v"},
			Usage:       "embedding variant (see `posemb inspect --variants`)",
			Value:       posemb.VariantRope3D,
			Destination: &variant,
		},
		&cli.Int64Flag{
			Name:        "head-dim",
			Usage:       "attention head dimension (rotary variants)",
			Value:       128,
			Destination: &headDim,
		},
		&cli.Int64Flag{
			Name:        "model-channels",
			Usage:       "model channel count (additive variants)",
			Value:       1024,
			Destination: &modelChannels,
		},
		&cli.Int64Flag{
			Name:        "len-t",
			Usage:       "stored table/frequency range along time",
			Value:       128,
			Destination: &lenT,
		},
		&cli.Int64Flag{
			Name:        "len-h",
			Usage:       "stored table/frequency range along height",
			Value:       240,
			Destination: &lenH,
		},
		&cli.Int64Flag{
			Name:        "len-w",
			Usage:       "stored table/frequency range along width",
			Value:       240,
			Destination: &lenW,
		},
		&cli.FloatFlag{
			Name:        "base-fps",
			Usage:       "frame rate temporal positions are expressed in",
			Value:       24,
			Destination: &baseFPS,
		},
		&cli.Int64Flag{
			Name:        "min-fps",
			Usage:       "minimum supported frame rate (fps-aware tables)",
			Value:       1,
			Destination: &minFPS,
		},
		&cli.Int64Flag{
			Name:        "max-fps",
			Usage:       "maximum supported frame rate (fps-aware tables)",
			Value:       120,
			Destination: &maxFPS,
		},
		&cli.StringFlag{
			Name:        "interpolation",
			Usage:       "table interpolation policy (crop, resize, crop_resize)",
			Value:       "crop",
			Destination: &interpolation,
		},
		&cli.BoolFlag{
			Name:        "learnable",
			Usage:       "treat the stored table as a learnable parameter",
			Destination: &learnable,
		},
		&cli.FloatFlag{
			Name:        "h-extrapolation",
			Usage:       "height extrapolation ratio",
			Value:       1,
			Destination: &hExtrap,
		},
		&cli.FloatFlag{
			Name:        "w-extrapolation",
			Usage:       "width extrapolation ratio",
			Value:       1,
			Destination: &wExtrap,
		},
		&cli.FloatFlag{
			Name:        "t-extrapolation",
			Usage:       "time extrapolation ratio",
			Value:       1,
			Destination: &tExtrap,
		},
		&cli.Int64Flag{
			Name:        "views",
			Usage:       "camera views folded into the time axis (multi-camera variants)",
			Value:       4,
			Destination: &views,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func embedderConfig() posemb.Config {
	return posemb.Config{
		Variant:       variant,
		HeadDim:       int(headDim),
		ModelChannels: int(modelChannels),
		LenH:          int(lenH),
		LenW:          int(lenW),
		LenT:          int(lenT),
		BaseFPS:       baseFPS,
		MinFPS:        int(minFPS),
		MaxFPS:        int(maxFPS),
		Interpolation: interpolation,
		Learnable:     learnable,
		HExtrapolation: hExtrap,
		WExtrapolation: wExtrap,
		TExtrapolation: tExtrap,
		Views:          int(views),
	}
}
