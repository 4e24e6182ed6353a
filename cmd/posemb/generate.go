package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/voxelflow/posemb/internal/posemb"
	"github.com/voxelflow/posemb/internal/tensor"
	"github.com/voxelflow/posemb/pkg/petf"
)

func generateCmd() *cli.Command {
	var (
		shapeArg string
		fpsArg   string
		outPath  string
		asJSON   bool
	)

	return &cli.Command{
		Name:  "generate",
		Usage: "Generate an embedding table for a video shape",
		Flags: append(append(embedderFlags(), loggingFlags()...),
			&cli.StringFlag{
				Name:        "shape",
				Aliases:     []string{"s"},
				Usage:       "video shape as B,T,H,W (channels come from the variant)",
				Value:       "1,16,44,80",
				Destination: &shapeArg,
			},
			&cli.StringFlag{
				Name:        "fps",
				Usage:       "per-sample frame rates, comma separated (empty for image/static input)",
				Destination: &fpsArg,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "write the embedding to a PET file instead of printing a summary",
				Destination: &outPath,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the summary as JSON",
				Destination: &asJSON,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyEmbedderConfig(cmd, cfg)
			log := newLogger()

			shape, err := parseShape(shapeArg)
			if err != nil {
				return err
			}
			fps, err := parseFPS(fpsArg)
			if err != nil {
				return err
			}

			emb, err := posemb.New(embedderConfig())
			if err != nil {
				return err
			}

			start := time.Now()
			out, err := emb.Generate(shape, &posemb.GenerateOptions{FPS: fps})
			if err != nil {
				return err
			}
			log.Debug("generated embedding",
				"variant", variant,
				"dims", out.Dims,
				"elements", out.NumElems(),
				"took", time.Since(start))

			if outPath != "" {
				if err := petf.Write(outPath, out.Dims, out.Data); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				log.Info("wrote embedding table", "path", outPath, "dims", out.Dims)
				return nil
			}
			return printSummary(variant, out, asJSON)
		},
	}
}

// parseShape reads a B,T,H,W extent list. The channel extent is determined
// by the variant configuration, so it is not part of the argument.
func parseShape(s string) (posemb.Shape, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return posemb.Shape{}, fmt.Errorf("shape must be B,T,H,W, got %q", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v <= 0 {
			return posemb.Shape{}, fmt.Errorf("shape extent %q must be a positive integer", p)
		}
		vals[i] = v
	}
	return posemb.Shape{B: vals[0], T: vals[1], H: vals[2], W: vals[3]}, nil
}

func parseFPS(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("fps value %q must be a positive number", p)
		}
		out = append(out, v)
	}
	return out, nil
}

type summary struct {
	Variant  string  `json:"variant"`
	Dims     []int   `json:"dims"`
	Elements int     `json:"elements"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	RMS      float64 `json:"rms"`
}

func printSummary(variant string, t *tensor.Tensor, asJSON bool) error {
	s := summary{Variant: variant, Dims: t.Dims, Elements: t.NumElems()}
	if len(t.Data) > 0 {
		s.Min, s.Max = float64(t.Data[0]), float64(t.Data[0])
		var sum, sq float64
		for _, v := range t.Data {
			f := float64(v)
			s.Min = math.Min(s.Min, f)
			s.Max = math.Max(s.Max, f)
			sum += f
			sq += f * f
		}
		n := float64(len(t.Data))
		s.Mean = sum / n
		s.RMS = math.Sqrt(sq / n)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	fmt.Printf("variant:  %s\n", s.Variant)
	fmt.Printf("dims:     %v\n", s.Dims)
	fmt.Printf("elements: %d\n", s.Elements)
	fmt.Printf("min:      %.6f\n", s.Min)
	fmt.Printf("max:      %.6f\n", s.Max)
	fmt.Printf("mean:     %.6f\n", s.Mean)
	fmt.Printf("rms:      %.6f\n", s.RMS)
	return nil
}
