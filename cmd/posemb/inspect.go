package main

import (
	"context"
	"fmt"
	"math"

	"github.com/urfave/cli/v3"

	"github.com/voxelflow/posemb/internal/posemb"
	"github.com/voxelflow/posemb/pkg/petf"
)

func inspectCmd() *cli.Command {
	var (
		listVariants bool
		showValues   int64
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Inspect a PET embedding table",
		ArgsUsage: "<path.pet>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "variants",
				Usage:       "list the available embedding variants and exit",
				Destination: &listVariants,
			},
			&cli.Int64Flag{
				Name:        "values",
				Usage:       "number of leading payload values to print (0 to skip)",
				Value:       0,
				Destination: &showValues,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if listVariants {
				for _, v := range posemb.Variants {
					fmt.Println(v)
				}
				return nil
			}

			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("usage: posemb inspect <path.pet>")
			}
			f, err := petf.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			fmt.Printf("file:     %s\n", path)
			fmt.Printf("format:   PET v%d.%d\n", f.Header.Major, f.Header.Minor)
			fmt.Printf("dims:     %v\n", f.Dims)
			fmt.Printf("elements: %d\n", f.Elems())
			fmt.Printf("payload:  %d bytes at offset %d\n", len(f.Data), f.Header.DataOffset)

			vals := f.Float32s()
			if len(vals) > 0 {
				min, max := vals[0], vals[0]
				var sq float64
				for _, v := range vals {
					if v < min {
						min = v
					}
					if v > max {
						max = v
					}
					sq += float64(v) * float64(v)
				}
				fmt.Printf("min/max:  %.6f / %.6f\n", min, max)
				fmt.Printf("rms:      %.6f\n", math.Sqrt(sq/float64(len(vals))))
			}
			if n := int(showValues); n > 0 {
				if n > len(vals) {
					n = len(vals)
				}
				fmt.Printf("values:   %v\n", vals[:n])
			}
			return nil
		},
	}
}
