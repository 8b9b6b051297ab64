package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kimkyngt/decay-dynamics/internal/modules/geometry"
)

func sampleCmd() *cobra.Command {
	var (
		method string
		count  int
		radius float64
		seed   uint64
		na     float64
		theta  float64
		phi    float64
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample atom positions on a sphere",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := geometry.NewService(zerolog.Nop())

			req := geometry.SampleRequest{
				Method:      method,
				Count:       count,
				Radius:      radius,
				NA:          na,
				ThetaTarget: theta,
				PhiTarget:   phi,
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}

			result, err := svc.Sample(req)
			if err != nil {
				return err
			}
			return writeOutput(result)
		},
	}

	cmd.Flags().StringVar(&method, "method", geometry.MethodFibonacci, "sampling method: fibonacci, uniform or cone")
	cmd.Flags().IntVar(&count, "n", 10, "number of positions")
	cmd.Flags().Float64Var(&radius, "radius", 1, "sphere radius")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "RNG seed (random when omitted)")
	cmd.Flags().Float64Var(&na, "na", 0.3, "numerical aperture of the cone method")
	cmd.Flags().Float64Var(&theta, "theta", 0, "cone axis polar angle in radians")
	cmd.Flags().Float64Var(&phi, "phi", 0, "cone axis azimuthal angle in radians")
	return cmd
}
