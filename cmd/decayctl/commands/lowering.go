package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kimkyngt/decay-dynamics/internal/modules/operators"
)

func loweringCmd() *cobra.Command {
	var (
		spinsArg string
		q        int
		upper    int
		lower    int
		raising  bool
	)

	cmd := &cobra.Command{
		Use:   "lowering",
		Short: "Build a Clebsch-Gordan weighted lowering operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			spins, err := parseFloats(spinsArg)
			if err != nil {
				return err
			}

			svc := operators.NewService(zerolog.Nop())
			build := svc.Lowering
			if raising {
				build = svc.Raising
			}

			matrix, err := build(q, spins, upper, lower)
			if err != nil {
				return err
			}
			return writeOutput(matrix)
		},
	}

	cmd.Flags().StringVar(&spinsArg, "spins", "0.5,0.5", "manifold F values, comma separated")
	cmd.Flags().IntVar(&q, "q", 0, "polarization index: -1, 0 or +1")
	cmd.Flags().IntVar(&upper, "upper", 0, "upper manifold index into --spins")
	cmd.Flags().IntVar(&lower, "lower", 1, "lower manifold index into --spins")
	cmd.Flags().BoolVar(&raising, "raising", false, "build the adjoint raising operator instead")
	return cmd
}
