package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kimkyngt/decay-dynamics/pkg/dipole"
)

func greenCmd() *cobra.Command {
	var (
		rArg string
		k    float64
	)

	cmd := &cobra.Command{
		Use:   "green",
		Short: "Evaluate the electromagnetic Green tensor at a separation",
		RunE: func(cmd *cobra.Command, args []string) error {
			coords, err := parseFloats(rArg)
			if err != nil {
				return err
			}
			if len(coords) != 3 {
				return fmt.Errorf("--r needs exactly three components, got %d", len(coords))
			}

			g := dipole.GreenTensor(r3.Vec{X: coords[0], Y: coords[1], Z: coords[2]}, k)

			re := make([][]float64, 3)
			im := make([][]float64, 3)
			for i := 0; i < 3; i++ {
				re[i] = make([]float64, 3)
				im[i] = make([]float64, 3)
				for j := 0; j < 3; j++ {
					v := g.At(i, j)
					re[i][j] = real(v)
					im[i][j] = imag(v)
				}
			}

			return writeOutput(map[string]interface{}{
				"real": re,
				"imag": im,
			})
		},
	}

	cmd.Flags().StringVar(&rArg, "r", "", "separation vector as x,y,z")
	cmd.Flags().Float64Var(&k, "k", 0, "transition wavenumber")
	_ = cmd.MarkFlagRequired("r")
	_ = cmd.MarkFlagRequired("k")
	return cmd
}
