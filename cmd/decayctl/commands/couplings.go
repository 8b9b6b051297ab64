package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kimkyngt/decay-dynamics/pkg/atom"
	"github.com/kimkyngt/decay-dynamics/pkg/dipole"
)

// couplings --positions file.json: the file holds [[x,y,z], ...].
func couplingsCmd() *cobra.Command {
	var (
		positionsPath string
		k             float64
		gamma         float64
		q             int
	)

	cmd := &cobra.Command{
		Use:   "couplings",
		Short: "Compute dipole-dipole shift and decay matrices",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(positionsPath)
			if err != nil {
				return fmt.Errorf("failed to read positions file: %w", err)
			}

			var triples [][3]float64
			if err := json.Unmarshal(data, &triples); err != nil {
				return fmt.Errorf("failed to parse positions file: %w", err)
			}
			if len(triples) == 0 {
				return fmt.Errorf("no positions in %s", positionsPath)
			}

			pol, err := atom.SphericalBasis(q)
			if err != nil {
				return err
			}

			positions := make([]r3.Vec, len(triples))
			for i, t := range triples {
				positions[i] = r3.Vec{X: t[0], Y: t[1], Z: t[2]}
			}

			shift, decay := dipole.CouplingMatrices(positions, k, gamma, pol)

			return writeOutput(map[string]interface{}{
				"shift": symRows(shift),
				"decay": symRows(decay),
			})
		},
	}

	cmd.Flags().StringVar(&positionsPath, "positions", "", "JSON file with [[x,y,z], ...] positions")
	cmd.Flags().Float64Var(&k, "k", 0, "transition wavenumber")
	cmd.Flags().Float64Var(&gamma, "gamma", 1, "single-atom linewidth")
	cmd.Flags().IntVar(&q, "q", 0, "polarization index: -1, 0 or +1")
	_ = cmd.MarkFlagRequired("positions")
	_ = cmd.MarkFlagRequired("k")
	return cmd
}

func symRows(m *mat.SymDense) [][]float64 {
	n := m.SymmetricDim()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}
