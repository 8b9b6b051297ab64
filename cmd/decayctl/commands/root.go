package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var outPath string

// Execute runs the decayctl root command
func Execute() error {
	return newRoot().Execute()
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "decayctl",
		Short:        "Collective decay toolkit for cold-atom ensembles",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&outPath, "out", "", "write JSON to a file instead of stdout")

	root.AddCommand(sampleCmd(), couplingsCmd(), loweringCmd(), greenCmd())
	return root
}

// writeOutput marshals v as indented JSON to --out, or stdout when unset
func writeOutput(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if outPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}

// parseFloats splits a comma-separated list like "0.5,1.5" into values
func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}
