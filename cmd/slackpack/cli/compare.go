package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/slackpack/internal/engine"
	"github.com/piwi3910/slackpack/internal/geom"
)

func newCompareCmd() *cobra.Command {
	var (
		gamma     float64
		n0        int
		maxPlaced int
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run a base configuration against gamma/n0 variants and report the outcome of each",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, _ := buildGenerator("square", n0, true)
			w, h := gen.BaseSize()
			sheet := geom.New(geom.Point{}, geom.Point{X: w, Y: h}, "sheet", geom.TypeLRP)

			scenarios := engine.BuildDefaultScenarios(gamma, n0, maxPlaced)
			results := engine.CompareScenarios(sheet, scenarios)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-28s %10s %10s %10s %s\n", "scenario", "details", "boxes", "endpoints", "error")
			for _, r := range results {
				errMsg := ""
				if r.Err != nil {
					errMsg = r.Err.Error()
				}
				fmt.Fprintf(out, "%-28s %10d %10d %10d %s\n",
					r.Scenario.Name, r.DetailCount, r.NormalBoxes, r.Endpoints, errMsg)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&gamma, "gamma", 4.0/3.0, "base slack exponent gamma")
	cmd.Flags().IntVar(&n0, "n0", 10, "base starting detail index n0")
	cmd.Flags().IntVar(&maxPlaced, "max-placed", 200, "number of details to place per scenario")

	return cmd
}
