package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openpricing/zigdag/dag"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [model.json]",
		Short: "Parse and validate a model without building anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := dag.ParseFile(args[0])
			if err != nil {
				return err
			}
			plan, err := dag.Validate(g)
			if err != nil {
				return err
			}
			fmt.Printf("ok: %s (%d nodes, %d numeric inputs, %d string inputs)\n",
				g.Name, len(g.Nodes), len(plan.NumericInputs), len(plan.StringInputs))
			return nil
		},
	}
}
