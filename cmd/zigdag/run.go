package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openpricing/zigdag/dag"
	"github.com/openpricing/zigdag/exec"
)

func runCmd() *cobra.Command {
	var numericFlags map[string]string
	var stringFlags map[string]string

	cmd := &cobra.Command{
		Use:   "run [model.json]",
		Short: "Evaluate a model once with the interpreted executor and print the result",
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

			e := exec.New(g, plan)
			for id, raw := range numericFlags {
				var v float64
				if _, err := fmt.Sscanf(raw, "%g", &v); err != nil {
					return fmt.Errorf("--num %s=%s: %w", id, raw, err)
				}
				if err := e.SetInputNum(id, v); err != nil {
					return err
				}
			}
			for id, v := range stringFlags {
				if err := e.SetInputStr(id, v); err != nil {
					return err
				}
			}

			out, err := e.GetOutput()
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().StringToStringVar(&numericFlags, "num", nil, "numeric input, id=value (repeatable)")
	cmd.Flags().StringToStringVar(&stringFlags, "str", nil, "string input, id=value (repeatable)")
	return cmd
}
