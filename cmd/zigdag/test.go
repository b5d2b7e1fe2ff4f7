package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openpricing/zigdag/dag"
	"github.com/openpricing/zigdag/exec"
)

// testCase is one line of a JSON Lines fixture file: named dynamic input
// values and the expected funnel output.
type testCase struct {
	Name     string             `json:"name"`
	Numeric  map[string]float64 `json:"numeric"`
	String   map[string]string  `json:"string"`
	Expected float64            `json:"expected"`
}

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test [model.json] [cases.jsonl]",
		Short: "Run the interpreted executor against a JSON Lines fixture file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := dag.ParseFile(args[0])
			if err != nil {
				return err
			}
			plan, err := dag.Validate(g)
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			scanner := bufio.NewScanner(f)
			total, failed := 0, 0
			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}
				var tc testCase
				if err := json.Unmarshal(line, &tc); err != nil {
					return fmt.Errorf("parse case: %w", err)
				}
				total++

				e := exec.New(g, plan)
				ok := true
				for id, v := range tc.Numeric {
					if err := e.SetInputNum(id, v); err != nil {
						fmt.Printf("FAIL %s: %v\n", tc.Name, err)
						ok = false
					}
				}
				for id, v := range tc.String {
					if err := e.SetInputStr(id, v); err != nil {
						fmt.Printf("FAIL %s: %v\n", tc.Name, err)
						ok = false
					}
				}
				if !ok {
					failed++
					continue
				}

				got, err := e.GetOutput()
				if err != nil {
					fmt.Printf("FAIL %s: %v\n", tc.Name, err)
					failed++
					continue
				}
				if got != tc.Expected {
					fmt.Printf("FAIL %s: got %g, want %g\n", tc.Name, got, tc.Expected)
					failed++
					continue
				}
				fmt.Printf("PASS %s\n", tc.Name)
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			fmt.Printf("%d/%d passed\n", total-failed, total)
			if failed > 0 {
				return fmt.Errorf("%d case(s) failed", failed)
			}
			return nil
		},
	}
}
