package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strategy-engine/services/dsl"
	"strategy-engine/services/indicators"
)

func newValidateCmd() *cobra.Command {
	var strategyFile string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a strategy definition without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			strat, err := dsl.LoadFile(strategyFile)
			if err != nil {
				return err
			}
			res := dsl.NewValidator(indicators.NewRegistry()).Validate(strat)
			for _, issue := range res.Errors {
				fmt.Fprintf(os.Stderr, "error   %-30s %s: %s\n", issue.Field, issue.Code, issue.Message)
			}
			for _, issue := range res.Warnings {
				fmt.Fprintf(os.Stderr, "warning %-30s %s: %s\n", issue.Field, issue.Code, issue.Message)
			}
			if !res.IsValid() {
				return fmt.Errorf("%d validation errors", len(res.Errors))
			}
			fmt.Printf("%s: valid (%d warnings)\n", strat.Name, len(res.Warnings))
			return nil
		},
	}
	cmd.Flags().StringVar(&strategyFile, "strategy", "", "strategy definition file (.json/.yaml)")
	cmd.MarkFlagRequired("strategy")
	return cmd
}
