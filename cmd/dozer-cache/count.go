package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count records matching a filter (spec.md §6.3 count)",
	RunE:  runCount,
}

func init() {
	addQueryFlags(countCmd)
}

func runCount(cmd *cobra.Command, args []string) error {
	ep, err := openEndpoint(cmd)
	if err != nil {
		return err
	}
	defer ep.Close()

	expr, err := buildQueryExpression(cmd, ep.Schema())
	if err != nil {
		return err
	}

	n, err := ep.Count(expr)
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}
