package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the endpoint's record schema (spec.md §6.3 schema)",
	RunE:  runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	ep, err := openEndpoint(cmd)
	if err != nil {
		return err
	}
	defer ep.Close()

	schema := ep.Schema()
	pk := make(map[int]bool, len(schema.PrimaryIndex))
	for _, idx := range schema.PrimaryIndex {
		pk[idx] = true
	}
	for i, f := range schema.Fields {
		marker := ""
		if pk[i] {
			marker = " [primary]"
		}
		nullable := ""
		if f.Nullable {
			nullable = " nullable"
		}
		fmt.Printf("%d\t%s\t%s%s%s\n", i, f.Name, f.Type, nullable, marker)
	}
	return nil
}
