package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getdozer/dozer-cache/pkg/query"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Stream records matching a filter (spec.md §6.3 query)",
	RunE:  runQuery,
}

func init() {
	addQueryFlags(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ep, err := openEndpoint(cmd)
	if err != nil {
		return err
	}
	defer ep.Close()

	schema := ep.Schema()
	expr, err := buildQueryExpression(cmd, schema)
	if err != nil {
		return err
	}

	return ep.Query(expr, func(batch query.RecordBatch) error {
		for _, rec := range batch.Records {
			fmt.Println(recordToLine(schema, rec))
		}
		return nil
	})
}
