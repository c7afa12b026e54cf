package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getdozer/dozer-cache/pkg/query"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// addQueryFlags registers the flags buildQueryExpression reads, shared by
// query and count since both build a QueryExpression (spec.md §6.3).
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("eq", nil, "field=value equality filter (repeatable)")
	cmd.Flags().StringArray("lt", nil, "field=value less-than filter (repeatable)")
	cmd.Flags().StringArray("le", nil, "field=value less-than-or-equal filter (repeatable)")
	cmd.Flags().StringArray("gt", nil, "field=value greater-than filter (repeatable)")
	cmd.Flags().StringArray("ge", nil, "field=value greater-than-or-equal filter (repeatable)")
	cmd.Flags().StringArray("order-by", nil, "field[:desc] to sort by (repeatable, applied in order)")
	cmd.Flags().StringArray("project", nil, "field to include in output (repeatable; default all)")
	cmd.Flags().Int("limit", 0, "maximum rows to return (0 = unlimited)")
	cmd.Flags().Int("skip", 0, "rows to skip before the first returned row")
	cmd.Flags().Int("batch-size", 0, "rows per internal batch (0 = endpoint default)")
}

var filterOps = map[string]query.Op{
	"eq": query.OpEq,
	"lt": query.OpLt,
	"le": query.OpLe,
	"gt": query.OpGt,
	"ge": query.OpGe,
}

func fieldIndex(schema record.Schema, name string) (int, error) {
	for i, f := range schema.Fields {
		if f.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no field named %q in this endpoint's schema", name)
}

// buildQueryExpression assembles a query.QueryExpression from the flags
// addQueryFlags registered, resolving each field=value literal against
// schema.
func buildQueryExpression(cmd *cobra.Command, schema record.Schema) (query.QueryExpression, error) {
	var expr query.QueryExpression

	for flagName, op := range filterOps {
		values, _ := cmd.Flags().GetStringArray(flagName)
		for _, v := range values {
			field, val, err := splitFieldValue(schema, v)
			if err != nil {
				return expr, err
			}
			literal, err := parseFieldLiteral(schema.Fields[field].Type, val)
			if err != nil {
				return expr, err
			}
			expr.Filter = append(expr.Filter, query.Predicate{FieldIndex: field, Op: op, Value: literal})
		}
	}

	orderBy, _ := cmd.Flags().GetStringArray("order-by")
	for _, o := range orderBy {
		name, desc := o, false
		if cut, ok := strings.CutSuffix(o, ":desc"); ok {
			name, desc = cut, true
		}
		idx, err := fieldIndex(schema, name)
		if err != nil {
			return expr, err
		}
		expr.OrderBy = append(expr.OrderBy, query.OrderTerm{FieldIndex: idx, Descending: desc})
	}

	project, _ := cmd.Flags().GetStringArray("project")
	for _, name := range project {
		idx, err := fieldIndex(schema, name)
		if err != nil {
			return expr, err
		}
		expr.Projection = append(expr.Projection, idx)
	}

	expr.Limit, _ = cmd.Flags().GetInt("limit")
	expr.Skip, _ = cmd.Flags().GetInt("skip")
	expr.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	return expr, nil
}

func splitFieldValue(schema record.Schema, s string) (int, string, error) {
	name, val, ok := strings.Cut(s, "=")
	if !ok {
		return 0, "", fmt.Errorf("filter %q is not in field=value form", s)
	}
	idx, err := fieldIndex(schema, name)
	if err != nil {
		return 0, "", err
	}
	return idx, val, nil
}
