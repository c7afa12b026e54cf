package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getdozer/dozer-cache/pkg/codec"
)

var getCmd = &cobra.Command{
	Use:   "get <primary-key-value>",
	Short: "Fetch one record by its primary key (spec.md §6.3 get)",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	ep, err := openEndpoint(cmd)
	if err != nil {
		return err
	}
	defer ep.Close()

	schema := ep.Schema()
	if len(schema.PrimaryIndex) != 1 {
		return fmt.Errorf("get: endpoint has a %d-column primary key; pass the encoded key via a future --pk-bytes flag", len(schema.PrimaryIndex))
	}
	field, err := parseFieldLiteral(schema.Fields[schema.PrimaryIndex[0]].Type, args[0])
	if err != nil {
		return err
	}
	pkBytes := codec.EncodeField(field)

	rec, ok, err := ep.Get(pkBytes)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("not found")
		return nil
	}
	fmt.Println(recordToLine(schema, rec))
	return nil
}
