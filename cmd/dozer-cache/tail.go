package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getdozer/dozer-cache/pkg/oplog"
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the operation log from an op-id (spec.md §6.3 subscribe)",
	RunE:  runTail,
}

func init() {
	tailCmd.Flags().Uint64("from", 0, "op-id to start tailing from")
}

func runTail(cmd *cobra.Command, args []string) error {
	ep, err := openEndpoint(cmd)
	if err != nil {
		return err
	}
	defer ep.Close()

	fromOpID, _ := cmd.Flags().GetUint64("from")
	events, cancel, err := ep.Subscribe(fromOpID)
	if err != nil {
		return err
	}
	defer cancel()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			printOperation(evt.OperationID, evt.Operation)
		}
	}
}

func printOperation(opID uint64, op oplog.Operation) {
	switch op.Kind {
	case oplog.OperationKindDelete:
		fmt.Printf("#%d\tdelete\tretires=%d\n", opID, op.DeleteOperationID)
	case oplog.OperationKindInsert:
		values := make([]string, len(op.Record.Values))
		for i, v := range op.Record.Values {
			values[i] = fieldToString(v)
		}
		fmt.Printf("#%d\tinsert\tid=%d\tversion=%d\t%v\n", opID, op.RecordMeta.ID, op.RecordMeta.Version, values)
	}
}
