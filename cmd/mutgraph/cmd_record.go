package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mutgraph/pkg/mutation"
)

func newRecordCmd() *cobra.Command {
	var (
		succ  string
		preds []string
		split []string
		op    string
	)

	cmd := &cobra.Command{
		Use:   "record --succ <node> --pred <node> [--pred <node>]...",
		Short: "Record a commit rewrite in the mutation log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.Mutation.Enabled {
				return fmt.Errorf("mutation tracking is disabled in config")
			}
			store, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entry := mutation.CreateEntry(
				&cfg.Mutation,
				mutation.Node(succ),
				toNodes(preds),
				op,
				toNodes(split),
			)
			count, err := mutation.RecordEntries(store, []*mutation.Entry{entry}, true)
			if err != nil {
				return err
			}
			if count == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: already recorded\n", shortHash(entry.Succ))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s\n", formatEntryLine(entry))
			return nil
		},
	}
	cmd.Flags().StringVar(&succ, "succ", "", "successor commit hash")
	cmd.Flags().StringArrayVar(&preds, "pred", nil, "predecessor commit hash (repeatable)")
	cmd.Flags().StringArrayVar(&split, "split", nil, "split sibling hash (repeatable)")
	cmd.Flags().StringVar(&op, "op", "", "operation name, e.g. amend or rebase")
	cmd.MarkFlagRequired("succ")
	cmd.MarkFlagRequired("pred")
	return cmd
}

func toNodes(hashes []string) []mutation.Node {
	nodes := make([]mutation.Node, len(hashes))
	for i, h := range hashes {
		nodes[i] = mutation.Node(h)
	}
	return nodes
}
