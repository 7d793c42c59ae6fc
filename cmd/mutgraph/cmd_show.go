package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mutgraph/pkg/mutation"
)

func newShowCmd() *cobra.Command {
	var closure bool

	cmd := &cobra.Command{
		Use:   "show <node>",
		Short: "Show the mutation entry for a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			node := mutation.Node(args[0])
			out := cmd.OutOrStdout()

			if closure {
				adjacency, err := store.GetDag([]mutation.Node{node})
				if err != nil {
					return err
				}
				succs := make([]mutation.Node, 0, len(adjacency))
				for succ := range adjacency {
					succs = append(succs, succ)
				}
				slices.Sort(succs)
				for _, succ := range succs {
					preds := make([]string, len(adjacency[succ]))
					for i, p := range adjacency[succ] {
						preds[i] = shortHash(p)
					}
					fmt.Fprintf(out, "%s <- %s\n", shortHash(succ), strings.Join(preds, ","))
				}
				return nil
			}

			entry, err := mutation.LookupSplit(store, node)
			if err != nil {
				return err
			}
			if entry == nil {
				fmt.Fprintf(out, "%s: no mutation entry\n", shortHash(node))
				return nil
			}
			fmt.Fprintf(out, "succ: %s\n", entry.Succ)
			for _, p := range entry.Preds {
				fmt.Fprintf(out, "pred: %s\n", p)
			}
			for _, s := range entry.Split {
				fmt.Fprintf(out, "split: %s\n", s)
			}
			if entry.Op != "" {
				fmt.Fprintf(out, "op: %s\n", entry.Op)
			}
			if entry.User != "" {
				fmt.Fprintf(out, "user: %s\n", entry.User)
			}
			if entry.Time != 0 {
				fmt.Fprintf(out, "date: %s\n", time.Unix(entry.Time, 0).UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&closure, "closure", false, "show the mutation closure around the commit")
	return cmd
}
