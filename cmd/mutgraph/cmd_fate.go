package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mutgraph/pkg/dag"
	"github.com/odvcencio/mutgraph/pkg/mutation"
)

func newFateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fate <node>",
		Short: "Describe what happened to a rewritten commit",
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
			view := mutation.NewView(dag.Unfiltered(), false)
			fates, err := mutation.Fate(store, view, node)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(fates) == 0 {
				fmt.Fprintf(out, "%s: not rewritten\n", shortHash(node))
				return nil
			}
			for _, f := range fates {
				fmt.Fprintf(out, "%s: %s\n", shortHash(node), f.Summary())
			}
			return nil
		},
	}
}
