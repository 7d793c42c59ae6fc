package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mutgraph/pkg/dag"
	"github.com/odvcencio/mutgraph/pkg/mutation"
)

func newPredsCmd() *cobra.Command {
	var closest bool

	cmd := &cobra.Command{
		Use:   "preds <node>",
		Short: "Resolve the commits a commit replaced",
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

			view := mutation.NewView(dag.Unfiltered(), false)
			preds, err := mutation.PredecessorsSet(store, view, mutation.Node(args[0]), closest)
			if err != nil {
				return err
			}
			short := make([]string, len(preds))
			for i, p := range preds {
				short[i] = shortHash(p)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(short, " "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&closest, "closest", false, "stop at the nearest resolved predecessors")
	return cmd
}
