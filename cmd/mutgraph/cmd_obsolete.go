package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mutgraph/pkg/dag"
	"github.com/odvcencio/mutgraph/pkg/mutation"
)

func newObsoleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "obsolete <node>...",
		Short: "Report whether commits have been superseded",
		Args:  cobra.MinimumNArgs(1),
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
			cache := view.Obsolete()
			out := cmd.OutOrStdout()
			for _, arg := range args {
				node := mutation.Node(arg)
				obsolete, err := cache.IsObsolete(store, view, node)
				if err != nil {
					return err
				}
				state := "not obsolete"
				if obsolete {
					state = "obsolete"
				}
				fmt.Fprintf(out, "%s: %s\n", shortHash(node), state)
			}
			return nil
		},
	}
}
