package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mutgraph/pkg/dag"
	"github.com/odvcencio/mutgraph/pkg/mutation"
)

func newSuccsCmd() *cobra.Command {
	var closest bool

	cmd := &cobra.Command{
		Use:   "succs <node>",
		Short: "Resolve the commits that replaced a commit",
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
			sets, err := mutation.SuccessorsSets(store, view, mutation.Node(args[0]), closest)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, set := range sets {
				short := make([]string, len(set))
				for i, s := range set {
					short[i] = shortHash(s)
				}
				fmt.Fprintln(out, strings.Join(short, " "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&closest, "closest", false, "stop at the nearest visible successors")
	return cmd
}
