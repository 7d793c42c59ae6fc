package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mutgraph/pkg/dag"
	"github.com/odvcencio/mutgraph/pkg/mutation"
)

func newToposortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toposort <node>...",
		Short: "Order commits so mutation predecessors come first",
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

			// The argument order stands in for revision numbers; the log
			// contributes the predecessor edges. Repeated hashes collapse.
			revs := make(map[mutation.Node]int, len(args))
			nodes := make([]mutation.Node, 0, len(args))
			for _, n := range toNodes(args) {
				if _, ok := revs[n]; ok {
					continue
				}
				revs[n] = len(nodes)
				nodes = append(nodes, n)
			}

			view := mutation.NewView(dag.Unfiltered(), false)
			order, err := mutation.Toposort(store, view, nodes,
				func(n mutation.Node) mutation.Node { return n },
				func(n mutation.Node) (int, bool) { r, ok := revs[n]; return r, ok },
				func(int) []int { return nil },
			)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, node := range order {
				fmt.Fprintln(out, shortHash(node))
			}
			return nil
		},
	}
}
