package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mutgraph",
		Short:         "Inspect and edit commit mutation logs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("store", ".mutgraph/log.db", "path to the mutation log")
	root.PersistentFlags().String("config", "mutgraph.toml", "path to the config file")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newRecordCmd())
	root.AddCommand(newPredsCmd())
	root.AddCommand(newSuccsCmd())
	root.AddCommand(newFateCmd())
	root.AddCommand(newObsoleteCmd())
	root.AddCommand(newToposortCmd())
	root.AddCommand(newBundleCmd())
	root.AddCommand(newUnbundleCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "mutgraph 0.1.0-dev")
		},
	}
}
