package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mutgraph/pkg/bundle"
)

func newBundleCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "bundle <node>...",
		Short: "Write the mutation history of commits to a bundle file",
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

			data, err := bundle.Bundle(store, toNodes(args))
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write bundle: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(data), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "mutation.bundle", "output file")
	return cmd
}

func newUnbundleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unbundle <file>",
		Short: "Merge a mutation bundle into the log",
		Args:  cobra.ExactArgs(1),
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

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read bundle: %w", err)
			}
			count, err := bundle.Unbundle(store, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %d new entries\n", count)
			return nil
		},
	}
}
