package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mutgraph/pkg/mutation"
)

func newLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "List every entry in the mutation log",
		Args:  cobra.NoArgs,
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

			entries, err := store.Entries()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				fmt.Fprintln(out, formatEntryLine(entry))
			}
			return nil
		},
	}
}

func formatEntryLine(entry *mutation.Entry) string {
	preds := make([]string, len(entry.Preds))
	for i, p := range entry.Preds {
		preds[i] = shortHash(p)
	}
	op := entry.Op
	if op == "" {
		op = "rewrite"
	}
	line := fmt.Sprintf("%s %s <- %s", shortHash(entry.Succ), op, strings.Join(preds, ","))
	if entry.Time != 0 {
		line += " " + time.Unix(entry.Time, 0).UTC().Format(time.RFC3339)
	}
	if entry.User != "" {
		line += " " + entry.User
	}
	return line
}

func shortHash(n mutation.Node) string {
	s := string(n)
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
