// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().IntP("top-k", "k", 0, "number of chunks to return (default 5, capped at 20)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	app, err := WireApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("closing subsystems", "error", err)
		}
	}()

	topK, _ := cmd.Flags().GetInt("top-k")
	queryText := strings.Join(args, " ")

	results, err := app.Query.FindDocumentsSimilarTo(cmd.Context(), queryText, topK)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		_, err := fmt.Fprintln(out, "no matches")
		return err
	}

	for i, r := range results {
		header := r.Title
		if r.CorrespondentName != "" {
			header += " - " + r.CorrespondentName
		}
		if _, err := fmt.Fprintf(out, "%2d. [doc %d, score %.4f] %s\n    %s\n", i+1, r.PaperlessDocID, r.Score, header, r.Snippet); err != nil {
			return err
		}
	}
	return nil
}
