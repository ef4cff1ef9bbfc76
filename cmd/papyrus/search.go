package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func NewSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Retrieve the document fragments most similar to a query",
		Long:  `Ingest the given documents and print the top-k fragments ranked by cosine similarity, without invoking the model.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeSearchRunner(a),
	}

	cmd.Flags().StringArrayP("doc", "d", nil, "Document to search in (repeatable)")
	cmd.Flags().IntP("top-k", "k", 0, "Number of fragments to return (overrides config)")
	_ = cmd.MarkFlagRequired("doc")
	return cmd
}

func makeSearchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		query := args[0]
		docs, _ := cmd.Flags().GetStringArray("doc")
		k, _ := cmd.Flags().GetInt("top-k")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		sess, err := a.newSession(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Ingest(cmd.Context(), docs); err != nil {
			return err
		}
		if _, err := waitIngest(sess); err != nil {
			return fmt.Errorf("ingest: %w", err)
		}

		results, err := sess.Search(cmd.Context(), query, k)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f  (Page %d) %s\n", r.Score, r.Page, r.Text)
		}
		return nil
	}
}
