package main

import (
	"encoding/json"
	"fmt"

	"github.com/4thel00z/papyrus/internal"
	"github.com/spf13/cobra"
)

func NewIngestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <document>...",
		Short: "Index documents for retrieval",
		Long:  `Extract text from the given documents, chunk it, embed the chunks and build the in-memory vector index.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeIngestRunner(a),
	}

	cmd.Flags().Int("chunk-size", 0, "Words per chunk (overrides config)")
	cmd.Flags().Int("overlap", -1, "Words shared between consecutive chunks (overrides config)")
	return cmd
}

func makeIngestRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyChunkingFlags(cmd, cfg)

		sess, err := a.newSession(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Ingest(cmd.Context(), args); err != nil {
			return err
		}

		chunks, err := waitIngest(sess)
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(map[string]any{"chunks": chunks, "documents": len(args)})
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d chunks indexed from %d documents\n", chunks, len(args))
		return nil
	}
}

func applyChunkingFlags(cmd *cobra.Command, cfg *internal.Config) {
	if size, _ := cmd.Flags().GetInt("chunk-size"); size > 0 {
		cfg.Chunking.Size = size
	}
	if overlap, _ := cmd.Flags().GetInt("overlap"); overlap >= 0 {
		cfg.Chunking.Overlap = overlap
	}
}
