package main

import (
	"fmt"

	"github.com/4thel00z/papyrus/internal"
	"github.com/spf13/cobra"
)

func NewFetchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the default embedding model",
		Long:  `Fetch the default embedding model into the local cache so sessions can run without extra configuration.`,
		Args:  cobra.NoArgs,
		RunE:  makeFetchRunner(a),
	}

	cmd.Flags().String("url", internal.DefaultEmbeddingModelURL, "Model URL")
	cmd.Flags().String("token", "", "Bearer token for the model host")
	return cmd
}

func makeFetchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		url, _ := cmd.Flags().GetString("url")
		token, _ := cmd.Flags().GetString("token")

		cacheDir, err := internal.DefaultCacheDir()
		if err != nil {
			return fmt.Errorf("resolve cache dir: %w", err)
		}

		dl := internal.NewDownloader(cacheDir, token)

		var lastPct int64 = -1
		path, err := dl.EnsureModel(cmd.Context(), url, internal.DefaultEmbeddingModelFilename, func(written, total int64) {
			if total <= 0 {
				return
			}
			pct := written * 100 / total
			if pct != lastPct {
				lastPct = pct
				fmt.Fprintf(cmd.OutOrStdout(), "\rdownloading... %d%%", pct)
			}
		})
		if err != nil {
			return fmt.Errorf("fetch model: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nModel ready at %s\n", path)
		return nil
	}
}
