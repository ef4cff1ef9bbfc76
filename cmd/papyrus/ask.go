package main

import (
	"fmt"

	"github.com/4thel00z/papyrus/internal"
	"github.com/spf13/cobra"
)

func NewAskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from your documents",
		Long:  `Ingest the given documents, retrieve the fragments most relevant to the question and stream a grounded answer from the model.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeAskRunner(a),
	}

	cmd.Flags().StringArrayP("doc", "d", nil, "Document to ground the answer in (repeatable)")
	cmd.Flags().StringP("model", "m", "", "Generation model path (overrides config)")
	cmd.Flags().IntP("top-k", "k", 0, "Number of fragments to retrieve (overrides config)")
	_ = cmd.MarkFlagRequired("doc")
	return cmd
}

func makeAskRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		question := args[0]
		docs, _ := cmd.Flags().GetStringArray("doc")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if k, _ := cmd.Flags().GetInt("top-k"); k > 0 {
			cfg.Retrieval.TopK = k
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

		if err := sess.LoadModel(resolveModelPath(cmd, cfg)); err != nil {
			return err
		}

		if err := sess.AskDocuments(cmd.Context(), question); err != nil {
			return err
		}

		err = streamAnswer(sess, func(token string) {
			fmt.Fprint(cmd.OutOrStdout(), token)
		})
		fmt.Fprintln(cmd.OutOrStdout())
		return err
	}
}

func resolveModelPath(cmd *cobra.Command, cfg *internal.Config) string {
	if path, _ := cmd.Flags().GetString("model"); path != "" {
		return path
	}
	return cfg.Generation.ModelPath
}
