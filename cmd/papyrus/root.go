package main

import (
	"fmt"

	"github.com/4thel00z/papyrus/internal"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "papyrus",
		Short:         "Ask questions grounded in your PDFs",
		Long:          `Retrieval-augmented question answering over local documents with a local or hosted language model.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	if a != nil {
		rootCmd.AddCommand(
			NewIngestCmd(a),
			NewAskCmd(a),
			NewChatCmd(a),
			NewSearchCmd(a),
			NewFetchCmd(a),
			NewWatchCmd(a),
		)
	}

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*internal.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return internal.DefaultConfig(), nil
	}

	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// waitIngest drains session events until the pending ingestion reports
// back, returning the indexed chunk count.
func waitIngest(sess *internal.Session) (int, error) {
	for ev := range sess.Events() {
		switch ev.Kind {
		case internal.EventIngestComplete:
			return ev.Chunks, ev.Err
		case internal.EventError:
			return 0, ev.Err
		}
	}
	return 0, fmt.Errorf("session closed before ingestion finished")
}

// streamAnswer forwards token events to out until the generation
// terminates, returning the terminal error if any.
func streamAnswer(sess *internal.Session, out func(token string)) error {
	for ev := range sess.Events() {
		switch ev.Kind {
		case internal.EventToken:
			out(ev.Token)
		case internal.EventGenerationDone:
			return nil
		case internal.EventError:
			return ev.Err
		}
	}
	return fmt.Errorf("session closed before generation finished")
}
