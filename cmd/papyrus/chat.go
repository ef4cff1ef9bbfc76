package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewChatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <question>",
		Short: "Ask the model anything, without retrieval",
		Long:  `Stream an answer straight from the model. No documents are consulted, only the model needs to be available.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeChatRunner(a),
	}

	cmd.Flags().StringP("model", "m", "", "Generation model path (overrides config)")
	return cmd
}

func makeChatRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		sess, err := a.newSession(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.LoadModel(resolveModelPath(cmd, cfg)); err != nil {
			return err
		}

		if err := sess.Ask(cmd.Context(), args[0]); err != nil {
			return err
		}

		err = streamAnswer(sess, func(token string) {
			fmt.Fprint(cmd.OutOrStdout(), token)
		})
		fmt.Fprintln(cmd.OutOrStdout())
		return err
	}
}
