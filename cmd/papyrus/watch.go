package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-index a directory of documents on change",
		Long:  `Watch a directory and rebuild the index whenever documents are added, changed or removed. Useful while iterating on a document set.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeWatchRunner(a),
	}

	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	return cmd
}

func makeWatchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		debounce, _ := cmd.Flags().GetDuration("debounce")

		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("watch dir: %w", err)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		sess, err := a.newSession(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("add watch dir: %w", err)
		}

		reindex := func() {
			docs, err := listDocuments(dir)
			if err != nil || len(docs) == 0 {
				return
			}
			if err := sess.Ingest(cmd.Context(), docs); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "ingest: %v\n", err)
				return
			}
			chunks, err := waitIngest(sess)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "ingest: %v\n", err)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d chunks indexed from %d documents\n", chunks, len(docs))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", dir)
		reindex()

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !isDocumentEvent(event) {
					continue
				}
				if !pending {
					timer.Reset(debounce)
					pending = true
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				pending = false
				reindex()
			}
		}
	}
}

func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var docs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			docs = append(docs, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(docs)
	return docs, nil
}

func isDocumentEvent(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
