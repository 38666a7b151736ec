package cli

import (
	"fmt"
	"time"

	"backoffice/src/infra/filewatch"

	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render the hierarchy whenever the file changes",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}

	cmd.Flags().StringP("search", "s", "", "keep only matches and their ancestors")
	cmd.Flags().Duration("debounce", 300*time.Millisecond, "quiet period before re-rendering")

	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	term, _ := cmd.Flags().GetString("search")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	opts, err := assembleOptions(cmd)
	if err != nil {
		return err
	}

	if err := renderTree(cmd, file, term, opts); err != nil {
		return err
	}

	watcher, err := filewatch.NewWatcher(cmd.Context(), file)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	if err := watcher.Start(debounce); err != nil {
		return err
	}

	for {
		select {
		case <-cmd.Context().Done():
			return nil

		case _, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "--- %s reloaded at %s\n", file, time.Now().Format(time.TimeOnly))
			// Um arquivo salvo pela metade não derruba o watch
			if err := renderTree(cmd, file, term, opts); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}

		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: watcher error: %v\n", err)
		}
	}
}
