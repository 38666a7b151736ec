package cli

import (
	"backoffice/src/services/hierarchy"

	"github.com/spf13/cobra"
)

func newTreeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the indented hierarchy",
		Args:  cobra.NoArgs,
		RunE:  runTree,
	}

	cmd.Flags().StringP("search", "s", "", "keep only matches and their ancestors")

	return cmd
}

func runTree(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	term, _ := cmd.Flags().GetString("search")

	opts, err := assembleOptions(cmd)
	if err != nil {
		return err
	}

	return renderTree(cmd, file, term, opts)
}

func renderTree(cmd *cobra.Command, file string, term string, opts []hierarchy.Option) error {
	records, err := LoadRecords(file)
	if err != nil {
		return err
	}

	assembly := hierarchy.NewSnapshot(records, opts...).Search(term)
	return RenderFlat(cmd.OutOrStdout(), assembly.Flat)
}
