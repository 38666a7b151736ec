package cli

import (
	"fmt"

	"backoffice/src/services/hierarchy"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

// NewRootCommand monta o hierctl: inspeção offline de árvores exportadas em JSON.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hierctl",
		Short: "Inspect department and financial account hierarchies",
		Long: `hierctl assembles a hierarchy from a JSON export of records and prints the
indented view used by the back office, optionally filtered by a search term.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringP("file", "f", "", "JSON file with the records (array or {\"records\": [...]})")
	cmd.PersistentFlags().String("lang", "und", "BCP 47 tag used to collate names")
	_ = cmd.MarkPersistentFlagRequired("file")

	cmd.AddCommand(
		newTreeCommand(),
		newParentsCommand(),
		newWatchCommand(),
	)

	return cmd
}

func assembleOptions(cmd *cobra.Command) ([]hierarchy.Option, error) {
	lang, _ := cmd.Flags().GetString("lang")

	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("invalid --lang %q: %w", lang, err)
	}

	return []hierarchy.Option{hierarchy.WithLanguage(tag)}, nil
}
