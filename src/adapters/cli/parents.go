package cli

import (
	"fmt"

	"backoffice/src/domain"
	"backoffice/src/services/hierarchy"

	"github.com/spf13/cobra"
)

func newParentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parents",
		Short: "List the records that can be chosen as parent",
		Long:  "Without --serial every record is listed, as for a record being created.",
		Args:  cobra.NoArgs,
		RunE:  runParents,
	}

	cmd.Flags().String("serial", "", "serial id of the record being edited")

	return cmd
}

func runParents(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	serialID, _ := cmd.Flags().GetString("serial")

	records, err := LoadRecords(file)
	if err != nil {
		return err
	}

	if serialID == "" {
		return RenderRecords(cmd.OutOrStdout(), hierarchy.LegalParents(nil, records))
	}

	target, found := hierarchy.NewSnapshot(records).Find(serialID)
	if !found {
		return fmt.Errorf("serial %s: %w", serialID, domain.ErrRecordNotFound)
	}

	return RenderRecords(cmd.OutOrStdout(), hierarchy.LegalParents(&target, records))
}
