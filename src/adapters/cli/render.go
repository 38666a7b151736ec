package cli

import (
	"fmt"
	"io"
	"strings"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
)

// RenderFlat imprime a visão plana, dois espaços por nível. "+" marca nós com filhos.
func RenderFlat(w io.Writer, flat []*domain.Node) error {
	if len(flat) == 0 {
		_, err := fmt.Fprintln(w, "(no records)")
		return err
	}

	for _, node := range flat {
		marker := "-"
		if node.Expandable {
			marker = "+"
		}
		if _, err := fmt.Fprintf(w, "%s%s %s [%s]\n", strings.Repeat("  ", node.Level), marker, node.Name, node.SerialID); err != nil {
			return err
		}
	}
	return nil
}

func RenderRecords(w io.Writer, records []entities.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "(no records)")
		return err
	}

	for _, record := range records {
		if _, err := fmt.Fprintf(w, "%s [%s]\n", record.Name, record.SerialID); err != nil {
			return err
		}
	}
	return nil
}
