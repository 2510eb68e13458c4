package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kadirbelkuyu/dyntables/internal/definitions"
	"github.com/kadirbelkuyu/dyntables/internal/domain"
	"github.com/kadirbelkuyu/dyntables/pkg/progress"
)

// RowFailure is a record that was rejected during an import.
type RowFailure struct {
	Index int
	Err   error
}

type ImportResult struct {
	Inserted int
	Failed   []RowFailure
}

// ReadRecords decodes a YAML or JSON list of field-name to value mappings.
func ReadRecords(r io.Reader) ([]map[string]any, error) {
	var records []map[string]any
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	return records, nil
}

// ImportRows inserts records one by one through InsertRow. Records failing
// validation are collected and skipped; any other error stops the import.
func (s *Service) ImportRows(ctx context.Context, tableID int64, records []map[string]any, bar *progress.Bar) (ImportResult, error) {
	var result ImportResult
	defer bar.Finish()

	for i, record := range records {
		_, err := s.InsertRow(ctx, tableID, record)
		bar.Increment()

		switch {
		case err == nil:
			result.Inserted++
		case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrTypeMismatch):
			result.Failed = append(result.Failed, RowFailure{Index: i, Err: err})
		default:
			return result, fmt.Errorf("import stopped at record %d: %w", i, err)
		}
	}

	s.logger.Infof("Imported %d of %d records into table %d", result.Inserted, len(records), tableID)
	return result, nil
}

// ExportDefinition saves a table's current definition as a definition file.
func (s *Service) ExportDefinition(ctx context.Context, tableID int64, manager *definitions.Manager, alias string) (definitions.Entry, error) {
	table, err := s.GetTable(ctx, tableID)
	if err != nil {
		return definitions.Entry{}, err
	}
	return manager.Save(alias, definitions.FromTable(table))
}
