package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kadirbelkuyu/dyntables/internal/app"
	"github.com/kadirbelkuyu/dyntables/internal/definitions"
	"github.com/kadirbelkuyu/dyntables/internal/domain"
	"github.com/kadirbelkuyu/dyntables/internal/journal"
	"github.com/kadirbelkuyu/dyntables/pkg/progress"

	"github.com/spf13/cobra"
)

func runInit(cmd *cobra.Command, args []string) error {
	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.service.Bootstrap(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("Catalog is ready.")
	return nil
}

func runTables(cmd *cobra.Command, args []string) error {
	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	tables, err := env.service.ListTables(cmd.Context())
	if err != nil {
		return err
	}

	for _, table := range tables {
		fmt.Printf("%d. %s\n", table.ID, table.Name)
		for _, col := range table.Columns {
			fmt.Printf("   %-4d %-32s %-8s null=%-5t blank=%t\n", col.ID, col.Name, col.Type.Label(), col.Nullable, col.Blankable)
		}
	}
	fmt.Printf("\nTotal tables: %d\n", len(tables))
	return nil
}

func runCreateTable(cmd *cobra.Command, args []string) error {
	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	var req *domain.CreateTableRequest
	if definitionFile != "" {
		req, err = definitions.LoadFile(definitionFile)
	} else {
		req, err = env.definitions.Load(definitionName)
	}
	if err != nil {
		return err
	}

	table, err := env.service.CreateTable(cmd.Context(), *req)
	if err != nil {
		return err
	}
	return printJSON(table)
}

func runAlter(cmd *cobra.Command, args []string) error {
	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	table, err := env.service.ResolveTable(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	req := domain.AlterRequest{Action: alterAction}
	flags := cmd.Flags()
	if flags.Changed("id") {
		req.ID = &alterID
	}
	if flags.Changed("name") {
		req.Name = &alterName
	}
	if flags.Changed("type") {
		req.Type = &alterType
	}
	if flags.Changed("allow-null") {
		req.Nullable = &alterNullable
	}
	if flags.Changed("allow-blank") {
		req.Blankable = &alterBlankable
	}

	updated, err := env.service.AlterSchema(cmd.Context(), table.ID, req)
	if err != nil {
		return err
	}
	return printJSON(updated)
}

func runInsert(cmd *cobra.Command, args []string) error {
	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	table, err := env.service.ResolveTable(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	values, err := decodeObject(rowData)
	if err != nil {
		return err
	}

	row, err := env.service.InsertRow(cmd.Context(), table.ID, values)
	if err != nil {
		return err
	}
	return printJSON(row)
}

func runImport(cmd *cobra.Command, args []string) error {
	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	table, err := env.service.ResolveTable(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	file, err := os.Open(recordsFile)
	if err != nil {
		return fmt.Errorf("failed to open records file: %w", err)
	}
	defer file.Close()

	records, err := app.ReadRecords(file)
	if err != nil {
		return err
	}

	bar := progress.NewBar(int64(len(records)), fmt.Sprintf("Importing into %s", table.Name), os.Stderr)
	result, err := env.service.ImportRows(cmd.Context(), table.ID, records, bar)
	if err != nil {
		return err
	}

	for _, failure := range result.Failed {
		fmt.Printf("record %d rejected: %v\n", failure.Index, failure.Err)
	}
	fmt.Printf("Inserted %d of %d records.\n", result.Inserted, len(records))
	return nil
}

func runRows(cmd *cobra.Command, args []string) error {
	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	table, err := env.service.ResolveTable(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	seq, err := env.service.ListRows(cmd.Context(), table.ID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	for row, err := range seq {
		if err != nil {
			return err
		}
		if err := encoder.Encode(row); err != nil {
			return fmt.Errorf("failed to print row: %w", err)
		}
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	var tables []domain.TableDef
	if len(args) == 1 {
		table, err := env.service.ResolveTable(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		tables = append(tables, *table)
	} else {
		tables, err = env.service.ListTables(cmd.Context())
		if err != nil {
			return err
		}
	}

	drifted := 0
	for _, table := range tables {
		report, err := env.service.Verify(cmd.Context(), table.ID)
		if err != nil {
			return err
		}
		if report.Consistent() {
			fmt.Printf("%s: in sync\n", table.Name)
			continue
		}

		drifted++
		fmt.Printf("%s: drift detected\n", table.Name)
		if report.PhysicalMissing {
			fmt.Println("   physical table is missing")
		}
		printList("missing column", report.Missing)
		printList("orphan column", report.Orphans)
		printList("mismatch", report.Mismatched)
	}

	if drifted > 0 {
		return fmt.Errorf("%d of %d tables out of sync", drifted, len(tables))
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	table, err := env.service.ResolveTable(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	entry, err := env.service.ExportDefinition(cmd.Context(), table.ID, env.definitions, exportAlias)
	if err != nil {
		return err
	}

	fmt.Printf("Definition of %s saved to %s\n", entry.Table, entry.Path)
	return nil
}

func runJournal(cmd *cobra.Command, args []string) error {
	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	if env.journal == nil {
		return fmt.Errorf("no MongoDB journal is configured")
	}

	events, err := env.journal.Recent(cmd.Context(), journalTable, journalLimit)
	if err != nil {
		return err
	}

	for _, event := range events {
		printEvent(event)
	}
	return nil
}

func runDefinitionsList(cmd *cobra.Command, args []string) error {
	manager, err := openDefinitions()
	if err != nil {
		return err
	}

	entries, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list definitions: %w", err)
	}
	if len(entries) == 0 {
		fmt.Printf("No definitions found in %s\n", manager.Directory())
		return nil
	}

	fmt.Printf("Definitions in %s:\n", manager.Directory())
	for _, entry := range entries {
		fmt.Printf("   %-24s table=%-32s fields=%-3d %s\n", entry.Name, entry.Table, entry.Fields, entry.Modified.Format("2006-01-02 15:04"))
	}
	return nil
}

func runDefinitionsDelete(cmd *cobra.Command, args []string) error {
	manager, err := openDefinitions()
	if err != nil {
		return err
	}

	if err := manager.Delete(args[0]); err != nil {
		return err
	}

	fmt.Printf("Definition %s deleted\n", args[0])
	return nil
}

func printEvent(event journal.Event) {
	column := ""
	if event.Column != "" {
		column = "." + event.Column
	}
	fmt.Printf("%s  %-14s %s%s\n", event.RecordedAt.Format("2006-01-02 15:04:05"), event.Op, event.Table, column)
	for _, stmt := range event.Statements {
		fmt.Printf("    %s\n", strings.ReplaceAll(stmt, "\n", " "))
	}
}

func printList(label string, items []string) {
	for _, item := range items {
		fmt.Printf("   %s: %s\n", label, item)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func decodeObject(raw string) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewBufferString(raw))
	decoder.UseNumber()

	var values map[string]any
	if err := decoder.Decode(&values); err != nil {
		return nil, fmt.Errorf("row data must be a JSON object: %w", err)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}
