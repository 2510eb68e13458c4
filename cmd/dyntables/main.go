package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/kadirbelkuyu/dyntables/internal/app"
	"github.com/kadirbelkuyu/dyntables/internal/config"
	"github.com/kadirbelkuyu/dyntables/internal/database"
	"github.com/kadirbelkuyu/dyntables/internal/definitions"
	"github.com/kadirbelkuyu/dyntables/internal/domain"
	"github.com/kadirbelkuyu/dyntables/internal/journal"
	"github.com/kadirbelkuyu/dyntables/pkg/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dyntables",
	Short: "Define tables at runtime and keep PostgreSQL in step with them",
	Long:  `dyntables keeps a catalog of runtime-defined tables and the matching PostgreSQL tables in lock-step, and reads and writes their rows.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the catalog tables",
	RunE:  runInit,
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables and their fields",
	RunE:  runTables,
}

var createTableCmd = &cobra.Command{
	Use:   "create-table",
	Short: "Create a table from a definition file",
	RunE:  runCreateTable,
}

var alterCmd = &cobra.Command{
	Use:   "alter <table>",
	Short: "Create, update or delete a field of a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlter,
}

var insertCmd = &cobra.Command{
	Use:   "insert <table>",
	Short: "Insert one row given as a JSON object",
	Args:  cobra.ExactArgs(1),
	RunE:  runInsert,
}

var importCmd = &cobra.Command{
	Use:   "import <table>",
	Short: "Insert rows from a YAML or JSON list",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var rowsCmd = &cobra.Command{
	Use:   "rows <table>",
	Short: "Print every row of a table as JSON lines",
	Args:  cobra.ExactArgs(1),
	RunE:  runRows,
}

var verifyCmd = &cobra.Command{
	Use:   "verify [table]",
	Short: "Compare catalog definitions with the physical tables",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVerify,
}

var exportCmd = &cobra.Command{
	Use:   "export <table>",
	Short: "Save a table's definition as a definition file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent schema changes recorded in MongoDB",
	RunE:  runJournal,
}

var definitionsCmd = &cobra.Command{
	Use:   "definitions",
	Short: "Manage saved table definition files",
}

var definitionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved table definitions",
	RunE:  runDefinitionsList,
}

var definitionsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved table definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runDefinitionsDelete,
}

var (
	configPath     string
	verbose        bool
	definitionFile string
	definitionName string
	alterAction    string
	alterID        int64
	alterName      string
	alterType      string
	alterNullable  bool
	alterBlankable bool
	rowData        string
	recordsFile    string
	exportAlias    string
	journalTable   string
	journalLimit   int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "dyntables.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	createTableCmd.Flags().StringVar(&definitionFile, "file", "", "Path to a table definition file")
	createTableCmd.Flags().StringVar(&definitionName, "definition", "", "Name of a saved table definition")
	createTableCmd.MarkFlagsOneRequired("file", "definition")
	createTableCmd.MarkFlagsMutuallyExclusive("file", "definition")

	alterCmd.Flags().StringVar(&alterAction, "action", "", "create, update or delete")
	alterCmd.Flags().Int64Var(&alterID, "id", 0, "Id of the field to update or delete")
	alterCmd.Flags().StringVar(&alterName, "name", "", "Field name")
	alterCmd.Flags().StringVar(&alterType, "type", "", "Field type: string, number or boolean")
	alterCmd.Flags().BoolVar(&alterNullable, "allow-null", false, "Allow null values")
	alterCmd.Flags().BoolVar(&alterBlankable, "allow-blank", true, "Allow empty strings")
	alterCmd.MarkFlagRequired("action")

	insertCmd.Flags().StringVar(&rowData, "data", "{}", "Row as a JSON object")

	importCmd.Flags().StringVar(&recordsFile, "file", "", "Path to a YAML or JSON list of rows")
	importCmd.MarkFlagRequired("file")

	exportCmd.Flags().StringVar(&exportAlias, "alias", "", "Definition name, defaults to the table name")

	journalCmd.Flags().StringVar(&journalTable, "table", "", "Only show changes of this table")
	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "Maximum number of changes to show")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(createTableCmd)
	rootCmd.AddCommand(alterCmd)
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(rowsCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(journalCmd)

	definitionsCmd.AddCommand(definitionsListCmd)
	definitionsCmd.AddCommand(definitionsDeleteCmd)
	rootCmd.AddCommand(definitionsCmd)

	cobra.OnInitialize(func() {
		rootCmd.SilenceUsage = true
		rootCmd.SilenceErrors = true
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func printError(err error) {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) && len(domainErr.Fields) > 0 {
		fields := make([]string, 0, len(domainErr.Fields))
		for field := range domainErr.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(os.Stderr, "%s: %s\n", field, domainErr.Fields[field])
		}
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

// openDefinitions reads only the config file; definition files need no database.
func openDefinitions() (*definitions.Manager, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	return definitions.NewManager(cfg.Definitions.Dir), nil
}

// environment is everything a command needs, opened from the config file.
type environment struct {
	cfg         *config.Config
	log         *logger.Logger
	service     *app.Service
	definitions *definitions.Manager
	journal     *journal.MongoSink
	conn        *database.Connection
}

func (e *environment) Close() {
	if e.journal != nil {
		if err := e.journal.Close(); err != nil {
			e.log.Warnf("Failed to close journal: %v", err)
		}
	}
	if e.conn != nil {
		e.conn.Close()
	}
}

func openEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: verbose,
	})

	conn, err := database.NewConnection(cfg)
	if err != nil {
		return nil, err
	}

	env := &environment{
		cfg:         cfg,
		log:         log,
		conn:        conn,
		definitions: definitions.NewManager(cfg.Definitions.Dir),
	}

	sinks := []journal.Sink{journal.NewLogSink(log)}
	if cfg.JournalEnabled() {
		mongoSink, err := journal.NewMongoSink(ctx, cfg.Journal.URI, cfg.Journal.Database, cfg.Journal.Collection)
		if err != nil {
			log.Warnf("Journal disabled: %v", err)
		} else {
			env.journal = mongoSink
			sinks = append(sinks, mongoSink)
		}
	}

	env.service = app.NewService(conn.DB, app.Options{
		Schema:  cfg.Database.Schema,
		Logger:  log,
		Journal: journal.New(log, sinks...),
	})

	return env, nil
}
