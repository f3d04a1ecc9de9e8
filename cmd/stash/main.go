// Command stash inspects a stash data directory: listing collections,
// fetching single documents and running filtered queries.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	stash "github.com/leoafarias/firekit-sub000"
	"github.com/leoafarias/firekit-sub000/domain"
)

type appFlags struct {
	dir        string
	backend    string
	schemaFile string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &appFlags{}

	root := &cobra.Command{
		Use:           "stash",
		Short:         "Inspect a stash data directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dir, "dir", ".", "data directory")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "file", "storage backend (file or badger)")
	root.PersistentFlags().StringVar(&flags.schemaFile, "schema", "", "YAML schema file (defaults to <dir>/schemas.yaml when present)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newCollectionsCmd(flags))
	root.AddCommand(newGetCmd(flags))
	root.AddCommand(newQueryCmd(flags))
	return root
}

func newCollectionsCmd(flags *appFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List the non-empty collections of the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := openStorage(flags)
			if err != nil {
				return err
			}
			defer storage.Close()

			collections, err := storage.Collections(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range collections {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newGetCmd(flags *appFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Fetch one document by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := openHandle(flags, args[0])
			if err != nil {
				return err
			}
			defer handle.Close()

			repo, err := handle.Repository(args[0])
			if err != nil {
				return err
			}
			res, err := repo.GetByID(cmd.Context(), args[1], nil)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newQueryCmd(flags *appFlags) *cobra.Command {
	var (
		wheres   []string
		orderBys []string
		skip     int64
		limit    int64
		count    bool
	)

	cmd := &cobra.Command{
		Use:   "query <collection>",
		Short: "Run a filtered, sorted, paginated query over a collection",
		Long: `Run a filtered, sorted, paginated query over a collection.

Conditions use the form "field,operator,value", e.g.:

  stash query users --where 'age,>=,21' --where 'tags,array-contains,admin'

Values are parsed as JSON when possible (numbers, booleans, null, arrays)
and fall back to plain strings. Sort criteria use "field" or "field,desc".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := openHandle(flags, args[0])
			if err != nil {
				return err
			}
			defer handle.Close()

			repo, err := handle.Repository(args[0])
			if err != nil {
				return err
			}

			q := repo.Query()
			for _, raw := range wheres {
				cond, err := parseCondition(raw)
				if err != nil {
					return err
				}
				q = q.Where(cond.Field, cond.Operator, cond.Value)
			}
			for _, raw := range orderBys {
				field, direction, err := parseOrderBy(raw)
				if err != nil {
					return err
				}
				q = q.OrderBy(field, direction)
			}
			q = q.Skip(skip).Limit(limit)

			if count {
				n, err := q.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			}

			results, err := q.GetResults(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, results)
		},
	}

	cmd.Flags().StringArrayVar(&wheres, "where", nil, `condition "field,operator,value" (repeatable)`)
	cmd.Flags().StringArrayVar(&orderBys, "order-by", nil, `sort criterion "field" or "field,desc" (repeatable)`)
	cmd.Flags().Int64Var(&skip, "skip", 0, "matching documents to drop before the page")
	cmd.Flags().Int64Var(&limit, "limit", 10, "page size")
	cmd.Flags().BoolVar(&count, "count", false, "print the effective page size instead of the documents")
	return cmd
}

// openHandle opens the configured backend and registers schemas, either from
// the schema file or a bare schema for the requested collection.
func openHandle(flags *appFlags, collection string) (domain.Stash, error) {
	storage, err := openStorage(flags)
	if err != nil {
		return nil, err
	}
	handle := stash.New(
		stash.WithStorage(storage),
		stash.WithLogger(newLogger(flags.logLevel)),
	)

	path := flags.schemaFile
	if path == "" {
		candidate := flags.dir + "/schemas.yaml"
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		if err := stash.LoadSchemas(handle, path); err != nil {
			handle.Close()
			return nil, err
		}
	}

	// A collection absent from the schema file still gets a bare schema, so
	// ad-hoc inspection works without declaring every collection up front.
	if _, err := handle.Repository(collection); err != nil {
		if err := handle.Register(domain.CollectionSchema{Name: collection}); err != nil {
			handle.Close()
			return nil, err
		}
	}
	return handle, nil
}

func openStorage(flags *appFlags) (domain.Storage, error) {
	switch flags.backend {
	case "file":
		return stash.NewFileStorage(flags.dir, 0o644)
	case "badger":
		return stash.NewBadgerStorage(flags.dir)
	default:
		return nil, fmt.Errorf("unknown backend %q (want file or badger)", flags.backend)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// parseCondition parses "field,operator,value". The value is decoded as JSON
// when possible, so numbers, booleans and arrays survive the command line.
func parseCondition(raw string) (domain.QueryCondition, error) {
	parts := strings.SplitN(raw, ",", 3)
	if len(parts) != 3 {
		return domain.QueryCondition{}, fmt.Errorf("condition %q: want \"field,operator,value\"", raw)
	}
	return domain.QueryCondition{
		Field:    parts[0],
		Operator: domain.ComparisonOperator(parts[1]),
		Value:    parseValue(parts[2]),
	}, nil
}

func parseValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err == nil {
		return value
	}
	if t, err := strconv.ParseBool(raw); err == nil {
		return t
	}
	return raw
}

func parseOrderBy(raw string) (string, domain.SortDirection, error) {
	field, direction, found := strings.Cut(raw, ",")
	if field == "" {
		return "", "", fmt.Errorf("sort criterion %q: empty field", raw)
	}
	if !found || direction == string(domain.Ascending) {
		return field, domain.Ascending, nil
	}
	if direction == string(domain.Descending) {
		return field, domain.Descending, nil
	}
	return "", "", fmt.Errorf("sort criterion %q: want asc or desc", raw)
}

func printJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
