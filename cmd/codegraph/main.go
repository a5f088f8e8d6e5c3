// Command codegraph walks a repository, mines its definitions and calls
// across every supported language, and emits a code-knowledge graph to a
// local SQLite cache or a live Memgraph instance.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/codegraph-dev/codegraph/internal/config"
	"github.com/codegraph-dev/codegraph/internal/pipeline"
	"github.com/codegraph-dev/codegraph/internal/sink"
)

// Exit codes: 0 success, 1 indexing error, 2 usage/setup error.
const (
	exitOK     = 0
	exitRun    = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			return exitUsage
		}
		return exitRun
	}
	return exitOK
}

type usageError struct{ err error }

func (u *usageError) Error() string { return u.err.Error() }
func (u *usageError) Unwrap() error { return u.err }

func newRootCmd() *cobra.Command {
	var (
		jsonLogs    bool
		verbose     bool
		sinkKind    string
		dbPath      string
		clean       bool
		folderGlob  string
		fileGlob    string
		maxFileSize int64
		concurrency int
		incremental bool
	)

	root := &cobra.Command{
		Use:           "codegraph",
		Short:         "Build a code-knowledge graph from a repository",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit structured JSON logs instead of text")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return &usageError{err} })

	analyze := &cobra.Command{
		Use:   "analyze <repo-path>",
		Short: "Index a repository into the graph sink",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return &usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(jsonLogs, verbose)

			repoPath := args[0]
			if _, err := os.Stat(repoPath); err != nil {
				return &usageError{fmt.Errorf("repo path: %w", err)}
			}

			fileCfg, err := config.Load(repoPath)
			if err != nil {
				return &usageError{fmt.Errorf("%s: %w", config.FileName, err)}
			}
			applyFileConfig(cmd.Flags(), fileCfg, &sinkKind, &dbPath, &folderGlob, &fileGlob, &maxFileSize, &concurrency)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := openSink(ctx, sinkKind, dbPath)
			if err != nil {
				return &usageError{err}
			}
			defer s.Close()

			p := pipeline.New(ctx, s, repoPath, pipeline.Options{
				FolderFilter: folderGlob,
				FilePattern:  fileGlob,
				MaxFileSize:  maxFileSize,
				Concurrency:  concurrency,
				Clean:        clean,
			})

			var summary pipeline.Summary
			if incremental {
				summary, err = p.RunIncremental()
			} else {
				summary, err = p.Run()
			}
			if err != nil {
				slog.Error("codegraph.analyze.failed", "err", err)
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	analyze.Flags().StringVar(&sinkKind, "sink", "sqlite", "graph sink backend: sqlite or memgraph")
	analyze.Flags().StringVar(&dbPath, "db", ".codegraph/graph.db", "SQLite database path (sqlite sink only)")
	analyze.Flags().BoolVar(&clean, "clean", false, "delete any existing graph data for this project before indexing (sqlite sink only)")
	analyze.Flags().StringVar(&folderGlob, "folder-filter", "", "only index files under folders matching this glob")
	analyze.Flags().StringVar(&fileGlob, "file-pattern", "", "only index files whose base name matches this glob")
	analyze.Flags().Int64Var(&maxFileSize, "max-file-size", 2<<20, "skip files larger than this many bytes")
	analyze.Flags().IntVar(&concurrency, "concurrency", 0, "worker pool size per pass (0 = NumCPU)")
	analyze.Flags().BoolVar(&incremental, "incremental", false, "skip the run entirely when no file's content hash changed since the last run (sqlite sink only)")

	root.AddCommand(analyze, newVersionCmd())
	return root
}

// applyFileConfig fills in analyze flags from .codegraph.yaml, but only for
// flags the user didn't pass explicitly on the command line — an explicit
// flag always wins over the file.
func applyFileConfig(
	flags *pflag.FlagSet, fileCfg config.Config,
	sinkKind, dbPath, folderGlob, fileGlob *string, maxFileSize *int64, concurrency *int,
) {
	if fileCfg.Sink != "" && !flags.Changed("sink") {
		*sinkKind = fileCfg.Sink
	}
	if fileCfg.DB != "" && !flags.Changed("db") {
		*dbPath = fileCfg.DB
	}
	if fileCfg.FolderFilter != "" && !flags.Changed("folder-filter") {
		*folderGlob = fileCfg.FolderFilter
	}
	if fileCfg.FilePattern != "" && !flags.Changed("file-pattern") {
		*fileGlob = fileCfg.FilePattern
	}
	if fileCfg.MaxFileSize > 0 && !flags.Changed("max-file-size") {
		*maxFileSize = fileCfg.MaxFileSize
	}
	if fileCfg.Concurrency > 0 && !flags.Changed("concurrency") {
		*concurrency = fileCfg.Concurrency
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the codegraph version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "codegraph dev")
			return nil
		},
	}
}

func openSink(ctx context.Context, kind, dbPath string) (sink.Sink, error) {
	switch kind {
	case "", "sqlite":
		return sink.OpenSQLite(dbPath)
	case "memgraph":
		return sink.OpenMemgraph(ctx, sink.MemgraphConfigFromEnv())
	default:
		return nil, fmt.Errorf("unknown sink %q (want sqlite or memgraph)", kind)
	}
}

func configureLogging(jsonLogs, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if jsonLogs {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
