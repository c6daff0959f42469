package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	taintgraph "github.com/Cristalinsg/taintgraph"
	"github.com/Cristalinsg/taintgraph/analyzers"
	"github.com/Cristalinsg/taintgraph/autofix"
	"github.com/Cristalinsg/taintgraph/graph"
	"github.com/Cristalinsg/taintgraph/report"
	"github.com/Cristalinsg/taintgraph/taint"
)

// aiKeyEnv names the environment variable holding the AI provider API key.
const aiKeyEnv = "TAINTGRAPH_AI_API_KEY"

// analyzeOptions holds the arguments for the analyze command.
type analyzeOptions struct {
	Rulesets    []string
	Format      string
	OutputPath  string
	MaxNodes    int
	Concurrency int
	AIProvider  string
	AIModel     string
	TrackDSN    string
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:                   "analyze [--ruleset NAME]... [--fmt FORMAT] [--out PATH] GRAPH_FILE",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Run taint rulesets over a serialized program graph",
		Example: `  # Run every ruleset and print a text report
  taintgraph analyze program.json

  # Run selected rulesets and write SARIF for CI upload
  taintgraph analyze --ruleset code-injection --ruleset path-traversal --fmt sarif --out report.sarif program.json

  # Record findings history in Postgres
  taintgraph analyze --track "postgres://taintgraph@localhost/findings?sslmode=disable" program.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, &opts, args[0])
		},
	}

	cmd.Flags().StringSliceVar(&opts.Rulesets, "ruleset", nil,
		fmt.Sprintf("ruleset to run, repeatable (default all: %s)", strings.Join(analyzers.Names(), ", ")))
	cmd.Flags().StringVar(&opts.Format, "fmt", string(report.FormatText), "report format: text, json, yaml or sarif")
	cmd.Flags().StringVar(&opts.OutputPath, "out", "", "write the report to a file instead of stdout")
	cmd.Flags().IntVar(&opts.MaxNodes, "max-nodes", 0, "per-source traversal budget (0 uses the default)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "parallel source traversals (0 or 1 is serial)")
	cmd.Flags().StringVar(&opts.AIProvider, "ai-provider", "", "annotate findings with remediations: gemini, claude or openai")
	cmd.Flags().StringVar(&opts.AIModel, "ai-model", "", "override the AI provider's default model")
	cmd.Flags().StringVar(&opts.TrackDSN, "track", "", "Postgres DSN for recording findings history")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions, path string) error {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "taintgraph",
		Level:  hclog.LevelFromString(logLevel),
		Output: os.Stderr,
	})
	ctx := cmd.Context()

	g, err := loadGraph(path)
	if err != nil {
		return err
	}
	logger.Debug("graph loaded", "path", path, "nodes", g.Len(), "edges", g.EdgeCount())

	configs, err := resolveConfigs(opts)
	if err != nil {
		return err
	}

	analyzer := taintgraph.NewAnalyzer(logger)
	analyzer.Register(configs...)
	findings, metrics, err := analyzer.Check(ctx, g)
	if err != nil {
		return err
	}
	logger.Info("analysis complete",
		"nodes", metrics.NumNodes, "edges", metrics.NumEdges,
		"rulesets", metrics.NumAnalyzed, "findings", metrics.NumFound)

	if opts.AIProvider != "" && len(findings) > 0 {
		client, err := autofix.NewClient(ctx, opts.AIProvider, os.Getenv(aiKeyEnv), opts.AIModel)
		if err != nil {
			return err
		}
		if err := autofix.Explain(ctx, client, findings); err != nil {
			return err
		}
	}

	if opts.TrackDSN != "" {
		if err := track(cmd, opts.TrackDSN, g, findings); err != nil {
			return err
		}
	}

	out, closeOut, err := outputWriter(opts.OutputPath)
	if err != nil {
		return err
	}
	defer closeOut()
	if err := report.Write(out, report.Format(opts.Format), findings); err != nil {
		return err
	}

	foundIssues = len(findings) > 0
	return nil
}

func loadGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return graph.LoadYAML(f)
	default:
		return graph.Load(f)
	}
}

func resolveConfigs(opts *analyzeOptions) ([]taint.Config, error) {
	var configs []taint.Config
	if len(opts.Rulesets) == 0 {
		configs = analyzers.All()
	} else {
		for _, name := range opts.Rulesets {
			factory, err := analyzers.Get(name)
			if err != nil {
				return nil, err
			}
			configs = append(configs, factory())
		}
	}
	for i := range configs {
		if opts.MaxNodes > 0 {
			configs[i].MaxNodes = opts.MaxNodes
		}
		if opts.Concurrency > 0 {
			configs[i].Parallelism = opts.Concurrency
		}
	}
	return configs, nil
}

func track(cmd *cobra.Command, dsn string, g *graph.Graph, findings []report.Finding) error {
	store, err := report.OpenStore(cmd.Context(), dsn)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(cmd.Context(), g.Fingerprint(), findings)
}

func outputWriter(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
