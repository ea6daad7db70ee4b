package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"complaintrag/internal/config"
	"complaintrag/internal/domain"
	"complaintrag/internal/embedding"
	"complaintrag/internal/generator"
	"complaintrag/internal/httpapi"
	"complaintrag/internal/logging"
	"complaintrag/internal/metrics"
	"complaintrag/internal/service"
	"complaintrag/internal/tui"
)

// app holds what every subcommand needs.
type app struct {
	cfg      *config.AppConfig
	logger   *slog.Logger
	closer   io.Closer
	svc      *service.RAGService
	registry *prometheus.Registry
}

func setup(cfgPath string) (*app, error) {
	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	emb, err := embedding.New(cfg.Embedder)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("embedder init failed: %w", err)
	}
	gen, err := generator.New(cfg.Generator)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("generator init failed: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	svc := service.NewRAGService(cfg, emb, gen, logger).WithObserver(metrics.New(reg))
	return &app{cfg: cfg, logger: logger, closer: closer, svc: svc, registry: reg}, nil
}

// load makes the published index live, building it first when build is set
// and no index exists yet.
func (a *app) load(ctx context.Context, build bool) error {
	err := a.svc.Load()
	if build && errors.Is(err, domain.ErrIndexNotFound) {
		a.logger.Info("no index found, building", slog.String("corpus", a.cfg.Corpus.Path))
		_, err = a.svc.BuildIndex(ctx)
	}
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	_ = godotenv.Load()

	var cfgPath string
	root := &cobra.Command{
		Use:           "complaintrag",
		Short:         "Answer questions about customer complaints with retrieval-augmented generation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/complaintrag/config.yaml)")

	var indexJSON bool
	index := &cobra.Command{
		Use:   "index",
		Short: "Build the vector index from the complaint corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cfgPath)
			if err != nil {
				return err
			}
			defer a.closer.Close()
			res, err := a.svc.BuildIndex(cmd.Context())
			if err != nil {
				return err
			}
			if indexJSON {
				return printJSON(res)
			}
			fmt.Printf("Indexed %d complaints (%d skipped) into %d chunks\n", res.Index.Records, res.Index.SkippedRecords, res.Index.Chunks)
			fmt.Printf("Model %s, dimension %d, chunk size %d, overlap %d\n", res.Index.Model, res.Index.Dimension, res.Index.ChunkSize, res.Index.Overlap)
			fmt.Printf("Version %s\n", res.Index.Version)
			fmt.Printf("Products affected: %d, compliance risk: %s\n", res.Corpus.ProductsAffected, res.Corpus.ComplianceRiskScore)
			for _, p := range res.Corpus.TopProducts {
				fmt.Printf("  %-40s %d\n", p.Product, p.Count)
			}
			return nil
		},
	}
	index.Flags().BoolVar(&indexJSON, "json", false, "print build statistics as JSON")

	var askJSON, askBuild bool
	var askSources int
	ask := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cfgPath)
			if err != nil {
				return err
			}
			defer a.closer.Close()
			if err := a.load(cmd.Context(), askBuild); err != nil {
				return err
			}
			res, err := a.svc.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if askJSON {
				return printJSON(res)
			}
			fmt.Println(res.Answer)
			fmt.Println()
			fmt.Printf("Confidence: %.1f%% (%s)  Response: %.0fms (%s)  Model: %s\n",
				res.ConfidenceScore*100, res.PerformanceMetrics.ReliabilityScore,
				res.PerformanceMetrics.ResponseTimeMS, res.PerformanceMetrics.PerformanceGrade, res.ModelUsed)
			if len(res.Explainability.KeyTopics) > 0 {
				fmt.Printf("Topics: %s\n", strings.Join(res.Explainability.KeyTopics, ", "))
			}
			for i, c := range res.RetrievedChunks {
				if i == askSources {
					break
				}
				fmt.Printf("\nSource %d (%s, relevance %.3f):\n  %s\n", c.Rank, c.Chunk.Product, c.RelevanceScore, preview(c.Chunk.Text, 150))
			}
			return nil
		},
	}
	ask.Flags().BoolVar(&askJSON, "json", false, "print the full result as JSON")
	ask.Flags().BoolVar(&askBuild, "build", false, "build the index first if none exists")
	ask.Flags().IntVar(&askSources, "sources", 2, "number of sources to show")

	var tuiBuild bool
	var tuiSources int
	chat := &cobra.Command{
		Use:   "tui",
		Short: "Interactive chat over the complaint index",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cfgPath)
			if err != nil {
				return err
			}
			defer a.closer.Close()
			if err := a.load(cmd.Context(), tuiBuild); err != nil {
				return err
			}
			m, _ := a.svc.Manifest()
			header := fmt.Sprintf("Index %s: %d chunks, embedder %s", m.Version, m.Count, m.Model)
			_, err = tea.NewProgram(tui.New(a.svc, header, tuiSources), tea.WithAltScreen()).Run()
			return err
		},
	}
	chat.Flags().BoolVar(&tuiBuild, "build", false, "build the index first if none exists")
	chat.Flags().IntVar(&tuiSources, "sources", 2, "number of sources to show per answer")

	var serveAddr string
	var serveBuild bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cfgPath)
			if err != nil {
				return err
			}
			defer a.closer.Close()
			if serveAddr == "" {
				serveAddr = a.cfg.Server.Address
			}
			// Questions get 503 until an index is published and loaded
			if err := a.load(cmd.Context(), serveBuild); err != nil {
				a.logger.Warn("serving without an index", slog.Any("error", err))
			}
			// SIGHUP picks up an index published by a separate `index` run
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go reloadOnSignal(cmd.Context(), hup, a.svc.Load, a.logger)
			return httpapi.Run(cmd.Context(), httpapi.New(a.svc, a.registry, a.logger), serveAddr, a.logger)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serve.Flags().BoolVar(&serveBuild, "build", false, "build the index first if none exists")

	root.AddCommand(index, ask, chat, serve)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// reloadOnSignal calls reload for every signal on sig until ctx is done.
func reloadOnSignal(ctx context.Context, sig <-chan os.Signal, reload func() error, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			if err := reload(); err != nil {
				logger.Error("index reload failed", slog.Any("error", err))
			}
		}
	}
}

func preview(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
