package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iitdbuddy/buddy/internal/chat"
	"github.com/iitdbuddy/buddy/internal/config"
	"github.com/iitdbuddy/buddy/internal/graph"
	"github.com/iitdbuddy/buddy/internal/graph/neo4j"
	"github.com/iitdbuddy/buddy/internal/indexer"
	"github.com/iitdbuddy/buddy/internal/llm"
	"github.com/iitdbuddy/buddy/internal/llmutil"
	"github.com/iitdbuddy/buddy/internal/metrics"
	"github.com/iitdbuddy/buddy/internal/observability"
	"github.com/iitdbuddy/buddy/internal/pipeline"
	"github.com/iitdbuddy/buddy/internal/profile"
	"github.com/iitdbuddy/buddy/internal/secrets"
	"github.com/iitdbuddy/buddy/internal/server"
	"github.com/iitdbuddy/buddy/internal/vector"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "buddy",
		Short: "Retrieval-backed academic advisor for IIT Delhi students",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/buddy.yaml", "Config file path")

	var (
		profileName string
		limit       int
		jsonReport  bool
		showReport  bool
	)
	askCmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Answer a single query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(configPath, profileName, strings.Join(args, " "), limit, jsonReport, showReport)
		},
	}
	askCmd.Flags().StringVar(&profileName, "profile", "courses", "Advisory profile (courses, counselling, links)")
	askCmd.Flags().IntVar(&limit, "limit", 0, "Override the profile's result limit")
	askCmd.Flags().BoolVar(&jsonReport, "json", false, "Output the query report as JSON")
	askCmd.Flags().BoolVar(&showReport, "report", false, "Print a timing report after the answer")

	var chatProfile string
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive advisory session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(configPath, chatProfile)
		},
	}
	chatCmd.Flags().StringVar(&chatProfile, "profile", "courses", "Advisory profile (courses, counselling, links)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	var (
		indexCollection string
		indexFile       string
		indexGraph      bool
	)
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Embed and index documents from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(configPath, indexCollection, indexFile, indexGraph)
		},
	}
	indexCmd.Flags().StringVar(&indexCollection, "collection", "", "Target collection name")
	indexCmd.Flags().StringVar(&indexFile, "file", "", "JSON file with an array of document payloads")
	indexCmd.Flags().BoolVar(&indexGraph, "graph", false, "Also store course prerequisites in the graph")
	_ = indexCmd.MarkFlagRequired("collection")
	_ = indexCmd.MarkFlagRequired("file")

	var transitive bool
	prereqsCmd := &cobra.Command{
		Use:   "prereqs [course-code]",
		Short: "List prerequisites for a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrereqs(configPath, args[0], transitive)
		},
	}
	prereqsCmd.Flags().BoolVar(&transitive, "all", false, "Follow the prerequisite chain transitively")

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List available LLM providers",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available LLM providers:")
			fmt.Println()
			for name, url := range llm.KnownProviders {
				fmt.Printf("  %-14s %s\n", name, url)
			}
			fmt.Println("  custom         (set base_url to any OpenAI-compatible endpoint)")
			fmt.Println()
			fmt.Println("Configure in buddy.yaml or via environment:")
			fmt.Println("  BUDDY_LLM_PROVIDER=groq")
			fmt.Println("  BUDDY_LLM_API_KEY=gsk_...")
			fmt.Println("  BUDDY_LLM_MODEL=mixtral-8x7b-32768")
		},
	}

	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "List advisory profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			profiles := cfg.ResolveProfiles()
			for _, name := range profile.Names(profiles) {
				p := profiles[name]
				fmt.Printf("%-12s collection=%s limit=%d temperature=%.1f max_tokens=%d\n",
					p.Name, p.Collection, p.Limit, p.Temperature, p.MaxTokens)
			}
			return nil
		},
	}

	rootCmd.AddCommand(askCmd, chatCmd, serveCmd, indexCmd, prereqsCmd, providersCmd, profilesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	profiles  map[string]profile.Profile
	pipeline  *pipeline.Pipeline
	vectors   *vector.QdrantRepository
	tracing   *observability.TracerProvider
	completer llm.Provider
	embedder  llm.Provider
}

func (a *app) close(ctx context.Context) {
	if a.vectors != nil {
		_ = a.vectors.Close()
	}
	if a.tracing != nil {
		_ = a.tracing.Shutdown(ctx)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed (%v), using defaults\n", err)
		cfg = &config.Config{}
		cfg.Vector.Host = "localhost"
		cfg.Vector.Port = 6334
		cfg.Embedding.Dimensions = 384
		cfg.Server.Addr = ":8080"
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// bootstrap loads config, resolves secrets, and wires the pipeline.
func bootstrap(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log)

	sm, err := secrets.NewManager(secrets.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("creating secrets manager: %w", err)
	}
	llmKey := cfg.LLM.APIKey
	if llmKey == "" {
		llmKey = sm.GetOrDefault(ctx, secrets.KeyLLMAPIKey, "")
	}
	embedKey := cfg.Embedding.APIKey
	if embedKey == "" {
		embedKey = sm.GetOrDefault(ctx, secrets.KeyEmbeddingAPIKey, llmKey)
	}
	qdrantKey := cfg.Vector.APIKey
	if qdrantKey == "" {
		qdrantKey = sm.GetOrDefault(ctx, secrets.KeyQdrantAPIKey, "")
	}

	factory := llm.NewFactory()
	llmutil.RegisterDefaultProviders(factory)

	completer, err := factory.Create(llm.ProviderConfig{
		Provider: cfg.LLM.Provider,
		APIKey:   llmKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if completer == nil {
		return nil, fmt.Errorf("no LLM provider configured; set llm.provider in %s or BUDDY_LLM_PROVIDER", configPath)
	}

	// Embeddings may come from a different host than completions, e.g. Groq
	// for answers and a local Ollama for 384-dim sentence embeddings.
	embedder := completer
	if cfg.Embedding.Provider != "" && cfg.Embedding.Provider != cfg.LLM.Provider {
		embedder, err = factory.Create(llm.ProviderConfig{
			Provider:   cfg.Embedding.Provider,
			APIKey:     embedKey,
			Model:      cfg.Embedding.Model,
			BaseURL:    cfg.Embedding.BaseURL,
			EmbedModel: cfg.Embedding.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embedding provider: %w", err)
		}
	}

	vectors, err := vector.NewQdrant(ctx, cfg.Vector.Host, cfg.Vector.Port, qdrantKey)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	tracing, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "buddy",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}

	p := pipeline.New(
		pipeline.NewProviderEmbedder(embedder),
		vectors,
		pipeline.NewProviderSynthesizer(completer),
		logger,
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		profiles:  cfg.ResolveProfiles(),
		pipeline:  p,
		vectors:   vectors,
		tracing:   tracing,
		completer: completer,
		embedder:  embedder,
	}, nil
}

func runAsk(configPath, profileName, query string, limit int, jsonReport, showReport bool) error {
	ctx := context.Background()
	a, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	prof, err := profile.Lookup(a.profiles, profileName)
	if err != nil {
		return err
	}
	req := prof.Request(query)
	if limit > 0 {
		req.Limit = limit
	}

	m := metrics.New(prof.Name, prof.Collection)
	res := a.pipeline.Run(ctx, req)
	m.Finish(res)

	if jsonReport {
		return m.WriteJSON(os.Stdout)
	}

	printResult(os.Stdout, res)
	if showReport {
		m.PrintSummary(os.Stdout)
	}
	return nil
}

// printResult renders a pipeline result for a terminal user.
func printResult(w *os.File, res pipeline.Result) {
	switch res.Outcome {
	case pipeline.OutcomeNoQuery:
		fmt.Fprintln(w, "Please enter a question.")
	case pipeline.OutcomeNoResults:
		fmt.Fprintln(w, "No relevant information found. Try rephrasing your question.")
	case pipeline.OutcomeAnswered:
		fmt.Fprintln(w, res.Answer)
	case pipeline.OutcomeFailed:
		fmt.Fprintf(w, "I apologize, but I encountered an error: %v\n", res.Err.Cause)
		if len(res.Documents) > 0 {
			fmt.Fprintf(w, "\nRetrieved %d documents before the failure:\n\n%s\n",
				len(res.Documents), res.Context)
		}
	}
}

func runChat(configPath, profileName string) error {
	ctx := context.Background()
	a, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	prof, err := profile.Lookup(a.profiles, profileName)
	if err != nil {
		return err
	}

	fmt.Printf("IITD Buddy (%s). Type your question, or 'exit' to quit.\n\n", prof.Name)

	log := chat.NewLog()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}

		log.Append(chat.RoleUser, line)
		res := a.pipeline.Run(ctx, prof.Request(line))

		var reply string
		switch res.Outcome {
		case pipeline.OutcomeNoResults:
			reply = "No relevant information found. Try rephrasing your question."
		case pipeline.OutcomeAnswered:
			reply = res.Answer
		case pipeline.OutcomeFailed:
			reply = fmt.Sprintf("I apologize, but I encountered an error: %v", res.Err.Cause)
		default:
			continue
		}
		turn := log.Append(chat.RoleAssistant, reply)
		fmt.Printf("\nbuddy [%s]\n%s\n\n", turn.Timestamp.Format("15:04:05"), reply)
	}
	return scanner.Err()
}

func runServe(configPath string) error {
	ctx := context.Background()
	a, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}

	registry := observability.NewMetricsRegistry()
	srv := server.New(a.cfg.Server.Addr, a.pipeline, a.profiles, registry, a.logger)
	srv.Health().RegisterCheck("qdrant", func(ctx context.Context) server.HealthCheck {
		if err := a.vectors.Ping(ctx); err != nil {
			return server.HealthCheck{Name: "qdrant", Status: server.HealthStatusUnhealthy, Message: err.Error()}
		}
		return server.HealthCheck{Name: "qdrant", Status: server.HealthStatusHealthy}
	})

	shutdown := server.NewShutdownHandler(30 * time.Second)
	shutdown.RegisterHook("http", 0, srv.Shutdown)
	shutdown.RegisterHook("vectors", 1, func(ctx context.Context) error {
		return a.vectors.Close()
	})
	if a.tracing != nil {
		shutdown.RegisterHook("tracing", 2, a.tracing.Shutdown)
	}
	shutdown.Start()

	if err := srv.ListenAndServe(); err != nil {
		return err
	}
	shutdown.Wait()
	return nil
}

func runIndex(configPath, collection, file string, withGraph bool) error {
	ctx := context.Background()
	a, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	var graphRepo graph.Repository
	if withGraph {
		graphRepo, err = openGraph(ctx, a)
		if err != nil {
			return err
		}
		defer graphRepo.Close(ctx)
	}

	ix := indexer.New(a.embedder, a.vectors, graphRepo, a.cfg.Embedding.Dimensions, a.logger)
	n, err := ix.IndexFile(ctx, collection, file)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d documents into %s\n", n, collection)
	return nil
}

func runPrereqs(configPath, code string, transitive bool) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	sm, err := secrets.NewManager(secrets.DefaultConfig())
	if err != nil {
		return err
	}
	password := cfg.Graph.Password
	if password == "" {
		password = sm.GetOrDefault(ctx, secrets.KeyNeo4jPassword, "")
	}
	if cfg.Graph.URI == "" {
		return fmt.Errorf("graph.uri is not configured; the prerequisite graph is unavailable")
	}

	repo, err := neo4j.NewNeo4j(ctx, cfg.Graph.URI, cfg.Graph.Username, password)
	if err != nil {
		return fmt.Errorf("connecting to neo4j: %w", err)
	}
	defer repo.Close(ctx)

	code = strings.ToUpper(strings.TrimSpace(code))
	var courses []graph.Course
	if transitive {
		courses, err = repo.TransitivePrerequisites(ctx, code)
	} else {
		courses, err = repo.Prerequisites(ctx, code)
	}
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		fmt.Printf("%s has no recorded prerequisites.\n", code)
		return nil
	}
	for _, c := range courses {
		if c.Title != "" {
			fmt.Printf("%s - %s\n", c.Code, c.Title)
		} else {
			fmt.Println(c.Code)
		}
	}
	return nil
}

func openGraph(ctx context.Context, a *app) (graph.Repository, error) {
	if a.cfg.Graph.URI == "" {
		return nil, fmt.Errorf("graph.uri is not configured")
	}
	sm, err := secrets.NewManager(secrets.DefaultConfig())
	if err != nil {
		return nil, err
	}
	password := a.cfg.Graph.Password
	if password == "" {
		password = sm.GetOrDefault(ctx, secrets.KeyNeo4jPassword, "")
	}
	repo, err := neo4j.NewNeo4j(ctx, a.cfg.Graph.URI, a.cfg.Graph.Username, password)
	if err != nil {
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}
	return repo, nil
}
