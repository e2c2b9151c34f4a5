package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/vetra-proxy/internal/adapters/http"
	"github.com/PabloGalante/vetra-proxy/internal/adapters/llm"
	memstore "github.com/PabloGalante/vetra-proxy/internal/adapters/storage/memory"
	"github.com/PabloGalante/vetra-proxy/internal/app/catalog"
	"github.com/PabloGalante/vetra-proxy/internal/app/conversation"
	"github.com/PabloGalante/vetra-proxy/internal/app/moderation"
	"github.com/PabloGalante/vetra-proxy/internal/config"
	"github.com/PabloGalante/vetra-proxy/internal/domain"
	"github.com/PabloGalante/vetra-proxy/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	flagSet := pflag.NewFlagSet("vetra-api", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config file (default: $VETRA_CONFIG)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := observability.Configure(cfg.LogLevel); err != nil {
		return err
	}
	log := observability.WithFields("service", "vetra-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llmClient, err := newCompletionClient(ctx, cfg.Upstream)
	if err != nil {
		return err
	}
	log.Info("completion backend ready", "backend", cfg.Upstream.Backend)

	models, err := catalog.NewSelector(cfg.Models, cfg.DefaultModel)
	if err != nil {
		return err
	}

	svc := conversation.NewService(
		llmClient,
		memstore.NewRuleStore(cfg.Rules...),
		memstore.NewConversationStore(),
		models,
		moderation.NewJournal(memstore.NewModerationJournal(0)),
		conversation.WithDispatchTimeout(cfg.Upstream.Timeout),
	)

	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpadapter.NewServer(svc, httpadapter.Credentials{
			Username: cfg.Admin.Username,
			Password: cfg.Admin.Password,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("vetra api listening", "addr", server.Addr, "model", models.Current())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newCompletionClient(ctx context.Context, u config.UpstreamConfig) (domain.CompletionClient, error) {
	switch u.Backend {
	case config.BackendMock:
		return llm.NewMockLLM(), nil
	case config.BackendVertex:
		return llm.NewVertexClient(ctx, llm.VertexConfig{
			Project:      u.GCPProject,
			Location:     u.GCPLocation,
			Timeout:      u.Timeout,
			Temperature:  u.Temperature,
			MaxTokens:    u.MaxTokens,
			ModelAliases: u.ModelAliases,
		})
	case config.BackendOpenAI:
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			Endpoint:    u.Endpoint,
			APIKey:      u.APIKey,
			Timeout:     u.Timeout,
			Temperature: u.Temperature,
			MaxTokens:   u.MaxTokens,
		}), nil
	default:
		return nil, fmt.Errorf("unknown upstream backend %q", u.Backend)
	}
}
