package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rbright/dictum/internal/command"
	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/extract"
	"github.com/rbright/dictum/internal/hypr"
	"github.com/rbright/dictum/internal/indicator"
	"github.com/rbright/dictum/internal/inference"
	"github.com/rbright/dictum/internal/ipc"
	"github.com/rbright/dictum/internal/output"
	"github.com/rbright/dictum/internal/pipeline"
	"github.com/rbright/dictum/internal/session"
	"github.com/rbright/dictum/internal/template"
)

// owner is the assembled session process.
type owner struct {
	sessionID  string
	controller *session.Controller
	closers    []func() error
}

func (o *owner) Close() error {
	var errs []error
	for _, c := range o.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (r Runner) commandServe(ctx context.Context, loaded config.Loaded, logger *slog.Logger) int {
	cfg := loaded.Config

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	store, err := template.Open(cfg.Templates.Path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load templates failed", "path", cfg.Templates.Path, "error", err.Error())
		return 1
	}

	o, err := buildOwner(cfg, store, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("build session failed", "error", err.Error())
		return 1
	}
	defer func() {
		if closeErr := o.Close(); closeErr != nil {
			logger.Warn("release session resources failed", "error", closeErr.Error())
		}
	}()

	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		ProbeTimeout: 180 * time.Millisecond,
		Retries:      8,
		OnStale: func(path string) {
			logger.Warn("removed stale session socket", "path", path)
		},
	})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintf(r.Stderr, "error: %v at %s\n", err, socketPath)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	logCompositor(ctx, logger)
	logger.Info("session owner started",
		"session_id", o.sessionID,
		"socket", socketPath,
		"templates", store.Len(),
		"templates_path", store.Path(),
		"extraction_backend", cfg.Extraction.Backend,
	)
	fmt.Fprintf(r.Stdout, "dictum session %s listening on %s (%d templates)\n", o.sessionID, socketPath, store.Len())

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return ipc.Serve(groupCtx, listener, o.controller)
	})
	group.Go(func() error {
		return o.controller.Run(groupCtx)
	})

	if err := group.Wait(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("session owner failed", "session_id", o.sessionID, "error", err.Error())
		return 1
	}
	logger.Info("session owner stopped", "session_id", o.sessionID)
	return 0
}

// buildOwner wires the engine and controller from config.
func buildOwner(cfg config.Config, store *template.Store, logger *slog.Logger) (*owner, error) {
	o := &owner{sessionID: uuid.NewString()}
	logger = logger.With("session_id", o.sessionID)

	resolver, closeResolver, err := buildResolver(cfg.Extraction, logger)
	if err != nil {
		return nil, err
	}
	if closeResolver != nil {
		o.closers = append(o.closers, closeResolver)
	}

	notifier := indicator.NewNotifier(cfg.Indicator, logger)
	engine := session.NewEngine(session.EngineConfig{
		SessionID:    o.sessionID,
		Templates:    store,
		Parser:       command.NewParser(command.NewMatcher()),
		Resolver:     resolver,
		Paster:       output.NewPaster(cfg, logger),
		Feedback:     notifier,
		Logger:       logger,
		HistoryLimit: cfg.History.Limit,
		AutoDate:     cfg.Templates.AutoDate,
	})

	speech := inference.NewSpeechClient(inference.ClientConfig{
		BaseURL: cfg.Speech.BaseURL,
		APIKey:  config.APIKey(cfg.Speech.APIKeyEnv),
		Model:   cfg.Speech.Model,
	}, cfg.Speech.Language)
	transcriber := pipeline.NewTranscriber(cfg, speech, logger)

	o.controller = session.NewController(logger, engine, transcriber, notifier)
	return o, nil
}

// buildResolver selects the primary extractor. The returned closer is nil
// when nothing needs releasing.
func buildResolver(cfg config.ExtractionConfig, logger *slog.Logger) (*extract.Resolver, func() error, error) {
	fallback := extract.NewFallback(cfg.FallbackConfidence, cfg.Synonyms)
	opts := []extract.Option{
		extract.WithTimeout(time.Duration(cfg.TimeoutMS) * time.Millisecond),
		extract.WithLogger(logger),
	}

	switch cfg.Backend {
	case config.BackendGRPC:
		client, err := inference.DialExtractor(cfg.GRPC)
		if err != nil {
			return nil, nil, err
		}
		return extract.NewResolver(client, fallback, opts...), client.Close, nil
	case config.BackendOpenAI:
		client, err := inference.NewChatExtractor(inference.ClientConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  config.APIKey(cfg.APIKeyEnv),
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, nil, err
		}
		return extract.NewResolver(client, fallback, opts...), nil, nil
	case config.BackendNone, "":
		return extract.NewResolver(nil, fallback, opts...), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported extraction backend %q", cfg.Backend)
	}
}

func logCompositor(ctx context.Context, logger *slog.Logger) {
	if strings.TrimSpace(os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")) == "" {
		return
	}
	queryCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	version, err := hypr.QueryVersion(queryCtx)
	if err != nil {
		logger.Warn("query hyprland version failed", "error", err.Error())
		return
	}
	logger.Info("hyprland detected", "tag", version.Tag, "commit", version.Commit)
}
