package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/yomu-api/internal/api"
	"github.com/phrazzld/yomu-api/internal/config"
	"github.com/phrazzld/yomu-api/internal/domain/srs"
	"github.com/phrazzld/yomu-api/internal/events"
	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/phrazzld/yomu-api/internal/platform/gemini"
	"github.com/phrazzld/yomu-api/internal/platform/tokenizer"
	"github.com/phrazzld/yomu-api/internal/redact"
	"github.com/phrazzld/yomu-api/internal/service/capture"
	"github.com/phrazzld/yomu-api/internal/service/review"
	"github.com/phrazzld/yomu-api/internal/store"
	"github.com/phrazzld/yomu-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	cardStore  store.CardStore
	scheduler  srs.Service
	dictionary lexicon.Dictionary
	tokenizer  lexicon.Tokenizer

	captureService *capture.Service
	reviewService  *review.Service
	sessions       *review.SessionRegistry

	eventEmitter *events.InMemoryEventEmitter
	taskQueue    *task.TaskQueue
	workerPool   *task.WorkerPool
}

// newApplication opens the store and wires every service. On error any
// resource already acquired is released.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}
	if err := app.init(ctx); err != nil {
		app.cleanup()
		return nil, err
	}
	return app, nil
}

func (app *application) init(ctx context.Context) error {
	cfg, logger := app.config, app.logger

	var err error

	app.db, app.cardStore, err = openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	params, err := srs.NewParams(paramsConfig(cfg.SRS))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	app.scheduler = srs.NewServiceWithParams(params)

	if err := app.setupLexicon(ctx); err != nil {
		return err
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.taskQueue = task.NewTaskQueue(cfg.Task.QueueSize, logger)
	app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{
		WorkerCount: cfg.Task.WorkerCount,
	}, logger)
	app.workerPool.SetErrorHandler(func(t task.Task, err error) {
		logger.Warn("background task failed",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			redact.ErrorAttr(err))
	})
	app.eventEmitter.RegisterHandler(
		task.NewCaptureEventHandler(app.taskQueue, app.cardStore, app.dictionary, logger),
	)

	app.captureService, err = capture.NewService(
		app.cardStore, app.eventEmitter, app.scheduler.DefaultDifficulty(), logger)
	if err != nil {
		return fmt.Errorf("failed to create capture service: %w", err)
	}

	app.reviewService, err = review.NewService(app.cardStore, app.scheduler, app.eventEmitter, logger)
	if err != nil {
		return fmt.Errorf("failed to create review service: %w", err)
	}
	app.sessions = review.NewSessionRegistry(app.reviewService, cfg.Review.SessionTTL)

	app.workerPool.Start()

	logger.Info("application initialized",
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("tokenizer_enabled", app.tokenizer != nil),
		slog.Bool("gemini_enabled", cfg.LLM.GeminiAPIKey != ""))
	return nil
}

// setupLexicon builds the dictionary and tokenizer collaborators. Both are
// optional: without a Gemini key lookups return the placeholder, and
// without a tokenizer URL /analyze answers 503.
func (app *application) setupLexicon(ctx context.Context) error {
	var dict lexicon.Dictionary = lexicon.PlaceholderDictionary{}
	if app.config.LLM.GeminiAPIKey != "" {
		g, err := gemini.NewDictionary(ctx, app.logger, app.config.LLM)
		if err != nil {
			return fmt.Errorf("failed to initialize Gemini dictionary: %w", err)
		}
		dict = g
	}
	app.dictionary = lexicon.NewCachedDictionary(dict, app.config.Dictionary.CacheTTL)

	if app.config.Tokenizer.URL != "" {
		c, err := tokenizer.NewClient(app.config.Tokenizer.URL, app.config.Tokenizer.Timeout, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize tokenizer client: %w", err)
		}
		app.tokenizer = c
	}
	return nil
}

func (app *application) router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Cards:          api.NewCardHandler(app.captureService, app.reviewService, app.logger),
		Sessions:       api.NewSessionHandler(app.reviewService, app.sessions, app.logger),
		Lexicon:        api.NewLexiconHandler(app.tokenizer, app.dictionary, app.logger),
		AllowedOrigins: app.config.Server.CORSAllowedOrigins,
		Logger:         app.logger,
	})
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and
// releases all resources.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()
	return app.serveHTTP(ctx, app.router())
}

// cleanup handles graceful shutdown of application resources. It is safe on
// a partially initialized application.
func (app *application) cleanup() {
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.workerPool != nil {
		app.workerPool.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", redact.ErrorAttr(err))
		}
		app.db = nil
	}
	app.logger.Info("application shutdown completed")
}

func paramsConfig(c config.SRSConfig) srs.ParamsConfig {
	return srs.ParamsConfig{
		DefaultDifficulty: c.DefaultDifficulty,
		MinDifficulty:     c.MinDifficulty,
		MaxDifficulty:     c.MaxDifficulty,
		MaxInterval:       c.MaxInterval,
		ForgotPenalty:     c.ForgotPenalty,
		HardPenalty:       c.HardPenalty,
		EasyBonus:         c.EasyBonus,
		HardGrowth:        c.HardGrowth,
		EasyGrowth:        c.EasyGrowth,
		ForgotInterval:    c.ForgotInterval,
		HardMinInterval:   c.HardMinInterval,
		EasyMinInterval:   c.EasyMinInterval,
	}
}
