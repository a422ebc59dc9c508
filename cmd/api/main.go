package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"closer-insights-go/internal/api"
	"closer-insights-go/internal/config"
	"closer-insights-go/internal/llm"
	"closer-insights-go/internal/logger"
	"closer-insights-go/internal/metrics"
	"closer-insights-go/internal/objections"
	"closer-insights-go/internal/pipeline"
	"closer-insights-go/internal/processor"
	"closer-insights-go/internal/scoring"
	"closer-insights-go/internal/script"
	"closer-insights-go/internal/speaker"
	"closer-insights-go/internal/transcription"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "closer-insights-go").Info("starting service")
	cfg := config.Load()

	patterns := speaker.Default()
	if cfg.SpeakerPatternsPath != "" {
		p, err := speaker.Load(cfg.SpeakerPatternsPath)
		if err != nil {
			log.WithError(err).Fatal("failed to load speaker patterns")
		}
		patterns = p
	}

	ref := script.Default()
	if cfg.ReferenceScriptPath != "" {
		s, err := script.Load(cfg.ReferenceScriptPath)
		if err != nil {
			log.WithError(err).Fatal("failed to load reference script")
		}
		ref = s
	}

	var client llm.Client
	if cfg.UseMockLLM {
		log.Warn("USE_MOCK_LLM=true, scoring with canned replies")
		client = llm.NewMockClient()
	} else {
		client = llm.NewGatewayClient(cfg.LLMGatewayURL, cfg.LLMAPIKey, cfg.LLMModel, nil)
	}

	retry := scoring.RetryPolicy{
		MaxAttempts:    cfg.ScoringMaxAttempts,
		Step:           cfg.ScoringBackoffStep,
		AttemptTimeout: cfg.ScoringAttemptTimeout,
	}
	m := metrics.DefaultMetrics

	scorer := scoring.NewScorer(client,
		scoring.WithRetryPolicy(retry),
		scoring.WithTemperature(cfg.ScoringTemperature),
		scoring.WithLogger(logger.ForComponent("scoring")),
		scoring.WithMetrics(m),
	)
	cache := objections.NewCache(cfg.ObjectionCacheTTL)
	classifier := objections.NewClassifier(client, cache,
		objections.WithRetryPolicy(retry),
		objections.WithLogger(logger.ForComponent("objections")),
		objections.WithMetrics(m),
	)
	transcriber := transcription.NewClient(cfg.TranscribeURL, cfg.UseMockTranscribe,
		transcription.WithLogger(logger.ForComponent("transcription")))

	proc := processor.New(scorer, classifier,
		processor.WithResolver(speaker.NewResolver(patterns)),
		processor.WithTranscriber(transcriber),
		processor.WithScript(ref),
		processor.WithLogger(logger.ForComponent("processor")),
	)

	store := api.NewStore()
	queueLog := logger.ForComponent("queue")
	queue := pipeline.New(proc.Process,
		pipeline.WithMaxInFlight(cfg.QueueMaxInFlight),
		pipeline.WithPollInterval(cfg.QueuePollInterval),
		pipeline.OnDone(store.Put),
		pipeline.OnFailure(func(callID string, err error) {
			queueLog.WithCall(callID).WithError(err).Warn("call marked failed")
		}),
		pipeline.WithLogger(queueLog),
		pipeline.WithMetrics(m),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queueDone := make(chan struct{})
	go func() {
		queue.Run(ctx)
		close(queueDone)
	}()
	go cache.Run(ctx, cfg.ObjectionSweepEvery, func(evicted int) {
		m.ObjectionCacheEvicted.Add(float64(evicted))
		if evicted > 0 {
			log.WithField("evicted", evicted).Debug("objection cache swept")
		}
	})

	// A /score request may spend the whole retry budget before answering with the
	// fallback result; the extra minute covers transcription and encoding.
	writeTimeout := retry.Budget()
	if writeTimeout > 0 {
		writeTimeout += time.Minute
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewServer(proc, queue, store, cfg.DatasetPath, logger.ForComponent("api")).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("server stopped")
	<-queueDone
	log.Info("queue drained")
}
