package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lingo-lesson-service/internal/app"
	"lingo-lesson-service/internal/config"
	"lingo-lesson-service/internal/domain"
	"lingo-lesson-service/internal/infra/backend"
	"lingo-lesson-service/internal/infra/memory"
	pgloader "lingo-lesson-service/internal/infra/postgres"
	redisinfra "lingo-lesson-service/internal/infra/redis"
	transport "lingo-lesson-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the lesson session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	checkpointTTL := config.TTLDuration(cfg.Redis.TTL, 30*24*time.Hour)
	lessonTTL := config.TTLDuration(cfg.Lesson.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var backendClient *backend.Client
	if cfg.Backend.URL != "" {
		backendClient = backend.NewClient(cfg.Backend.URL, config.TTLDuration(cfg.Backend.Timeout, 10*time.Second))
	}

	// Lesson content: backend API when configured, else Postgres, else the
	// built-in demo lesson. A Redis cache fronts whichever loader is chosen.
	var loader memory.LessonLoader = memory.NewStaticLessonLoader(sampleLessons())
	switch {
	case backendClient != nil:
		loader = backendClient
	case pool != nil:
		loader = pgloader.NewLessonLoader(pool)
	}

	var lessons app.LessonRepository
	if redisClient != nil {
		lessons = redisinfra.NewLessonRepository(redisClient, loader, lessonTTL)
	} else {
		lessons = memory.NewLessonRepository(loader, lessonTTL)
	}

	var stores app.ProgressStores
	if redisClient != nil {
		stores = redisinfra.NewProgressStores(redisClient, checkpointTTL)
	} else {
		stores = memory.NewProgressStores()
	}

	var grader app.Grader
	var completer app.Completer
	var hearts app.HeartSource
	if backendClient != nil {
		grader = backendClient
		completer = backendClient
		hearts = backendClient
	} else {
		// Self-hosted mode: grade against local content, skip XP reporting,
		// and leave the heart gate effectively open.
		defaultHearts := cfg.Hearts.Default
		if defaultHearts <= 0 {
			defaultHearts = 5
		}
		grader = memory.NewGrader(lessons)
		completer = memory.NoopCompleter{}
		hearts = memory.NewStaticHeartSource(domain.HeartState{Hearts: defaultHearts})
	}

	service := app.NewSessionService(memory.NewSessionRepository(), lessons, stores, hearts, grader, completer)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting lesson service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleLessons provides a minimal demo lesson; real deployments load content
// from the backend API or Postgres.
func sampleLessons() map[string]domain.Lesson {
	return map[string]domain.Lesson{
		"lesson-1": {
			ID:    "lesson-1",
			Title: "Basics 1",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: `Which one means "the man"?`,
					Options: []domain.Option{
						{Text: "la femme", Correct: false},
						{Text: "l'homme", Correct: true},
						{Text: "le garçon", Correct: false},
					},
				},
				{
					ID:     "q2",
					Prompt: `Which one means "the woman"?`,
					Options: []domain.Option{
						{Text: "la femme", Correct: true},
						{Text: "l'homme", Correct: false},
						{Text: "la fille", Correct: false},
					},
				},
			},
		},
	}
}
