package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/cohort-tools/apiserver/config"
	"github.com/cohort-tools/apiserver/internal/auth"
	"github.com/cohort-tools/apiserver/internal/db"
	"github.com/cohort-tools/apiserver/internal/handlers"
	"github.com/cohort-tools/apiserver/internal/mq"
	"github.com/cohort-tools/apiserver/internal/services"
	"github.com/cohort-tools/apiserver/internal/storage"
	"github.com/cohort-tools/apiserver/internal/store"
)

// Server wraps the HTTP server, router and external clients.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	client     *mongo.Client
	broker     *mq.MQ
}

// New constructs a Server with all dependencies wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	secret := strings.TrimSpace(cfg.TokenSecret)
	if secret == "" {
		return nil, errors.New("TOKEN_SECRET is required")
	}

	client, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	database := client.Database(cfg.Mongo.Database)
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	broker, err := newBroker(ctx, cfg.MQ)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	avatars, err := newAvatarStorage(ctx, cfg.Storage)
	if err != nil {
		closeBroker(broker)
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	events := services.NewEventPublisher(broker)

	userRepo := store.NewUserRepository(database)
	cohortRepo := store.NewCohortRepository(database)
	studentRepo := store.NewStudentRepository(database)

	issuer := auth.NewTokenIssuer(secret, auth.DefaultTokenTTL)
	verifier := auth.NewTokenVerifier(secret)
	gate := auth.RequireAuth(verifier)

	authService := services.NewAuthService(userRepo, issuer, events)
	userService := services.NewUserService(userRepo)
	cohortService := services.NewCohortService(cohortRepo, events)
	studentService := services.NewStudentService(studentRepo, avatars, events)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", handlers.Healthz)
	router.Get("/docs", handlers.NewDocsHandler(cfg.DocsFile).Serve)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, gate)
	})
	router.Route("/api", func(r chi.Router) {
		r.Use(gate)
		r.Route("/cohorts", func(r chi.Router) {
			handlers.CohortRouter(r, cohortService)
		})
		r.Route("/students", func(r chi.Router) {
			handlers.StudentRouter(r, studentService)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userService)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 5005
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		client:     client,
		broker:     broker,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	closeBroker(s.broker)
	if s.client != nil {
		_ = s.client.Disconnect(context.Background())
	}
	return s.httpServer.Close()
}

func newBroker(ctx context.Context, cfg config.MQConfig) (*mq.MQ, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case "pubsub":
		backend, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

func newAvatarStorage(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	var backend storage.ObjectStorage

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	avatars := storage.NewStorage(backend)
	if err := avatars.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return avatars, nil
}

func closeBroker(broker *mq.MQ) {
	if broker != nil {
		_ = broker.Close()
	}
}
