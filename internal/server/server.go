package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/eventdesk/apiserver/config"
	"github.com/eventdesk/apiserver/internal/db"
	"github.com/eventdesk/apiserver/internal/handlers"
	"github.com/eventdesk/apiserver/internal/mq"
	"github.com/eventdesk/apiserver/internal/notifier"
	"github.com/eventdesk/apiserver/internal/services"
	"github.com/eventdesk/apiserver/internal/storage"
	"github.com/eventdesk/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	closers    []io.Closer
}

// Services groups the use-case layer the router dispatches to.
type Services struct {
	Users    *services.UserService
	Events   *services.EventService
	Feedback *services.FeedbackService
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	srv := &Server{db: dbConn}

	mailer, err := srv.newMailer(ctx, cfg)
	if err != nil {
		_ = srv.Shutdown(ctx)
		return nil, err
	}

	opts := []services.EventOption{
		services.WithClock(func() time.Time { return time.Now().In(cfg.Location()) }),
		services.WithFanoutTimeout(cfg.Mail.FanoutTimeout),
	}

	backend, err := storage.Open(ctx, cfg.Archive)
	if err != nil {
		_ = srv.Shutdown(ctx)
		return nil, err
	}
	if backend != nil {
		srv.closers = append(srv.closers, backend)
		opts = append(opts, services.WithArchive(storage.NewArchive(backend)))
	}

	if cfg.Discord.BotToken != "" {
		announcer, err := notifier.NewDiscordAnnouncerFromToken(cfg.Discord.BotToken, cfg.Discord.ChannelID)
		if err != nil {
			_ = srv.Shutdown(ctx)
			return nil, err
		}
		opts = append(opts, services.WithAnnouncer(announcer))
	}

	dispatcher := notifier.NewDispatcher(mailer, notifier.Config{
		From:        cfg.Mail.From,
		SendTimeout: cfg.Mail.SendTimeout,
	})

	ledger := services.NewRegistrationLedger(store.NewRegistrationRepository(dbConn))
	eventService := services.NewEventService(store.NewEventRepository(dbConn), ledger, dispatcher, opts...)
	svc := Services{
		Users:    services.NewUserService(store.NewUserRepository(dbConn), services.BcryptHasher{}),
		Events:   eventService,
		Feedback: services.NewFeedbackService(store.NewFeedbackRepository(dbConn), eventService),
	}

	router := NewRouter(svc, cfg.JWTSecret)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	srv.router = router
	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv, nil
}

// NewRouter mounts every API route on a fresh chi router.
func NewRouter(svc Services, jwtSecret string) *chi.Mux {
	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, svc.Users, jwtSecret)
	})
	router.Route("/events", func(r chi.Router) {
		handlers.EventRouter(r, svc.Events, svc.Feedback, authMiddleware)
	})
	router.Route("/feedback", func(r chi.Router) {
		handlers.FeedbackRouter(r, svc.Feedback, authMiddleware)
	})
	return router
}

// newMailer selects the outbound mail transport named by cfg.Mail.Transport.
func (s *Server) newMailer(ctx context.Context, cfg config.Config) (notifier.Mailer, error) {
	switch cfg.Mail.Transport {
	case "smtp":
		return notifier.NewSMTPMailer(cfg.Mail)
	case "queue":
		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, queue)
		return notifier.NewQueueMailer(queue, cfg.Mail.QueueChannel), nil
	case "", "log":
		log.Println("mail transport is log; notifications are written to the log, not sent")
		return notifier.LogMailer{}, nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Mail.Transport)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires, then releases the database and every client opened in New.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	for _, c := range s.closers {
		_ = c.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
