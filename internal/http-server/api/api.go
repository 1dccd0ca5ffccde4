package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"swagportal/internal/config"
	"swagportal/internal/http-server/handlers/access"
	"swagportal/internal/http-server/handlers/address"
	handlerErrors "swagportal/internal/http-server/handlers/errors"
	"swagportal/internal/http-server/handlers/inventory"
	"swagportal/internal/http-server/handlers/invite"
	"swagportal/internal/http-server/handlers/order"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"swagportal/internal/http-server/middleware/authenticate"
	"swagportal/internal/http-server/middleware/logging"
	"swagportal/internal/http-server/middleware/timeout"
	"swagportal/lib/sl"
)

const requestTimeout = 10 * time.Second

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	access.Core
	inventory.Core
	order.Core
	address.Core
	invite.Core
}

// NewRouter wires the public, session and webhook routes; metrics is optional
func NewRouter(conf *config.Config, log *slog.Logger, handler Handler, metrics prometheus.Gatherer) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(requestTimeout))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(handlerErrors.NotFound(log))
	router.MethodNotAllowed(handlerErrors.NotAllowed(log))

	if metrics != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	}

	router.Group(func(r chi.Router) {
		r.Use(logging.New(log))
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Route("/v1", func(rootApi chi.Router) {
			rootApi.Post("/auth/check", access.Check(log, handler))
			rootApi.Get("/inventory", inventory.Get(log, handler))

			rootApi.Group(func(private chi.Router) {
				private.Use(authenticate.New(log, handler))
				private.Post("/orders", order.Place(log, handler))
				private.Post("/address/validate", address.Validate(log, handler))
			})
		})
		r.Route("/webhook", func(rootWH chi.Router) {
			rootWH.Post("/invite", invite.Create(log, handler, conf.Webhook.Secret))
		})
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler, metrics prometheus.Gatherer) (*Server, error) {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      NewRouter(conf, log, handler, metrics),
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &server, nil
}

// Start blocks until the server is shut down
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIp, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	err = s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
