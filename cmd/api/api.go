package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"karaoke/internal/booking"
	"karaoke/internal/pricing"
	"karaoke/internal/ratelimiter"
	"karaoke/internal/store"
)

type application struct {
	config      config
	store       store.Storage
	logger      *zap.SugaredLogger
	pricer      *pricing.Engine
	priceCache  *pricing.Cache
	bookings    *booking.Service
	rateLimiter ratelimiter.Limiter
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	frontendURL string
	auth        authConfig
	redis       redisConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
}

type basicConfig struct {
	user string
	pass string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type redisConfig struct {
	addr    string
	enabled bool
	ttl     time.Duration
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.With(app.BasicAuthMiddleware()).Get("/metrics", promhttp.Handler().ServeHTTP)

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", app.listBookingsHandler)
			r.Post("/", app.createBookingHandler)
			r.Get("/calendar", app.bookingCalendarHandler)
			r.Get("/available-slots", app.availableSlotsHandler)

			r.Route("/{bookingID}", func(r chi.Router) {
				r.Get("/", app.getBookingHandler)
				r.Patch("/", app.updateBookingHandler)
			})
		})

		r.Route("/branches", func(r chi.Router) {
			r.Get("/", app.listBranchesHandler)
			r.Post("/", app.createBranchHandler)

			r.Route("/{branchID}", func(r chi.Router) {
				r.Get("/", app.getBranchHandler)
				r.Patch("/", app.updateBranchHandler)
				r.Get("/schedule", app.branchScheduleHandler)
			})
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", app.listRoomsHandler)
			r.Post("/", app.createRoomHandler)

			r.Route("/{roomID}", func(r chi.Router) {
				r.Get("/", app.getRoomHandler)
				r.Patch("/", app.updateRoomHandler)
			})
		})

		r.Route("/pricing", func(r chi.Router) {
			r.Get("/", app.listPriceRulesHandler)
			r.Post("/", app.createPriceRuleHandler)
			r.Get("/quote", app.priceQuoteHandler)
			r.Patch("/{ruleID}", app.updatePriceRuleHandler)
		})

		r.Route("/slot-config", func(r chi.Router) {
			r.Get("/", app.getSlotConfigHandler)
			r.Put("/", app.putSlotConfigHandler)
			r.Get("/grid", app.slotWindowsHandler)
		})

		r.Get("/calendar/grid", app.calendarGridHandler)
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
