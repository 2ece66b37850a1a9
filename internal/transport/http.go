package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	handler "github.com/vasiliy-maslov/production-orders/internal/handler/http"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
	"github.com/vasiliy-maslov/production-orders/internal/order"
	"github.com/vasiliy-maslov/production-orders/internal/user"
)

type Services struct {
	Catalog catalog.Service
	Orders  order.Service
	Ledger  ledger.Service
	Users   user.Service
}

func NewRouter(svc Services, authRequired bool) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	auth := handler.NewAuth(svc.Users, authRequired)

	r.Route("/api", func(api chi.Router) {
		api.Use(auth.Middleware)

		handler.NewProductHandler(svc.Catalog, auth).RegisterRoutes(api)
		handler.NewOrderHandler(svc.Orders, auth).RegisterRoutes(api)
		handler.NewLedgerHandler(svc.Ledger, auth).RegisterRoutes(api)
		handler.NewUserHandler(svc.Users, auth).RegisterRoutes(api)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			level := zerolog.InfoLevel
			switch {
			case status >= http.StatusInternalServerError:
				level = zerolog.ErrorLevel
			case status >= http.StatusBadRequest:
				level = zerolog.WarnLevel
			}

			log.WithLevel(level).
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request handled")
		}()

		next.ServeHTTP(ww, r)
	})
}
