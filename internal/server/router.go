package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	bidcontroller "logiledger/internal/bid/controller"
	consignmentcontroller "logiledger/internal/consignment/controller"
	"logiledger/internal/httpx"
	jobcontroller "logiledger/internal/job/controller"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func NewRouter(
	consignmentCtrl *consignmentcontroller.ConsignmentController,
	bidCtrl *bidcontroller.BidController,
	jobCtrl *jobcontroller.JobController,
	resolver CallerResolver,
	db Pinger,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(traceID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health(db, logger))
		r.Get("/consignments/public", consignmentCtrl.ListPublic)
		r.Get("/consignments/locations", consignmentCtrl.LocationSuggestions)

		r.Group(func(r chi.Router) {
			r.Use(authenticate(resolver, logger))

			r.Route("/consignments", func(r chi.Router) {
				r.Post("/", consignmentCtrl.Create)
				r.Get("/mine", consignmentCtrl.ListMine)
				r.Get("/available", consignmentCtrl.ListAvailable)
				r.Get("/{id}", consignmentCtrl.Get)
				r.Post("/{id}/recount", consignmentCtrl.Recount)
				r.Get("/{id}/bids", bidCtrl.ListForConsignment)
			})

			r.Route("/bids", func(r chi.Router) {
				r.Post("/", bidCtrl.Submit)
				r.Get("/mine", bidCtrl.ListMine)
				r.Post("/{id}/award", bidCtrl.Award)
			})

			r.Route("/jobs", func(r chi.Router) {
				r.Get("/awarded", jobCtrl.ListAwarded)
				r.Get("/company", jobCtrl.ListCompany)
				r.Get("/{id}", jobCtrl.Get)
				r.Put("/{id}/status", jobCtrl.UpdateStatus)
				r.Post("/{id}/invoice", jobCtrl.UploadInvoice)
				r.Post("/{id}/invoice/scan", jobCtrl.ScanInvoice)
			})
		})
	})

	return r
}

func health(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Warn("health check failed", zap.String("traceId", httpx.TraceID(r)), zap.Error(err))
			httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Database: "unreachable"}, logger)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "up"}, logger)
	}
}
