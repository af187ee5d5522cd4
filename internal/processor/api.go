package processor

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/satori-nvr/satori/internal/event"
)

// Router builds the trigger API routes. Exposed for tests.
func (p *Processor) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)

	router.Post("/trigger", p.handleTrigger)

	return router
}

func (p *Processor) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var cmd event.TriggerCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		p.logger.Warn("Malformed trigger", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	trigger := p.cfg.Triggers.CreateTrigger(cmd, time.Now())
	p.logger.Info("Handling trigger", "id", trigger.Metadata.ID, "reason", trigger.Reason)

	p.mu.Lock()
	p.events.Trigger(r.Context(), trigger)
	p.mu.Unlock()

	// Nudge the processing loop so segments are captured promptly.
	select {
	case p.notify <- struct{}{}:
	default:
	}

	w.WriteHeader(http.StatusOK)
}
