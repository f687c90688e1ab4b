package billing

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/logger"
)

type receivedBody struct {
	Received bool `json:"received"`
}

// webhook verifies, decodes and reconciles one delivery.
//
//	400 signature or payload problems; the provider should not retry
//	500 missing secret or transient failure; the provider retries
//	200 everything else, including ignored and skipped events
func (m *module) webhook(p billing.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		log := m.log.With(logger.Component("webhook"), logger.Provider(p.Name()))

		var eventType string
		respond := func(status int, body any) {
			writeJSON(w, status, body)
			m.metrics.ObserveWebhook(p.Name(), eventType, status, time.Since(start))
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, m.maxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				log.WarnContext(ctx, "webhook payload too large", slog.Int64("limit", tooLarge.Limit))
				respond(http.StatusRequestEntityTooLarge, errorBody{Error: "payload too large"})
				return
			}
			respond(http.StatusBadRequest, errorBody{Error: "unreadable body"})
			return
		}

		ev, err := p.VerifyEvent(ctx, payload, r.Header.Get(p.SignatureHeader()))
		switch {
		case errors.Is(err, billing.ErrInvalidSignature):
			log.WarnContext(ctx, "webhook signature rejected", logger.Error(err))
			respond(http.StatusBadRequest, errorBody{Error: "invalid signature"})
			return
		case errors.Is(err, billing.ErrMissingSecret):
			log.ErrorContext(ctx, "webhook secret is not configured")
			respond(http.StatusInternalServerError, errorBody{Error: "webhook secret not configured"})
			return
		case errors.Is(err, billing.ErrMalformedEvent):
			log.WarnContext(ctx, "webhook payload malformed", logger.Error(err))
			respond(http.StatusBadRequest, errorBody{Error: "malformed event"})
			return
		case err != nil:
			log.ErrorContext(ctx, "webhook verification failed", logger.Error(err))
			respond(http.StatusInternalServerError, errorBody{Error: "internal error"})
			return
		}

		meta := ev.Meta()
		eventType = meta.Type
		log = log.With(logger.EventType(meta.Type), logger.EventID(meta.ID))

		outcome, err := m.dispatcher.Dispatch(ctx, ev)
		if err != nil {
			log.ErrorContext(ctx, "webhook reconciliation failed", logger.Error(err))
			respond(http.StatusInternalServerError, errorBody{Error: "internal error"})
			return
		}

		log.DebugContext(ctx, "webhook handled",
			logger.Outcome(outcome.String()), logger.Duration(time.Since(start)))
		respond(http.StatusOK, receivedBody{Received: true})
	}
}
