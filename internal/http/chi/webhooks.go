package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marcelsud/webhook-outbox/webhook"
)

/* HTTP layer DTOs for the operator API
 * Separate from domain entities to avoid leaking internal structure
 */

// maxBodySize bounds event payloads accepted by the API
const maxBodySize = 1 << 20

type deliveryResponse struct {
	Outcome      string    `json:"outcome"`
	StatusCode   int       `json:"status_code"`
	DurationMS   int64     `json:"duration_ms"`
	Error        string    `json:"error,omitempty"`
	ResponseBody string    `json:"response_body,omitempty"`
	Attempt      int       `json:"attempt"`
	AttemptedAt  time.Time `json:"attempted_at"`
}

type attemptResponse struct {
	ID            string    `json:"id"`
	SubscriberID  string    `json:"subscriber_id"`
	Event         string    `json:"event"`
	Outcome       string    `json:"outcome"`
	StatusCode    int       `json:"status_code"`
	DurationMS    int64     `json:"duration_ms"`
	Error         string    `json:"error,omitempty"`
	AttemptNumber int       `json:"attempt_number"`
	CreatedAt     time.Time `json:"created_at"`
}

type historyResponse struct {
	SubscriberID string            `json:"subscriber_id"`
	Recent       []attemptResponse `json:"recent"`
	Durable      []attemptResponse `json:"durable"`
}

type publishResult struct {
	SubscriberID string            `json:"subscriber_id"`
	Delivery     *deliveryResponse `json:"delivery,omitempty"`
	Error        string            `json:"error,omitempty"`
}

type publishResponse struct {
	Event   string          `json:"event"`
	Results []publishResult `json:"results"`
}

// testFireRequest is the body of POST /v1/subscribers/{subscriber_id}/test
type testFireRequest struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toDeliveryResponse(r webhook.DeliveryResult) deliveryResponse {
	return deliveryResponse{
		Outcome:      r.Outcome.String(),
		StatusCode:   r.StatusCode,
		DurationMS:   r.Duration.Milliseconds(),
		Error:        r.Error,
		ResponseBody: r.ResponseBody,
		Attempt:      r.Attempt,
		AttemptedAt:  r.AttemptedAt,
	}
}

func toAttemptResponses(attempts []webhook.Attempt) []attemptResponse {
	result := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		result = append(result, attemptResponse{
			ID:            a.ID,
			SubscriberID:  a.SubscriberID,
			Event:         a.Event,
			Outcome:       a.Outcome.String(),
			StatusCode:    a.StatusCode,
			DurationMS:    a.Duration.Milliseconds(),
			Error:         a.Error,
			AttemptNumber: a.AttemptNumber,
			CreatedAt:     a.CreatedAt,
		})
	}
	return result
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, webhook.ErrSubscriberNotFound), errors.Is(err, webhook.ErrNoRecentPayload):
		return http.StatusNotFound
	case webhook.IsConfigurationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// readPayload returns the request body, which must be a JSON document
func readPayload(r *http.Request) (json.RawMessage, error) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	if len(body) > maxBodySize {
		return nil, errors.New("request body too large")
	}
	if !json.Valid(body) {
		return nil, errors.New("request body must be a JSON document")
	}
	return body, nil
}

// postEvent handles POST /v1/subscribers/{subscriber_id}/events/{event}
func postEvent(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readPayload(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		result, err := webhookService.DeliverEvent(r.Context(), chi.URLParam(r, "subscriber_id"), chi.URLParam(r, "event"), body)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}

		writeJSON(w, http.StatusOK, toDeliveryResponse(result))
	})
}

// postRedeliver handles POST /v1/subscribers/{subscriber_id}/events/{event}/redeliver
func postRedeliver(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, err := webhookService.RedeliverLast(r.Context(), chi.URLParam(r, "subscriber_id"), chi.URLParam(r, "event"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}

		writeJSON(w, http.StatusOK, toDeliveryResponse(result))
	})
}

// postTestFire handles POST /v1/subscribers/{subscriber_id}/test
func postTestFire(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req testFireRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid test fire request"))
			return
		}

		result, err := webhookService.TestFire(r.Context(), chi.URLParam(r, "subscriber_id"), req.Event, req.Data)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}

		writeJSON(w, http.StatusOK, toDeliveryResponse(result))
	})
}

// getAttempts handles GET /v1/subscribers/{subscriber_id}/attempts
func getAttempts(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		history, err := webhookService.History(r.Context(), chi.URLParam(r, "subscriber_id"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}

		writeJSON(w, http.StatusOK, historyResponse{
			SubscriberID: history.SubscriberID,
			Recent:       toAttemptResponses(history.Recent),
			Durable:      toAttemptResponses(history.Durable),
		})
	})
}

// postPublish handles POST /v1/events/{event}
func postPublish(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		event := chi.URLParam(r, "event")

		body, err := readPayload(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		results, err := webhookService.Publish(r.Context(), event, body)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}

		response := publishResponse{
			Event:   event,
			Results: make([]publishResult, 0, len(results)),
		}
		for _, res := range results {
			pr := publishResult{SubscriberID: res.SubscriberID}
			if res.Err != nil {
				pr.Error = res.Err.Error()
			} else {
				d := toDeliveryResponse(res.Result)
				pr.Delivery = &d
			}
			response.Results = append(response.Results, pr)
		}

		writeJSON(w, http.StatusOK, response)
	})
}
