package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/pkg/logger"
)

// MessageStream pipes the model's answer over SSE. Validation failures are
// reported as normal JSON errors before the stream starts; once streaming
// has begun, a failure just terminates the stream without a done event.
func (h *chatHandlers) MessageStream(w http.ResponseWriter, r *http.Request) {
	var body dto.ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}
	if body.Message == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("message is required"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.ResponseHandler.HandleError(w, r, fmt.Errorf("streaming not supported"))
		return
	}

	log := logger.FromContext(r.Context())
	started := false
	send := func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := writeSSE(w, dto.StreamChunkEvent{Content: chunk}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	sessionID, err := h.ChatSvc.StreamTurn(r.Context(), workspaceContext(r), body, send)
	if err != nil {
		if !started {
			h.ResponseHandler.HandleError(w, r, err)
			return
		}
		// Headers are gone; all we can do is end the stream early.
		log.Error("stream aborted", "sessionId", sessionID, "error", err)
		return
	}

	if !started {
		// The model produced no chunks at all. Still open the stream so the
		// client gets a well-formed termination event.
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}
	if err := writeSSE(w, dto.StreamChunkEvent{Done: true}); err != nil {
		log.Debug("failed to write done event", "error", err)
	}
	flusher.Flush()
}

func writeSSE(w http.ResponseWriter, event dto.StreamChunkEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
