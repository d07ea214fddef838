// Package handler exposes the repositories and list views as JSON over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/backup"
	"github.com/dukerupert/larder/internal/grocery"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
	"github.com/dukerupert/larder/internal/websocket"
)

// maxBody caps JSON request bodies.
const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

var validationErrors = []error{
	model.ErrIDRequired,
	model.ErrNameRequired,
	model.ErrInvalidQuantity,
	model.ErrInvalidColor,
	model.ErrInvalidDate,
	model.ErrInvalidMeal,
	store.ErrCorruptData,
	store.ErrUnknownCategory,
	backup.ErrUnsupportedVersion,
	backup.ErrInvalidBackup,
}

// writeError maps domain errors to a status. Anything unrecognised is
// logged and reported as "failed to <op>".
func writeError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			writeErrorMsg(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	switch {
	case errors.Is(err, store.ErrCategoryInUse),
		errors.Is(err, grocery.ErrClearInProgress),
		errors.Is(err, backup.ErrBusy):
		writeErrorMsg(w, http.StatusConflict, err.Error())
	case errors.Is(err, backup.ErrPassphraseRequired),
		errors.Is(err, backup.ErrDecrypt):
		writeErrorMsg(w, http.StatusUnauthorized, err.Error())
	default:
		logger.Error("request failed", "op", op, "error", err)
		writeErrorMsg(w, http.StatusInternalServerError, "failed to "+op)
	}
}

// Broadcaster is satisfied by *websocket.Hub.
type Broadcaster interface {
	Broadcast(websocket.Message)
}

type notifier struct {
	hub Broadcaster
}

func (n notifier) broadcast(entity, action, id string) {
	if n.hub != nil {
		n.hub.Broadcast(websocket.Changed(entity, action, id))
	}
}

type reorderRequest struct {
	SourceID      string `json:"sourceId"`
	DestinationID string `json:"destinationId"`
}

func decodeReorder(w http.ResponseWriter, r *http.Request) (reorderRequest, bool) {
	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	if req.SourceID == "" || req.DestinationID == "" {
		writeErrorMsg(w, http.StatusBadRequest, "sourceId and destinationId are required")
		return req, false
	}
	return req, true
}
