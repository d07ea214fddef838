package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/backup"
	"github.com/dukerupert/larder/internal/websocket"
)

// maxBackup caps uploaded backups.
const maxBackup = 32 << 20

// passphraseHeader carries the optional backup passphrase, keeping it out
// of URLs and access logs.
const passphraseHeader = "X-Backup-Passphrase"

type BackupHandler struct {
	notifier
	manager *backup.Manager
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, hub Broadcaster, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{notifier: notifier{hub: hub}, manager: m, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	passphrase := r.Header.Get(passphraseHeader)
	data, err := h.manager.Export(passphrase)
	if err != nil {
		writeError(w, h.logger, "export backup", err)
		return
	}

	name := "larder.backup"
	if passphrase != "" {
		name += ".enc"
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackup))
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "could not read backup")
		return
	}

	snap, err := h.manager.Restore(data, r.Header.Get(passphraseHeader))
	if err != nil {
		writeError(w, h.logger, "restore backup", err)
		return
	}
	h.broadcast(websocket.EntityBackup, "restored", "")
	writeJSON(w, http.StatusOK, map[string]int{
		"items":      len(snap.Items),
		"categories": len(snap.Categories),
		"recipes":    len(snap.Recipes),
		"mealPlans":  len(snap.MealPlans),
	})
}
