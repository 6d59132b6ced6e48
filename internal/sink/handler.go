// Package sink is a development endpoint standing in for the hosted waitlist
// backends. It accepts the same JSON body or query string the HTTP transport
// sends and keeps the most recent entries in memory.
package sink

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"mirrorsync/internal/model"
	"mirrorsync/internal/transport"
	"mirrorsync/internal/waitlist"
	"mirrorsync/pkg/logger"
	"mirrorsync/pkg/metrics"
	"mirrorsync/pkg/trace"
)

const maxBody = 16 << 10

type Handler struct {
	secret string
	limit  int
	logger *zap.Logger

	mu      sync.Mutex
	entries []model.Payload
}

// NewHandler keeps at most limit entries. When secret is set every request
// must carry a bearer token produced with it.
func NewHandler(secret string, limit int, logger *zap.Logger) *Handler {
	if limit <= 0 {
		limit = 100
	}
	return &Handler{secret: secret, limit: limit, logger: logger}
}

func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	log := logger.WithTrace(trace.WithContext(r.Context(), r.Header.Get(trace.HeaderName)), h.logger)

	payload, err := decodePayload(r)
	if err != nil {
		h.reject(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := waitlist.Validate(payload.Email); err != nil {
		h.reject(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if h.secret != "" {
		if err := h.verify(r, payload); err != nil {
			log.Warn("Rejected unsigned waitlist record", zap.Error(err))
			h.reject(w, r, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	h.mu.Lock()
	h.entries = append(h.entries, payload)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]model.Payload(nil), h.entries[over:]...)
	}
	h.mu.Unlock()

	metrics.IncrementSinkReceived(r.Method, "accepted")
	log.Info("Waitlist record received",
		zap.String("id", payload.ID),
		zap.String("form", payload.FormID),
		zap.String("email", logger.MaskEmail(payload.Email)),
		zap.Bool("wallet", payload.Wallet != ""),
	)
	writeJSON(w, http.StatusCreated, map[string]string{"status": "joined", "id": payload.ID})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	out := append([]model.Payload{}, h.entries...)
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"entries": out, "total": len(out)})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) verify(r *http.Request, p model.Payload) error {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return errors.New("missing bearer token")
	}
	claims, err := transport.VerifyToken(h.secret, raw)
	if err != nil {
		return err
	}
	if claims.Subject != model.Fingerprint(p.Email) || claims.ID != p.ID {
		return errors.New("token does not match record")
	}
	return nil
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, status int, msg string) {
	metrics.IncrementSinkReceived(r.Method, "rejected")
	writeError(w, status, msg)
}

func decodePayload(r *http.Request) (model.Payload, error) {
	if r.Method == http.MethodGet {
		return model.PayloadFromValues(r.URL.Query())
	}
	var p model.Payload
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	if err := dec.Decode(&p); err != nil {
		return model.Payload{}, err
	}
	return p, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
