package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/evcraddock/luxury-estates/internal/auth"
)

// apikeyHandlers manages the session user's API keys.
type apikeyHandlers struct {
	apiKeys *auth.APIKeyStore
}

// APIKeyResponse describes a stored key without the secret.
type APIKeyResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	KeyPrefix  string  `json:"key_prefix"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

// APIKeyCreateResponse carries the raw key, shown once.
type APIKeyCreateResponse struct {
	Key    string         `json:"key"`
	APIKey APIKeyResponse `json:"api_key"`
}

func keyResponse(k auth.APIKey) APIKeyResponse {
	resp := APIKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		KeyPrefix: k.KeyPrefix,
		CreatedAt: k.CreatedAt.UTC().Format(time.RFC3339),
	}
	if k.LastUsedAt != nil {
		s := k.LastUsedAt.UTC().Format(time.RFC3339)
		resp.LastUsedAt = &s
	}
	return resp
}

func (h *apikeyHandlers) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		apiMessage(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = "API Key"
	}

	rawKey, key, err := h.apiKeys.Create(name, auth.EmailFromContext(r.Context()))
	if err != nil {
		slog.Error("creating api key", "error", err)
		apiMessage(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	apiJSON(w, r, http.StatusCreated, APIKeyCreateResponse{Key: rawKey, APIKey: keyResponse(*key)})
}

func (h *apikeyHandlers) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.apiKeys.List(auth.EmailFromContext(r.Context()))
	if err != nil {
		slog.Error("listing api keys", "error", err)
		apiMessage(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]APIKeyResponse, len(keys))
	for i, k := range keys {
		resp[i] = keyResponse(k)
	}
	apiJSON(w, r, http.StatusOK, resp)
}

func (h *apikeyHandlers) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apiMessage(w, r, http.StatusBadRequest, "invalid key ID")
		return
	}

	if err := h.apiKeys.Delete(id, auth.EmailFromContext(r.Context())); err != nil {
		if errors.Is(err, auth.ErrKeyNotFound) {
			apiMessage(w, r, http.StatusNotFound, "key not found")
			return
		}
		slog.Error("deleting api key", "error", err)
		apiMessage(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
