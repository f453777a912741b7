package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/evcraddock/luxury-estates/internal/auth"
)

// userHandlers manages studio users. Routes are admin only.
type userHandlers struct {
	users    *auth.UserStore
	sessions *auth.SessionStore
	apiKeys  *auth.APIKeyStore
	passkeys *auth.PasskeyStore
}

func (h *userHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		slog.Error("listing users", "error", err)
		apiMessage(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiJSON(w, r, http.StatusOK, orEmpty(users))
}

func (h *userHandlers) addUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apiMessage(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		apiMessage(w, r, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.users.Add(req.Email, req.Name)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			apiMessage(w, r, http.StatusConflict, err.Error())
			return
		}
		slog.Error("adding user", "error", err)
		apiMessage(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("user added", "email", user.Email, "by", auth.EmailFromContext(r.Context()))
	apiJSON(w, r, http.StatusCreated, user)
}

func (h *userHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		apiMessage(w, r, http.StatusBadRequest, "invalid user ID")
		return
	}

	user, err := h.users.GetByID(id)
	if err == nil {
		err = h.users.Delete(id)
	}
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			apiMessage(w, r, http.StatusNotFound, "user not found")
			return
		}
		slog.Error("deleting user", "error", err)
		apiMessage(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	h.revoke(user.Email)

	apiJSON(w, r, http.StatusOK, DeleteResponse{ID: idStr, Deleted: true})
}

// revoke drops the credentials a removed user still holds. Failures are
// logged, not returned.
func (h *userHandlers) revoke(email string) {
	for what, fn := range map[string]func(string) error{
		"sessions": h.sessions.DestroyAll,
		"api keys": h.apiKeys.DeleteAll,
		"passkeys": h.passkeys.DeleteAll,
	} {
		if err := fn(email); err != nil {
			slog.Warn("revoking "+what, "email", email, "error", err)
		}
	}
	slog.Info("user removed", "email", email)
}
