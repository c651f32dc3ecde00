package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"noteblog/internal/auth"
	"noteblog/internal/web"
)

// Finder is the read access the handlers need.
type Finder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
}

type Handler struct {
	users Finder
	log   *slog.Logger
}

func NewHandler(users Finder, log *slog.Logger) *Handler {
	return &Handler{users: users, log: log}
}

// Me handles GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.UserID(r.Context())
	h.respond(w, func() (*User, error) { return h.users.FindByID(r.Context(), id) })
}

// Profile handles GET /api/auth/users/{username}
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	h.respond(w, func() (*User, error) { return h.users.FindByUsername(r.Context(), username) })
}

func (h *Handler) respond(w http.ResponseWriter, find func() (*User, error)) {
	user, err := find()
	if errors.Is(err, ErrUserNotFound) {
		web.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("failed to get user", "error", err)
		web.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	web.JSON(w, map[string]any{"user": user}, http.StatusOK)
}
