package categories

import (
	"errors"
	"log/slog"
	"net/http"

	"noteblog/internal/auth"
	"noteblog/internal/web"
)

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// List handles GET /api/categories
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error("failed to list categories", "error", err)
		web.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	web.JSON(w, map[string]any{"categories": categories}, http.StatusOK)
}

// Mine handles GET /api/categories/my-categories
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.UserID(r.Context())
	categories, err := h.svc.ListOwned(r.Context(), owner)
	if err != nil {
		h.log.Error("failed to list categories", "error", err)
		web.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	web.JSON(w, map[string]any{"categories": categories}, http.StatusOK)
}

// Create handles POST /api/categories
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateCategoryInput
	if err := web.Decode(w, r, &input); err != nil {
		web.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	owner, _ := auth.UserID(r.Context())
	category, err := h.svc.Create(r.Context(), owner, input)
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	web.JSON(w, map[string]any{"category": category}, http.StatusCreated)
}

// Get handles GET /api/categories/{slug}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := h.svc.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.fail(w, "get", err)
		return
	}
	web.JSON(w, map[string]any{"category": category}, http.StatusOK)
}

// Update handles PUT /api/categories/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.Error(w, "invalid category ID", http.StatusBadRequest)
		return
	}
	var input UpdateCategoryInput
	if err := web.Decode(w, r, &input); err != nil {
		web.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	owner, _ := auth.UserID(r.Context())
	category, err := h.svc.Update(r.Context(), owner, id, input)
	if err != nil {
		h.fail(w, "update", err)
		return
	}
	web.JSON(w, map[string]any{"category": category}, http.StatusOK)
}

// Delete handles DELETE /api/categories/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.Error(w, "invalid category ID", http.StatusBadRequest)
		return
	}

	owner, _ := auth.UserID(r.Context())
	if err := h.svc.Delete(r.Context(), owner, id); err != nil {
		h.fail(w, "delete", err)
		return
	}
	web.JSON(w, map[string]string{"message": "Category deleted successfully"}, http.StatusOK)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrCategoryNotFound):
		web.Error(w, "Category not found", http.StatusNotFound)
	case errors.Is(err, ErrCategoryExists):
		web.Error(w, "Category already exists", http.StatusBadRequest)
	case errors.Is(err, ErrInvalidInput):
		web.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error("failed to "+op+" category", "error", err)
		web.Error(w, "internal error", http.StatusInternalServerError)
	}
}
