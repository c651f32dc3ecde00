package notes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"noteblog/internal/auth"
	"noteblog/internal/categories"
	"noteblog/internal/feed"
	"noteblog/internal/web"
	"noteblog/views/models"
	"noteblog/views/pages"
)

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// --- Feeds ---

func feedQuery(r *http.Request) FeedQuery {
	q := r.URL.Query()
	return FeedQuery{
		Search:       q.Get("search"),
		CategorySlug: q.Get("category"),
		Page:         feed.ParseCount(q.Get("page"), 0),
		Limit:        feed.ParseCount(q.Get("limit"), 0),
	}
}

// PublicFeed handles GET /api/notes
func (h *Handler) PublicFeed(w http.ResponseWriter, r *http.Request) {
	h.feed(w, r, feed.Public(), feedQuery(r))
}

// MyNotes handles GET /api/notes/my-notes
func (h *Handler) MyNotes(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserID(r.Context())
	q := feedQuery(r)
	q.CategorySlug = ""
	h.feed(w, r, feed.OwnedBy(user), q)
}

// GlobalFeed handles GET /api/notes/global/recent
func (h *Handler) GlobalFeed(w http.ResponseWriter, r *http.Request) {
	h.feed(w, r, feed.Global(), feedQuery(r))
}

// CategoryFeed handles GET /api/categories/{slug}/notes
func (h *Handler) CategoryFeed(w http.ResponseWriter, r *http.Request) {
	q := feedQuery(r)
	q.CategorySlug = r.PathValue("slug")
	h.feed(w, r, feed.Public(), q)
}

func (h *Handler) feed(w http.ResponseWriter, r *http.Request, scope feed.Scope, q FeedQuery) {
	page, err := h.svc.Feed(r.Context(), scope, q)
	if err != nil {
		h.log.Error("failed to load feed", "error", err)
		web.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	web.JSON(w, page, http.StatusOK)
}

// ByAuthor handles GET /api/notes/user/{userId}
func (h *Handler) ByAuthor(w http.ResponseWriter, r *http.Request) {
	author, ok := web.PathID(r, "userId")
	if !ok {
		web.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	notes, err := h.svc.ByAuthor(r.Context(), author)
	if err != nil {
		h.log.Error("failed to list notes", "error", err)
		web.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	web.JSON(w, map[string]any{"notes": notes}, http.StatusOK)
}

// --- Single notes ---

// CreateNote handles POST /api/notes
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var input CreateNoteInput
	if err := web.Decode(w, r, &input); err != nil {
		web.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	author, _ := auth.UserID(r.Context())
	note, err := h.svc.Create(r.Context(), author, input)
	if err != nil {
		h.fail(w, "create note", err)
		return
	}
	web.JSON(w, map[string]any{"note": note}, http.StatusCreated)
}

// GetNote handles GET /api/notes/{slug}
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.fail(w, "get note", err)
		return
	}
	web.JSON(w, map[string]any{"note": note}, http.StatusOK)
}

// UpdateNote handles PUT /api/notes/{id}
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.Error(w, "invalid note ID", http.StatusBadRequest)
		return
	}
	var input UpdateNoteInput
	if err := web.Decode(w, r, &input); err != nil {
		web.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	author, _ := auth.UserID(r.Context())
	note, err := h.svc.Update(r.Context(), author, id, input)
	if err != nil {
		h.fail(w, "update note", err)
		return
	}
	web.JSON(w, map[string]any{"note": note}, http.StatusOK)
}

// DeleteNote handles DELETE /api/notes/{id}
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.Error(w, "invalid note ID", http.StatusBadRequest)
		return
	}

	author, _ := auth.UserID(r.Context())
	if err := h.svc.Delete(r.Context(), author, id); err != nil {
		h.fail(w, "delete note", err)
		return
	}
	web.JSON(w, map[string]string{"message": "Note deleted successfully"}, http.StatusOK)
}

// ToggleLike handles POST /api/notes/{id}/like
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.Error(w, "invalid note ID", http.StatusBadRequest)
		return
	}

	user, _ := auth.UserID(r.Context())
	result, err := h.svc.ToggleLike(r.Context(), user, id)
	if err != nil {
		h.fail(w, "toggle like", err)
		return
	}
	web.JSON(w, result, http.StatusOK)
}

// ToggleGlobal handles POST /api/notes/{id}/toggle-global
func (h *Handler) ToggleGlobal(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.Error(w, "invalid note ID", http.StatusBadRequest)
		return
	}

	author, _ := auth.UserID(r.Context())
	note, err := h.svc.ToggleGlobal(r.Context(), author, id)
	if err != nil {
		h.fail(w, "toggle global", err)
		return
	}
	web.JSON(w, map[string]any{"note": note, "isGlobal": note.IsGlobal}, http.StatusOK)
}

// AssignCategory handles POST /api/categories/{categoryId}/notes/{noteId}
func (h *Handler) AssignCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := web.PathID(r, "categoryId")
	if !ok {
		web.Error(w, "invalid category ID", http.StatusBadRequest)
		return
	}
	noteID, ok := web.PathID(r, "noteId")
	if !ok {
		web.Error(w, "invalid note ID", http.StatusBadRequest)
		return
	}

	author, _ := auth.UserID(r.Context())
	note, err := h.svc.AssignCategory(r.Context(), author, noteID, categoryID)
	if err != nil {
		h.fail(w, "assign category", err)
		return
	}
	web.JSON(w, map[string]any{"note": note}, http.StatusOK)
}

// --- Sharing ---

// Share handles POST /api/notes/{id}/share
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.Error(w, "invalid note ID", http.StatusBadRequest)
		return
	}
	regenerate, _ := strconv.ParseBool(r.URL.Query().Get("regenerate"))

	author, _ := auth.UserID(r.Context())
	info, err := h.svc.Share(r.Context(), author, id, regenerate)
	if err != nil {
		h.fail(w, "share note", err)
		return
	}
	web.JSON(w, info, http.StatusOK)
}

// GetShared handles GET /api/notes/share/{shareLink}
func (h *Handler) GetShared(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetShared(r.Context(), r.PathValue("shareLink"))
	if err != nil {
		h.fail(w, "get shared note", err)
		return
	}
	web.JSON(w, map[string]any{"note": note}, http.StatusOK)
}

// QRCode handles GET /api/notes/qr/{shareLink}
func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	qr, err := h.svc.QRCode(r.PathValue("shareLink"))
	if err != nil {
		h.fail(w, "generate qr code", err)
		return
	}
	web.JSON(w, map[string]string{"qrCode": qr}, http.StatusOK)
}

// SharePreview handles GET /s/{shareLink}
func (h *Handler) SharePreview(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("shareLink")
	note, err := h.svc.PeekShared(r.Context(), token)
	if errors.Is(err, ErrNoteNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log.Error("failed to get shared note", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	view := models.SharePreview{
		Title:      note.Title,
		Excerpt:    note.Excerpt,
		CoverImage: note.CoverImage,
		ShareURL:   h.svc.ShareURL(token),
		CreatedAt:  note.CreatedAt,
	}
	if note.AuthorInfo != nil {
		view.AuthorName = note.AuthorInfo.DisplayName
		if view.AuthorName == "" {
			view.AuthorName = note.AuthorInfo.Username
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.SharePage(view).Render(r.Context(), w); err != nil {
		h.log.Error("failed to render share preview", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNoteNotFound):
		web.Error(w, "Note not found", http.StatusNotFound)
	case errors.Is(err, categories.ErrCategoryNotFound):
		web.Error(w, "Category not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		web.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error("failed to "+op, "error", err)
		web.Error(w, "internal error", http.StatusInternalServerError)
	}
}
