package categories

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"noteblog/internal/auth"
)

func newTestMux(svc *Service) *http.ServeMux {
	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/categories", h.List)
	mux.HandleFunc("GET /api/categories/my-categories", h.Mine)
	mux.HandleFunc("POST /api/categories", h.Create)
	mux.HandleFunc("GET /api/categories/{slug}", h.Get)
	mux.HandleFunc("PUT /api/categories/{id}", h.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", h.Delete)
	return mux
}

func do(mux http.Handler, method, path, body string, user primitive.ObjectID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if !user.IsZero() {
		req = req.WithContext(auth.WithUserID(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndGet(t *testing.T) {
	svc, _, _ := newTestService()
	mux := newTestMux(svc)
	owner := primitive.NewObjectID()

	rec := do(mux, http.MethodPost, "/api/categories", `{"name":"Web Dev","description":"all things web"}`, owner)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Category Category `json:"category"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "web-dev", created.Category.Slug)

	rec = do(mux, http.MethodPost, "/api/categories", `{"name":"web dev"}`, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Category already exists")

	rec = do(mux, http.MethodGet, "/api/categories/web-dev", "", primitive.NilObjectID)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(mux, http.MethodGet, "/api/categories/nope", "", primitive.NilObjectID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerMineListsOnlyOwn(t *testing.T) {
	svc, _, _ := newTestService()
	mux := newTestMux(svc)
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/api/categories", `{"name":"alpha"}`, alice).Code)
	require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/api/categories", `{"name":"beta"}`, bob).Code)

	var body struct {
		Categories []Category `json:"categories"`
	}
	rec := do(mux, http.MethodGet, "/api/categories/my-categories", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Categories, 1)
	assert.Equal(t, "alpha", body.Categories[0].Name)

	rec = do(mux, http.MethodGet, "/api/categories", "", primitive.NilObjectID)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Categories, 2)
}

func TestHandlerUpdateDeleteErrors(t *testing.T) {
	svc, _, _ := newTestService()
	mux := newTestMux(svc)
	owner := primitive.NewObjectID()

	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPut, "/api/categories/not-an-id", `{}`, owner).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPut, "/api/categories/"+primitive.NewObjectID().Hex(), `{`, owner).Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodDelete, "/api/categories/"+primitive.NewObjectID().Hex(), "", owner).Code)
}
