package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolinavmo/PMR-atlas/internal/access"
	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/disease"
	"github.com/carolinavmo/PMR-atlas/internal/disease/repository"
	"github.com/carolinavmo/PMR-atlas/internal/models"
	"github.com/carolinavmo/PMR-atlas/pkg/middleware"
)

var alice = access.Caller{ID: "alice", Name: "Alice", Role: models.RoleStudent}

func newService(t *testing.T, n int) (*Service, *repository.MemoryRepo) {
	t.Helper()
	repo := repository.NewMemoryRepo()
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Create(context.Background(), &disease.Disease{
			ID: fmt.Sprintf("d%d", i), Name: fmt.Sprintf("Disease %02d", i), Version: 1,
		}))
	}
	svc := NewService(NewMemoryStore(), repo)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, repo
}

func TestBookmarks(t *testing.T) {
	svc, _ := newService(t, 2)
	ctx := context.Background()

	b, err := svc.AddBookmark(ctx, alice, "d0")
	require.NoError(t, err)
	assert.Equal(t, "Disease 00", b.DiseaseName)
	_, err = svc.AddBookmark(ctx, alice, "d0")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = svc.AddBookmark(ctx, alice, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.AddBookmark(ctx, alice, "d1")
	require.NoError(t, err)

	list, err := svc.Bookmarks(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "d1", list[0].DiseaseID, "newest first")

	require.NoError(t, svc.RemoveBookmark(ctx, alice, "d1"))
	assert.ErrorIs(t, svc.RemoveBookmark(ctx, alice, "d1"), apperr.ErrNotFound)

	_, err = svc.Bookmarks(ctx, access.Caller{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestNotesUpsert(t *testing.T) {
	svc, _ := newService(t, 1)
	ctx := context.Background()

	first, err := svc.SaveNote(ctx, alice, "d0", "check ROM")
	require.NoError(t, err)
	second, err := svc.SaveNote(ctx, alice, "d0", "check ROM and strength")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	n, err := svc.Note(ctx, alice, "d0")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "check ROM and strength", n.Content)
	assert.Equal(t, "Disease 00", n.DiseaseName)

	other := access.Caller{ID: "bob"}
	n, err = svc.Note(ctx, other, "d0")
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.ErrorIs(t, svc.DeleteNote(ctx, other, first.ID), apperr.ErrNotFound)

	require.NoError(t, svc.DeleteNote(ctx, alice, first.ID))
	notes, err := svc.Notes(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestRecentViewsKeepsLatest(t *testing.T) {
	svc, _ := newService(t, RecentViewsKept+5)
	ctx := context.Background()

	for i := 0; i < RecentViewsKept+5; i++ {
		require.NoError(t, svc.RecordView(ctx, alice, fmt.Sprintf("d%d", i)))
	}
	require.NoError(t, svc.RecordView(ctx, alice, "d10"))

	views, err := svc.RecentViews(ctx, alice)
	require.NoError(t, err)
	require.Len(t, views, RecentViewsKept)
	assert.Equal(t, "d10", views[0].DiseaseID)
	assert.Equal(t, fmt.Sprintf("d%d", RecentViewsKept+4), views[1].DiseaseID)
	for _, v := range views {
		assert.NotEqual(t, "d0", v.DiseaseID)
	}
}

func TestPurgeDisease(t *testing.T) {
	svc, _ := newService(t, 2)
	ctx := context.Background()
	_, err := svc.AddBookmark(ctx, alice, "d0")
	require.NoError(t, err)
	_, err = svc.SaveNote(ctx, alice, "d0", "x")
	require.NoError(t, err)
	require.NoError(t, svc.RecordView(ctx, alice, "d0"))
	require.NoError(t, svc.RecordView(ctx, alice, "d1"))

	require.NoError(t, svc.PurgeDisease(ctx, "d0"))

	bookmarks, _ := svc.Bookmarks(ctx, alice)
	assert.Empty(t, bookmarks)
	notes, _ := svc.Notes(ctx, alice)
	assert.Empty(t, notes)
	views, _ := svc.RecentViews(ctx, alice)
	require.Len(t, views, 1)
	assert.Equal(t, "d1", views[0].DiseaseID)
}

func TestHandlerRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newService(t, 1)
	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		c.Set(middleware.CallerKey, alice)
		c.Next()
	})
	NewHandler(svc).Register(api)

	send := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			_ = json.NewEncoder(&buf).Encode(body)
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send(http.MethodGet, "/api/notes/d0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	w = send(http.MethodPost, "/api/notes", gin.H{"disease_id": "d0", "content": "night pain"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var n Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &n))
	assert.Equal(t, "night pain", n.Content)
	assert.Equal(t, "Disease 00", n.DiseaseName)

	w = send(http.MethodPost, "/api/bookmarks", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = send(http.MethodPost, "/api/bookmarks", gin.H{"disease_id": "d0"})
	require.Equal(t, http.StatusOK, w.Code)
	w = send(http.MethodPost, "/api/bookmarks", gin.H{"disease_id": "d0"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = send(http.MethodPost, "/api/recent-views/d0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = send(http.MethodPost, "/api/recent-views/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = send(http.MethodGet, "/api/recent-views", nil)
	var views []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Disease 00", views[0]["disease_name"])

	w = send(http.MethodDelete, "/api/notes/"+n.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = send(http.MethodDelete, "/api/bookmarks/d0", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
