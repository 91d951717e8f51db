// Package reader keeps per-user reading state: bookmarks, private notes and
// the recently viewed list.
package reader

import (
	"context"
	"fmt"
	"time"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
)

// RecentViewsKept is how many recent views are retained per user.
const RecentViewsKept = 20

var (
	ErrAlreadyBookmarked = fmt.Errorf("already bookmarked: %w", apperr.ErrConflict)
	ErrBookmarkNotFound  = fmt.Errorf("bookmark %w", apperr.ErrNotFound)
	ErrNoteNotFound      = fmt.Errorf("note %w", apperr.ErrNotFound)
)

type Bookmark struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	DiseaseID   string    `json:"disease_id" bson:"disease_id"`
	DiseaseName string    `json:"disease_name" bson:"-"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

type Note struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	DiseaseID   string    `json:"disease_id" bson:"disease_id"`
	DiseaseName string    `json:"disease_name" bson:"-"`
	Content     string    `json:"content" bson:"content"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// RecentView stores the disease name as seen at view time.
type RecentView struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"-" bson:"user_id"`
	DiseaseID   string    `json:"disease_id" bson:"disease_id"`
	DiseaseName string    `json:"disease_name" bson:"disease_name"`
	ViewedAt    time.Time `json:"viewed_at" bson:"viewed_at"`
}

// Store persists reader state. Lists are newest first. GetNote returns
// (nil, nil) when the user has no note on the disease.
type Store interface {
	AddBookmark(ctx context.Context, b *Bookmark) error
	ListBookmarks(ctx context.Context, userID string) ([]*Bookmark, error)
	DeleteBookmark(ctx context.Context, userID, diseaseID string) error

	UpsertNote(ctx context.Context, userID, diseaseID, content string, at time.Time) (*Note, error)
	GetNote(ctx context.Context, userID, diseaseID string) (*Note, error)
	ListNotes(ctx context.Context, userID string) ([]*Note, error)
	DeleteNote(ctx context.Context, userID, noteID string) error

	// RecordView moves the disease to the top of the user's list and trims
	// it to keep entries.
	RecordView(ctx context.Context, v *RecentView, keep int) error
	ListViews(ctx context.Context, userID string, limit int) ([]*RecentView, error)

	// PurgeDisease drops every bookmark, note and view of a disease.
	PurgeDisease(ctx context.Context, diseaseID string) error
}
