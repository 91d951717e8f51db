package history

import (
	"fmt"
	"time"

	"github.com/carolinavmo/PMR-atlas/internal/disease"
	"github.com/carolinavmo/PMR-atlas/internal/lang"
)

type EditType string

const (
	EditCreate           EditType = "create"
	EditFull             EditType = "full_edit"
	EditSingleLanguage   EditType = "single_language"
	EditSaveAndTranslate EditType = "save_and_translate"
	EditMedia            EditType = "media"
	EditFullTranslation  EditType = "full_translation"
)

// Entry is a snapshot of a disease at one version. An entry only changes
// when the write that produced its version is completed (see Recorder.Amend).
type Entry struct {
	ID              string           `json:"id" bson:"_id"`
	DiseaseID       string           `json:"disease_id" bson:"disease_id"`
	Version         int              `json:"version" bson:"version"`
	Snapshot        *disease.Disease `json:"data" bson:"data"`
	CreatedBy       string           `json:"created_by" bson:"created_by"`
	CreatedByName   string           `json:"created_by_name" bson:"created_by_name"`
	CreatedAt       time.Time        `json:"created_at" bson:"created_at"`
	EditType        EditType         `json:"edit_type" bson:"edit_type"`
	Language        lang.Language    `json:"language,omitempty" bson:"language,omitempty"`
	SectionID       disease.Section  `json:"section_id,omitempty" bson:"section_id,omitempty"`
	SourceLanguage  lang.Language    `json:"source_language,omitempty" bson:"source_language,omitempty"`
	TargetLanguages []lang.Language  `json:"target_languages,omitempty" bson:"target_languages,omitempty"`

	// Amend marks a journaled entry that replaces the one stored for its
	// version instead of being skipped as a duplicate.
	Amend bool `json:"-" bson:"amend,omitempty"`
}

// NewEntry snapshots d at its current version.
func NewEntry(d *disease.Disease, kind EditType, byID, byName string, at time.Time) *Entry {
	return &Entry{
		ID:            EntryID(d.ID, d.Version),
		DiseaseID:     d.ID,
		Version:       d.Version,
		Snapshot:      d.Clone(),
		CreatedBy:     byID,
		CreatedByName: byName,
		CreatedAt:     at,
		EditType:      kind,
	}
}

// EntryID is deterministic so a replayed append is recognized as a duplicate.
func EntryID(diseaseID string, version int) string {
	return fmt.Sprintf("%s:%d", diseaseID, version)
}
