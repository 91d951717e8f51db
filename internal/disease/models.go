package disease

import (
	"time"

	"github.com/carolinavmo/PMR-atlas/internal/lang"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Accepted display sizes (percent of column width) and placements.
var (
	MediaSizes      = []string{"25", "50", "75", "100"}
	MediaAlignments = []string{"before", "after", "left", "right", "center"}
)

// MediaItem is an image or video attached to a single section.
type MediaItem struct {
	URL       string    `json:"url" bson:"url"`
	Kind      MediaKind `json:"type" bson:"type"`
	Caption   string    `json:"description" bson:"description"`
	Size      string    `json:"size" bson:"size"`
	Alignment string    `json:"alignment" bson:"alignment"`
}

// EditMeta is the per-section bookkeeping of the last edit and translation.
type EditMeta struct {
	LastEditedAt       time.Time       `json:"last_edited_at" bson:"last_edited_at"`
	LastEditedBy       string          `json:"last_edited_by" bson:"last_edited_by"`
	LastEditedByName   string          `json:"last_edited_by_name" bson:"last_edited_by_name"`
	LastEditedLanguage lang.Language   `json:"last_edited_language,omitempty" bson:"last_edited_language,omitempty"`
	TranslatedAt       *time.Time      `json:"translated_at,omitempty" bson:"translated_at,omitempty"`
	TranslatedTo       []lang.Language `json:"translated_to,omitempty" bson:"translated_to,omitempty"`
}

// Disease is a clinical reference article. Section text lives in Text keyed
// by FieldName, so canonical and translated values never overlap.
type Disease struct {
	ID         string                 `bson:"_id"`
	Name       string                 `bson:"name"`
	CategoryID string                 `bson:"category_id"`
	Tags       []string               `bson:"tags"`
	References []string               `bson:"references"`
	Images     []string               `bson:"images"`
	Text       map[string]string      `bson:"text"`
	Media      map[string][]MediaItem `bson:"media"`
	EditMeta   map[string]EditMeta    `bson:"edit_meta"`
	Version    int                    `bson:"version"`
	CreatedAt  time.Time              `bson:"created_at"`
	UpdatedAt  time.Time              `bson:"updated_at"`
	CreatedBy  string                 `bson:"created_by"`
}

// Normalize replaces nil collections with empty ones so partial updates of
// nested fields always have a parent document to write into.
func (d *Disease) Normalize() {
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if d.References == nil {
		d.References = []string{}
	}
	if d.Images == nil {
		d.Images = []string{}
	}
	if d.Text == nil {
		d.Text = map[string]string{}
	}
	if d.Media == nil {
		d.Media = map[string][]MediaItem{}
	}
	if d.EditMeta == nil {
		d.EditMeta = map[string]EditMeta{}
	}
}

func (d *Disease) SectionText(s Section, l lang.Language) string {
	return d.Text[FieldName(s, l)]
}

func (d *Disease) SectionMedia(s Section) []MediaItem {
	return d.Media[string(s)]
}

func (d *Disease) SectionMeta(s Section) (EditMeta, bool) {
	m, ok := d.EditMeta[string(s)]
	return m, ok
}

// Clone returns a deep copy.
func (d *Disease) Clone() *Disease {
	if d == nil {
		return nil
	}
	c := *d
	c.Tags = append([]string(nil), d.Tags...)
	c.References = append([]string(nil), d.References...)
	c.Images = append([]string(nil), d.Images...)
	c.Text = make(map[string]string, len(d.Text))
	for k, v := range d.Text {
		c.Text[k] = v
	}
	c.Media = make(map[string][]MediaItem, len(d.Media))
	for k, v := range d.Media {
		c.Media[k] = append([]MediaItem{}, v...)
	}
	c.EditMeta = make(map[string]EditMeta, len(d.EditMeta))
	for k, v := range d.EditMeta {
		v.TranslatedTo = append([]lang.Language(nil), v.TranslatedTo...)
		if v.TranslatedAt != nil {
			t := *v.TranslatedAt
			v.TranslatedAt = &t
		}
		c.EditMeta[k] = v
	}
	return &c
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	CategoryID string
	Tag        string
	Search     string
}
