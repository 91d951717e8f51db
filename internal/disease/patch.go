package disease

import (
	"time"

	"github.com/carolinavmo/PMR-atlas/internal/lang"
)

// Patch is a typed partial update. Only populated fields are written; a
// field that is not set is left untouched by every repository.
type Patch struct {
	Name       *string
	CategoryID *string
	Tags       *[]string
	References *[]string
	Images     *[]string

	// Text is keyed by FieldName / NameField.
	Text     map[string]string
	Media    map[Section][]MediaItem
	EditMeta map[Section]EditMeta

	BumpVersion bool
	At          time.Time
}

func NewPatch(at time.Time) *Patch {
	return &Patch{At: at}
}

// SetText writes section s in language l.
func (p *Patch) SetText(s Section, l lang.Language, v string) *Patch {
	if p.Text == nil {
		p.Text = map[string]string{}
	}
	p.Text[FieldName(s, l)] = v
	return p
}

// SetName writes the canonical name, or its translation for other languages.
func (p *Patch) SetName(l lang.Language, v string) *Patch {
	if l.IsCanonical() {
		p.Name = &v
		return p
	}
	if p.Text == nil {
		p.Text = map[string]string{}
	}
	p.Text[NameField(l)] = v
	return p
}

// SetMedia replaces the media list of s. A nil list is stored as empty.
func (p *Patch) SetMedia(s Section, items []MediaItem) *Patch {
	if p.Media == nil {
		p.Media = map[Section][]MediaItem{}
	}
	if items == nil {
		items = []MediaItem{}
	}
	p.Media[s] = items
	return p
}

func (p *Patch) SetMeta(s Section, m EditMeta) *Patch {
	if p.EditMeta == nil {
		p.EditMeta = map[Section]EditMeta{}
	}
	p.EditMeta[s] = m
	return p
}

// Bump marks the patch as a versioned mutation.
func (p *Patch) Bump() *Patch {
	p.BumpVersion = true
	return p
}

// Empty reports whether the patch would change nothing but updated_at.
func (p *Patch) Empty() bool {
	return p.Name == nil && p.CategoryID == nil && p.Tags == nil && p.References == nil &&
		p.Images == nil && len(p.Text) == 0 && len(p.Media) == 0 && len(p.EditMeta) == 0 && !p.BumpVersion
}

// Apply mutates d in place.
func (p *Patch) Apply(d *Disease) {
	d.Normalize()
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.CategoryID != nil {
		d.CategoryID = *p.CategoryID
	}
	if p.Tags != nil {
		d.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.References != nil {
		d.References = append([]string{}, (*p.References)...)
	}
	if p.Images != nil {
		d.Images = append([]string{}, (*p.Images)...)
	}
	for k, v := range p.Text {
		d.Text[k] = v
	}
	for s, items := range p.Media {
		d.Media[string(s)] = append([]MediaItem{}, items...)
	}
	for s, m := range p.EditMeta {
		d.EditMeta[string(s)] = m
	}
	if p.BumpVersion {
		d.Version++
	}
	if !p.At.IsZero() {
		d.UpdatedAt = p.At
	}
}
