package disease

import (
	"encoding/json"

	"github.com/carolinavmo/PMR-atlas/internal/lang"
)

// MarshalJSON renders the flat wire shape clients consume: every section
// field at the top level ("definition", "definition_pt", "definition_media",
// "definition_edit_meta") next to the document attributes.
func (d Disease) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":          d.ID,
		"name":        d.Name,
		"category_id": d.CategoryID,
		"tags":        nonNil(d.Tags),
		"references":  nonNil(d.References),
		"images":      nonNil(d.Images),
		"version":     d.Version,
		"created_at":  d.CreatedAt,
		"updated_at":  d.UpdatedAt,
		"created_by":  d.CreatedBy,
	}
	for _, l := range lang.Supported() {
		if l.IsCanonical() {
			continue
		}
		out[NameField(l)] = optional(d.Text, NameField(l))
	}
	for _, s := range textSections {
		out[string(s)] = d.Text[string(s)]
		for _, l := range lang.Supported() {
			if l.IsCanonical() {
				continue
			}
			out[FieldName(s, l)] = optional(d.Text, FieldName(s, l))
		}
	}
	for _, s := range MediaSections() {
		items := d.Media[string(s)]
		if items == nil {
			items = []MediaItem{}
		}
		out[string(s)+"_media"] = items
		if m, ok := d.EditMeta[string(s)]; ok {
			out[string(s)+"_edit_meta"] = m
		} else {
			out[string(s)+"_edit_meta"] = nil
		}
	}
	return json.Marshal(out)
}

func optional(m map[string]string, key string) *string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	return &v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
