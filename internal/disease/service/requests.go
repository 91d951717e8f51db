package service

import (
	"encoding/json"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/disease"
	"github.com/carolinavmo/PMR-atlas/internal/lang"
)

// SaveSectionInput is the body of an inline save.
type SaveSectionInput struct {
	Language  string `json:"language"`
	SectionID string `json:"section_id"`
	Content   string `json:"content"`
}

// SaveAndTranslateInput is the body of an inline save followed by translation.
// A nil TargetLanguages means the default target set; an empty one means none.
type SaveAndTranslateInput struct {
	SourceLanguage  string   `json:"source_language"`
	SectionID       string   `json:"section_id"`
	Content         string   `json:"content"`
	TargetLanguages []string `json:"target_languages"`
}

// DefaultTargets are used when a save-and-translate names no targets.
var DefaultTargets = []lang.Language{lang.Portuguese, lang.Spanish}

type MediaInput struct {
	URL         string `json:"url"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Size        string `json:"size"`
	Alignment   string `json:"alignment"`
}

func (m MediaInput) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.URL, validation.Required, validation.By(mediaURL)),
		validation.Field(&m.Type, validation.Required, validation.In(string(disease.MediaImage), string(disease.MediaVideo))),
		validation.Field(&m.Size, validation.Required, validation.In(anySlice(disease.MediaSizes)...)),
		validation.Field(&m.Alignment, validation.Required, validation.In(anySlice(disease.MediaAlignments)...)),
		validation.Field(&m.Description, validation.Length(0, 1000)),
	)
}

// ReplaceMediaInput is the body of a section media replacement. Media must
// be present; an empty list clears the section.
type ReplaceMediaInput struct {
	SectionID string        `json:"section_id"`
	Media     *[]MediaInput `json:"media"`
}

// mediaURL accepts absolute http(s) URLs and paths served by this API.
func mediaURL(v interface{}) error {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") || (strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//")) {
		return nil
	}
	return validation.NewError("validation_media_url", "must be an http(s) URL or an absolute path")
}

func anySlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// DocumentInput is a create or full-update body. It is decoded from the flat
// wire shape: section fields, their _<lang> translations, name_<lang> and
// <section>_media lists sit next to the scalar fields. Unknown keys are ignored.
type DocumentInput struct {
	Name       *string
	CategoryID *string
	Tags       *[]string
	References *[]string
	Images     *[]string
	// Text maps section (or name) fields to their language and value.
	Text  map[disease.Section]map[lang.Language]string
	Names map[lang.Language]string
	Media map[disease.Section][]MediaInput
}

func (in *DocumentInput) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	decode := func(key string, v interface{}) error {
		if err := json.Unmarshal(raw[key], v); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		return nil
	}
	*in = DocumentInput{}
	for key, val := range raw {
		if string(val) == "null" {
			continue
		}
		switch key {
		case "name":
			in.Name = new(string)
			if err := decode(key, in.Name); err != nil {
				return err
			}
		case "category_id":
			in.CategoryID = new(string)
			if err := decode(key, in.CategoryID); err != nil {
				return err
			}
		case "tags":
			in.Tags = new([]string)
			if err := decode(key, in.Tags); err != nil {
				return err
			}
		case "references":
			in.References = new([]string)
			if err := decode(key, in.References); err != nil {
				return err
			}
		case "images":
			in.Images = new([]string)
			if err := decode(key, in.Images); err != nil {
				return err
			}
		default:
			if err := in.decodeField(key, val); err != nil {
				return err
			}
		}
	}
	return nil
}

func (in *DocumentInput) decodeField(key string, val json.RawMessage) error {
	if base, ok := strings.CutSuffix(key, "_media"); ok {
		s := disease.Section(base)
		if !s.HasMedia() {
			return nil
		}
		var items []MediaInput
		if err := json.Unmarshal(val, &items); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		if in.Media == nil {
			in.Media = map[disease.Section][]MediaInput{}
		}
		in.Media[s] = items
		return nil
	}
	s, l, ok := splitField(key)
	if !ok {
		return nil
	}
	var v string
	if err := json.Unmarshal(val, &v); err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	if s == "name" {
		if in.Names == nil {
			in.Names = map[lang.Language]string{}
		}
		in.Names[l] = v
		return nil
	}
	if in.Text == nil {
		in.Text = map[disease.Section]map[lang.Language]string{}
	}
	if in.Text[s] == nil {
		in.Text[s] = map[lang.Language]string{}
	}
	in.Text[s][l] = v
	return nil
}

// splitField resolves "definition", "definition_pt" or "name_es". The
// canonical name travels in Name, so a bare "name" never reaches here.
func splitField(key string) (disease.Section, lang.Language, bool) {
	if disease.Section(key).IsText() {
		return disease.Section(key), lang.Canonical, true
	}
	i := strings.LastIndexByte(key, '_')
	if i <= 0 {
		return "", "", false
	}
	l, ok := lang.Parse(key[i+1:])
	if !ok || l.IsCanonical() {
		return "", "", false
	}
	base := key[:i]
	if base == "name" {
		return "name", l, true
	}
	if !disease.Section(base).IsText() {
		return "", "", false
	}
	return disease.Section(base), l, true
}

func (in DocumentInput) validate(create bool) error {
	name, category := "", ""
	if in.Name != nil {
		name = *in.Name
	}
	if in.CategoryID != nil {
		category = *in.CategoryID
	}
	errs := validation.Errors{}
	if create || in.Name != nil {
		errs["name"] = validation.Validate(strings.TrimSpace(name), validation.Required, validation.Length(1, 300))
	}
	if create || in.CategoryID != nil {
		errs["category_id"] = validation.Validate(strings.TrimSpace(category), validation.Required)
	}
	for s, items := range in.Media {
		errs[string(s)+"_media"] = validation.Validate(items)
	}
	if err := errs.Filter(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}
