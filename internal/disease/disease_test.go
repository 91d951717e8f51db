package disease

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/lang"
)

func TestFieldName(t *testing.T) {
	assert.Equal(t, "definition", FieldName(SectionDefinition, lang.English))
	assert.Equal(t, "definition_pt", FieldName(SectionDefinition, lang.Portuguese))
	assert.Equal(t, "name_es", NameField(lang.Spanish))
}

func TestParseSections(t *testing.T) {
	s, err := ParseTextSection("epidemiology")
	require.NoError(t, err)
	assert.Equal(t, SectionEpidemiology, s)

	_, err = ParseTextSection("references")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	s, err = ParseMediaSection("references")
	require.NoError(t, err)
	assert.Equal(t, SectionReferences, s)

	_, err = ParseMediaSection("summary")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Len(t, TextSections(), 13)
	assert.Len(t, MediaSections(), 14)
}

func TestPatchApplyKeepsOtherLanguages(t *testing.T) {
	d := &Disease{ID: "d1", Version: 3}
	d.Normalize()
	d.Text["definition"] = "canonical"
	d.Text["definition_es"] = "es"

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	NewPatch(at).SetText(SectionDefinition, lang.Portuguese, "pt").Bump().Apply(d)

	assert.Equal(t, 4, d.Version)
	assert.Equal(t, "canonical", d.SectionText(SectionDefinition, lang.English))
	assert.Equal(t, "es", d.SectionText(SectionDefinition, lang.Spanish))
	assert.Equal(t, "pt", d.SectionText(SectionDefinition, lang.Portuguese))
	assert.Equal(t, at, d.UpdatedAt)
}

func TestPatchEmptyMediaClears(t *testing.T) {
	d := &Disease{}
	d.Normalize()
	d.Media["imaging_findings"] = []MediaItem{{URL: "a"}}

	p := NewPatch(time.Now()).SetMedia(SectionImagingFindings, nil)
	assert.False(t, p.Empty())
	p.Apply(d)
	assert.NotNil(t, d.SectionMedia(SectionImagingFindings))
	assert.Empty(t, d.SectionMedia(SectionImagingFindings))
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	d := &Disease{ID: "d1"}
	d.Normalize()
	d.Text["definition"] = "x"
	d.EditMeta["definition"] = EditMeta{TranslatedAt: &now, TranslatedTo: []lang.Language{lang.Spanish}}

	c := d.Clone()
	c.Text["definition"] = "y"
	c.EditMeta["definition"].TranslatedTo[0] = lang.Portuguese

	assert.Equal(t, "x", d.Text["definition"])
	assert.Equal(t, lang.Spanish, d.EditMeta["definition"].TranslatedTo[0])
}

func TestMarshalJSONFlattens(t *testing.T) {
	d := Disease{ID: "d1", Name: "Frozen shoulder", Version: 2}
	d.Normalize()
	d.Text["definition"] = "def"
	d.Text["definition_pt"] = "def pt"
	d.Media["references"] = []MediaItem{{URL: "u", Kind: MediaImage, Size: "50", Alignment: "center"}}

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "d1", out["id"])
	assert.Equal(t, "def", out["definition"])
	assert.Equal(t, "def pt", out["definition_pt"])
	assert.Nil(t, out["definition_es"])
	assert.Equal(t, "", out["prognosis"])
	assert.Len(t, out["references_media"], 1)
	assert.Empty(t, out["definition_media"])
	assert.Contains(t, out, "definition_edit_meta")
	assert.EqualValues(t, 2, out["version"])
}
