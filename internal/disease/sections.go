package disease

import (
	"fmt"
	"strings"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/lang"
)

// Section names one independently editable part of a disease article.
type Section string

const (
	SectionDefinition              Section = "definition"
	SectionEpidemiology            Section = "epidemiology"
	SectionPathophysiology         Section = "pathophysiology"
	SectionBiomechanics            Section = "biomechanics"
	SectionClinicalPresentation    Section = "clinical_presentation"
	SectionPhysicalExamination     Section = "physical_examination"
	SectionImagingFindings         Section = "imaging_findings"
	SectionDifferentialDiagnosis   Section = "differential_diagnosis"
	SectionTreatmentConservative   Section = "treatment_conservative"
	SectionTreatmentInterventional Section = "treatment_interventional"
	SectionTreatmentSurgical       Section = "treatment_surgical"
	SectionRehabilitationProtocol  Section = "rehabilitation_protocol"
	SectionPrognosis               Section = "prognosis"
	// SectionReferences carries media only; its text is the References list.
	SectionReferences Section = "references"
)

var textSections = []Section{
	SectionDefinition,
	SectionEpidemiology,
	SectionPathophysiology,
	SectionBiomechanics,
	SectionClinicalPresentation,
	SectionPhysicalExamination,
	SectionImagingFindings,
	SectionDifferentialDiagnosis,
	SectionTreatmentConservative,
	SectionTreatmentInterventional,
	SectionTreatmentSurgical,
	SectionRehabilitationProtocol,
	SectionPrognosis,
}

// TextSections returns the sections holding translatable text, in article order.
func TextSections() []Section {
	out := make([]Section, len(textSections))
	copy(out, textSections)
	return out
}

// MediaSections returns every section that may carry media attachments.
func MediaSections() []Section {
	return append(TextSections(), SectionReferences)
}

func (s Section) IsText() bool {
	for _, t := range textSections {
		if t == s {
			return true
		}
	}
	return false
}

func (s Section) HasMedia() bool { return s.IsText() || s == SectionReferences }

// ParseTextSection validates s against the text sections.
func ParseTextSection(s string) (Section, error) {
	sec := Section(strings.TrimSpace(s))
	if !sec.IsText() {
		return "", fmt.Errorf("%w: unknown section %q", apperr.ErrValidation, s)
	}
	return sec, nil
}

// ParseMediaSection validates s against the media-bearing sections.
func ParseMediaSection(s string) (Section, error) {
	sec := Section(strings.TrimSpace(s))
	if !sec.HasMedia() {
		return "", fmt.Errorf("%w: unknown section %q", apperr.ErrValidation, s)
	}
	return sec, nil
}

// ParseLanguage validates a language tag.
func ParseLanguage(s string) (lang.Language, error) {
	l, ok := lang.Parse(s)
	if !ok {
		return "", fmt.Errorf("%w: unsupported language %q", apperr.ErrValidation, s)
	}
	return l, nil
}

// FieldName is the stored field for section s written in language l,
// e.g. "definition" or "definition_pt".
func FieldName(s Section, l lang.Language) string {
	return string(s) + l.Suffix()
}

// NameField is the stored field for a translated disease name.
func NameField(l lang.Language) string {
	return "name" + l.Suffix()
}
