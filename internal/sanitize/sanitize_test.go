package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentStripsScriptsAndHandlers(t *testing.T) {
	s := New()
	out := s.Content(`<p onclick="steal()">Rotator cuff</p><script>alert(1)</script>`)
	assert.Equal(t, "<p>Rotator cuff</p>", out)
}

func TestContentKeepsFormatting(t *testing.T) {
	s := New()
	in := "<ul><li><strong>NSAIDs</strong></li></ul>"
	assert.Equal(t, in, s.Content(in))
}

func TestContentStripsJavascriptLinks(t *testing.T) {
	s := New()
	out := s.Content(`<a href="javascript:alert(1)">x</a>`)
	assert.NotContains(t, out, "javascript")
}

func TestCaptionIsPlainText(t *testing.T) {
	s := New()
	assert.Equal(t, "Axial MRI", s.Caption(` <b>Axial</b> MRI<script>x()</script> `))
}

func TestContentKeepsPlainTextVerbatim(t *testing.T) {
	s := New()
	for _, in := range []string{
		"ROM < 90 & pain",
		"Pain > 7/10",
		`VAS "severe" if > 7 & < 10`,
		"Already encoded: &amp; stays",
	} {
		assert.Equal(t, in, s.Content(in))
	}
}

func TestContentKeepsInlineStyles(t *testing.T) {
	s := New()
	out := s.Content(`<span style="color:red" class="warn">Red flag</span>`)
	assert.Contains(t, out, "color: red")
	assert.Contains(t, out, `class="warn"`)
	assert.Contains(t, out, "Red flag")
}

func TestContentTreatsDanglingTagAsMarkup(t *testing.T) {
	s := New()
	out := s.Content(`Dose 5 mg <img src=x onerror=alert(1)`)
	assert.NotContains(t, out, "onerror")
	assert.Contains(t, out, "Dose 5 mg")
}
