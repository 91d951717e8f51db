package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolinavmo/PMR-atlas/internal/access"
	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/disease"
	"github.com/carolinavmo/PMR-atlas/internal/disease/repository"
	"github.com/carolinavmo/PMR-atlas/internal/history"
	"github.com/carolinavmo/PMR-atlas/internal/lang"
	"github.com/carolinavmo/PMR-atlas/internal/models"
	"github.com/carolinavmo/PMR-atlas/internal/sanitize"
	"github.com/carolinavmo/PMR-atlas/internal/translate"
)

var (
	admin   = access.Caller{ID: "u-admin", Name: "Ana Admin", Role: models.RoleAdmin}
	editor  = access.Caller{ID: "u-editor", Name: "Eva Editor", Role: models.RoleEditor}
	student = access.Caller{ID: "u-student", Name: "Sam Student", Role: models.RoleStudent}
)

// fakeProvider prefixes the text with the target language and fails for
// the languages listed in fail.
type fakeProvider struct {
	mu    sync.Mutex
	fail  map[lang.Language]bool
	calls []lang.Language
}

func (f *fakeProvider) Translate(ctx context.Context, text string, _, to lang.Language) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, to)
	failing := f.fail[to]
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if failing {
		return "", errors.New("model overloaded")
	}
	return "[" + string(to) + "] " + text, nil
}

func (f *fakeProvider) called() []lang.Language {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]lang.Language(nil), f.calls...)
}

type fixture struct {
	svc  *Service
	repo *repository.MemoryRepo
	log  *history.MemoryLog
}

func newFixture(t *testing.T, p translate.Provider) *fixture {
	t.Helper()
	repo := repository.NewMemoryRepo()
	log := history.NewMemoryLog()
	rec := history.NewRecorder(log, history.NewMemoryJournal()).WithRetry(1, 0)
	svc := New(repo, rec, p, sanitize.New(), Options{Concurrency: 2, CallTimeout: time.Second})
	return &fixture{svc: svc, repo: repo, log: log}
}

// seed stores a disease already at the given version.
func (f *fixture) seed(t *testing.T, version int) *disease.Disease {
	t.Helper()
	d := &disease.Disease{ID: "d1", Name: "Adhesive capsulitis", CategoryID: "shoulder", Version: version}
	d.Normalize()
	d.Text["definition"] = "Painful loss of shoulder motion."
	d.Text["epidemiology"] = "Peaks between 40 and 60."
	d.Text["definition_es"] = "Pérdida dolorosa de movilidad."
	require.NoError(t, f.repo.Create(context.Background(), d))
	return d
}

func (f *fixture) entries(t *testing.T) []*history.Entry {
	t.Helper()
	got, err := f.log.List(context.Background(), "d1")
	require.NoError(t, err)
	return got
}

func TestSaveSectionTranslationScenario(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 3)

	res, err := f.svc.SaveSection(context.Background(), admin, "d1", SaveSectionInput{
		Language: "pt", SectionID: "epidemiology", Content: "X",
	})
	require.NoError(t, err)
	assert.Equal(t, "Saved in pt", res.Message)

	d := res.Disease
	assert.Equal(t, 4, d.Version)
	assert.Equal(t, "X", d.SectionText(disease.SectionEpidemiology, lang.Portuguese))
	assert.Equal(t, "Peaks between 40 and 60.", d.SectionText(disease.SectionEpidemiology, lang.English))
	meta, ok := d.SectionMeta(disease.SectionEpidemiology)
	require.True(t, ok)
	assert.Equal(t, lang.Portuguese, meta.LastEditedLanguage)
	assert.Equal(t, admin.ID, meta.LastEditedBy)
	assert.Equal(t, admin.Name, meta.LastEditedByName)
	_, touched := d.SectionMeta(disease.SectionDefinition)
	assert.False(t, touched)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, 4, entries[0].Version)
	assert.Equal(t, history.EditSingleLanguage, entries[0].EditType)
	assert.Equal(t, lang.Portuguese, entries[0].Language)
	assert.Equal(t, disease.SectionEpidemiology, entries[0].SectionID)
	assert.Equal(t, "X", entries[0].Snapshot.Text["epidemiology_pt"])

	stored, err := f.svc.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "X", stored.Text["epidemiology_pt"])
}

func TestSaveSectionCanonicalLeavesTranslations(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 1)

	res, err := f.svc.SaveSection(context.Background(), admin, "d1", SaveSectionInput{
		SectionID: "definition", Content: "Idiopathic capsular fibrosis.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Saved in en", res.Message)
	assert.Equal(t, 2, res.Disease.Version)
	assert.Equal(t, "Idiopathic capsular fibrosis.", res.Disease.Text["definition"])
	assert.Equal(t, "Pérdida dolorosa de movilidad.", res.Disease.Text["definition_es"])
	_, hasPT := res.Disease.Text["definition_pt"]
	assert.False(t, hasPT)
}

func TestSaveSectionSanitizes(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 1)

	res, err := f.svc.SaveSection(context.Background(), admin, "d1", SaveSectionInput{
		Language: "es", SectionID: "prognosis",
		Content: `<p onclick="steal()">Bueno</p><script>alert(1)</script>`,
	})
	require.NoError(t, err)
	got := res.Disease.Text["prognosis_es"]
	assert.Contains(t, got, "Bueno")
	assert.NotContains(t, got, "script")
	assert.NotContains(t, got, "onclick")
}

func TestSaveKeepsClinicalNotation(t *testing.T) {
	f := newFixture(t, &fakeProvider{})
	f.seed(t, 1)
	ctx := context.Background()
	const notation = "Flexion ROM < 90 & pain > 7/10"

	res, err := f.svc.SaveSection(ctx, admin, "d1", SaveSectionInput{SectionID: "clinical_presentation", Content: notation})
	require.NoError(t, err)
	assert.Equal(t, notation, res.Disease.Text["clinical_presentation"])

	tr, err := f.svc.SaveAndTranslate(ctx, admin, "d1", SaveAndTranslateInput{
		SectionID: "prognosis", Content: notation, TargetLanguages: []string{"es"},
	})
	require.NoError(t, err)
	assert.Equal(t, notation, tr.Disease.Text["prognosis"])
	assert.Equal(t, "[es] "+notation, tr.Disease.Text["prognosis_es"])

	stored, err := f.svc.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, notation, stored.Text["clinical_presentation"])
	assert.Equal(t, "[es] "+notation, stored.Text["prognosis_es"])
}

func TestSaveSectionRejections(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 2)
	ctx := context.Background()

	_, err := f.svc.SaveSection(ctx, student, "d1", SaveSectionInput{Language: "en", SectionID: "definition", Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.SaveSection(ctx, editor, "d1", SaveSectionInput{Language: "en", SectionID: "definition", Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.SaveSection(ctx, admin, "d1", SaveSectionInput{Language: "fr", SectionID: "definition", Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.SaveSection(ctx, admin, "d1", SaveSectionInput{Language: "en", SectionID: "summary", Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.SaveSection(ctx, admin, "missing", SaveSectionInput{Language: "en", SectionID: "definition", Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	d, err := f.svc.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Version)
	assert.Empty(t, f.entries(t))
}

// racingRepo lets a concurrent writer win the first `races` CAS attempts.
type racingRepo struct {
	*repository.MemoryRepo
	races int32
}

func (r *racingRepo) Apply(ctx context.Context, id string, expected int, p *disease.Patch) (*disease.Disease, error) {
	if atomic.AddInt32(&r.races, -1) >= 0 {
		if _, err := r.MemoryRepo.Apply(ctx, id, expected, disease.NewPatch(time.Now()).Bump()); err != nil {
			return nil, err
		}
	}
	return r.MemoryRepo.Apply(ctx, id, expected, p)
}

func TestSaveSectionRetriesLostCAS(t *testing.T) {
	repo := &racingRepo{MemoryRepo: repository.NewMemoryRepo(), races: 2}
	log := history.NewMemoryLog()
	svc := New(repo, history.NewRecorder(log, nil), nil, nil, Options{})
	d := &disease.Disease{ID: "d1", Name: "Tennis elbow", Version: 1}
	require.NoError(t, repo.Create(context.Background(), d))

	res, err := svc.SaveSection(context.Background(), admin, "d1", SaveSectionInput{Language: "en", SectionID: "definition", Content: "Lateral epicondylalgia."})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Disease.Version, "two concurrent bumps plus ours")
	assert.Equal(t, "Lateral epicondylalgia.", res.Disease.Text["definition"])
}

func TestSaveSectionConflictAfterRetries(t *testing.T) {
	repo := &racingRepo{MemoryRepo: repository.NewMemoryRepo(), races: 100}
	log := history.NewMemoryLog()
	svc := New(repo, history.NewRecorder(log, nil), nil, nil, Options{CASRetries: 3})
	require.NoError(t, repo.Create(context.Background(), &disease.Disease{ID: "d1", Name: "Tennis elbow", Version: 1}))

	_, err := svc.SaveSection(context.Background(), admin, "d1", SaveSectionInput{Language: "en", SectionID: "definition", Content: "x"})
	require.ErrorIs(t, err, apperr.ErrConflict)
	got, _ := log.List(context.Background(), "d1")
	assert.Empty(t, got)
}

func TestSaveSectionConcurrentWritersStaySequential(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 1)
	f.svc.opts.CASRetries = 50

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SaveSection(context.Background(), admin, "d1", SaveSectionInput{Language: "pt", SectionID: "prognosis", Content: "bom"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries := f.entries(t)
	require.Len(t, entries, 8)
	for i, e := range entries {
		assert.Equal(t, 9-i, e.Version)
	}
}

func TestSaveAndTranslateCountsSuccesses(t *testing.T) {
	p := &fakeProvider{fail: map[lang.Language]bool{lang.Spanish: true}}
	f := newFixture(t, p)
	f.seed(t, 1)

	res, err := f.svc.SaveAndTranslate(context.Background(), admin, "d1", SaveAndTranslateInput{
		SourceLanguage: "en", SectionID: "definition", Content: "Frozen shoulder.",
		TargetLanguages: []string{"en", "pt", "es", "pt"},
	})
	require.NoError(t, err)
	// 3 distinct targets, 1 failure, source among targets
	assert.Equal(t, 1, res.TranslationsCount)
	assert.Equal(t, "Saved in en and translated to 1 languages", res.Message)
	assert.ElementsMatch(t, []lang.Language{lang.Portuguese, lang.Spanish}, p.called())

	d := res.Disease
	assert.Equal(t, 2, d.Version)
	assert.Equal(t, "Frozen shoulder.", d.Text["definition"])
	assert.Equal(t, "[pt] Frozen shoulder.", d.Text["definition_pt"])
	assert.Equal(t, "Pérdida dolorosa de movilidad.", d.Text["definition_es"], "failed language keeps its old value")

	meta, _ := d.SectionMeta(disease.SectionDefinition)
	require.NotNil(t, meta.TranslatedAt)
	assert.Equal(t, []lang.Language{lang.English, lang.Portuguese, lang.Spanish}, meta.TranslatedTo)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, 2, e.Version)
	assert.Equal(t, history.EditSaveAndTranslate, e.EditType)
	assert.Equal(t, lang.English, e.SourceLanguage)
	assert.Equal(t, []lang.Language{lang.English, lang.Portuguese, lang.Spanish}, e.TargetLanguages)
	assert.Equal(t, "[pt] Frozen shoulder.", e.Snapshot.Text["definition_pt"])
}

func TestSaveAndTranslateDefaultTargets(t *testing.T) {
	p := &fakeProvider{}
	f := newFixture(t, p)
	f.seed(t, 1)

	res, err := f.svc.SaveAndTranslate(context.Background(), admin, "d1", SaveAndTranslateInput{
		SectionID: "biomechanics", Content: "Capsular contracture.",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TranslationsCount)
	assert.Equal(t, "[pt] Capsular contracture.", res.Disease.Text["biomechanics_pt"])
	assert.Equal(t, "[es] Capsular contracture.", res.Disease.Text["biomechanics_es"])
}

func TestSaveAndTranslateProviderDown(t *testing.T) {
	f := newFixture(t, translate.Unavailable{})
	f.seed(t, 5)

	res, err := f.svc.SaveAndTranslate(context.Background(), admin, "d1", SaveAndTranslateInput{
		SourceLanguage: "en", SectionID: "definition", Content: "New definition.",
		TargetLanguages: []string{"pt", "es"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TranslationsCount)
	assert.Equal(t, 6, res.Disease.Version)
	assert.Equal(t, "New definition.", res.Disease.Text["definition"])
	for _, o := range res.Outcomes {
		assert.ErrorIs(t, o.Err, apperr.ErrUpstreamUnavailable)
	}

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, 6, entries[0].Version)
	assert.Equal(t, history.EditSaveAndTranslate, entries[0].EditType)
}

func TestSaveAndTranslateNoTargets(t *testing.T) {
	p := &fakeProvider{}
	f := newFixture(t, p)
	f.seed(t, 1)

	for _, targets := range [][]string{{}, {"pt"}} {
		res, err := f.svc.SaveAndTranslate(context.Background(), admin, "d1", SaveAndTranslateInput{
			SourceLanguage: "pt", SectionID: "prognosis", Content: "Bom.", TargetLanguages: targets,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, res.TranslationsCount)
	}
	assert.Empty(t, p.called())

	d, err := f.svc.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Version)
	meta, _ := d.SectionMeta(disease.SectionPrognosis)
	assert.NotNil(t, meta.TranslatedAt)
}

func TestSaveAndTranslateCallerGone(t *testing.T) {
	p := &fakeProvider{}
	f := newFixture(t, p)
	f.seed(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := f.svc.SaveAndTranslate(ctx, admin, "d1", SaveAndTranslateInput{
		SourceLanguage: "en", SectionID: "definition", Content: "Saved anyway.",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TranslationsCount)
	assert.Equal(t, 2, res.Disease.Version)

	d, err := f.svc.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "Saved anyway.", d.Text["definition"])
	require.Len(t, f.entries(t), 1)
}

// gateProvider blocks every call until release is closed. entered receives
// once per call.
type gateProvider struct {
	entered chan lang.Language
	release chan struct{}
}

func newGate() *gateProvider {
	return &gateProvider{entered: make(chan lang.Language, 8), release: make(chan struct{})}
}

func (g *gateProvider) Translate(ctx context.Context, text string, _, to lang.Language) (string, error) {
	g.entered <- to
	select {
	case <-g.release:
		return "[" + string(to) + "] " + text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *fixture) saveAndTranslateAsync(in SaveAndTranslateInput) <-chan *TranslateResult {
	done := make(chan *TranslateResult, 1)
	go func() {
		res, err := f.svc.SaveAndTranslate(context.Background(), admin, "d1", in)
		if err != nil {
			res = nil
		}
		done <- res
	}()
	return done
}

func TestSaveAndTranslateRecordsBeforeProviderCalls(t *testing.T) {
	gate := newGate()
	f := newFixture(t, gate)
	f.seed(t, 4)

	done := f.saveAndTranslateAsync(SaveAndTranslateInput{
		SourceLanguage: "en", SectionID: "definition", Content: "Y", TargetLanguages: []string{"pt"},
	})
	<-gate.entered

	entries := f.entries(t)
	require.Len(t, entries, 1, "version has its entry while translation is in flight")
	assert.Equal(t, 5, entries[0].Version)
	assert.Equal(t, history.EditSaveAndTranslate, entries[0].EditType)
	assert.Equal(t, "Y", entries[0].Snapshot.Text["definition"])
	_, hasPT := entries[0].Snapshot.Text["definition_pt"]
	assert.False(t, hasPT)

	close(gate.release)
	res := <-done
	require.NotNil(t, res)
	assert.Equal(t, 1, res.TranslationsCount)

	entries = f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "[pt] Y", entries[0].Snapshot.Text["definition_pt"])
	stored, err := f.svc.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Version)
	assert.Equal(t, stored.Text, entries[0].Snapshot.Text)
}

func TestSaveAndTranslateKeepsConcurrentEdit(t *testing.T) {
	gate := newGate()
	f := newFixture(t, gate)
	f.seed(t, 5)
	ctx := context.Background()

	done := f.saveAndTranslateAsync(SaveAndTranslateInput{
		SourceLanguage: "en", SectionID: "definition", Content: "Y", TargetLanguages: []string{"pt"},
	})
	<-gate.entered

	human, err := f.svc.SaveSection(ctx, admin, "d1", SaveSectionInput{Language: "pt", SectionID: "definition", Content: "human pt"})
	require.NoError(t, err)
	assert.Equal(t, 7, human.Disease.Version)

	close(gate.release)
	res := <-done
	require.NotNil(t, res)
	assert.Equal(t, 0, res.TranslationsCount)
	assert.Equal(t, 6, res.Disease.Version)
	require.Len(t, res.Outcomes, 1)
	assert.ErrorIs(t, res.Outcomes[0].Err, apperr.ErrConflict)

	stored, err := f.svc.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Version)
	assert.Equal(t, "human pt", stored.Text["definition_pt"])

	entries := f.entries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, 7, entries[0].Version)
	assert.Equal(t, stored.Text, entries[0].Snapshot.Text)
	assert.Equal(t, 6, entries[1].Version)
	_, hasPT := entries[1].Snapshot.Text["definition_pt"]
	assert.False(t, hasPT, "dropped translation never reaches history")
}

func TestSaveAndTranslateRejections(t *testing.T) {
	f := newFixture(t, &fakeProvider{})
	f.seed(t, 1)
	ctx := context.Background()

	_, err := f.svc.SaveAndTranslate(ctx, editor, "d1", SaveAndTranslateInput{SectionID: "definition", Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.SaveAndTranslate(ctx, admin, "d1", SaveAndTranslateInput{SectionID: "definition", Content: "x", TargetLanguages: []string{"de"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	d, _ := f.svc.Get(ctx, "d1")
	assert.Equal(t, 1, d.Version)
}

func mediaList(items ...MediaInput) *[]MediaInput {
	if items == nil {
		items = []MediaInput{}
	}
	return &items
}

func mediaItem(url string) MediaInput {
	return MediaInput{URL: url, Type: "image", Description: "MRI", Size: "50", Alignment: "center"}
}

func TestReplaceMediaThenClear(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 1)
	ctx := context.Background()

	res, err := f.svc.ReplaceMedia(ctx, admin, "d1", ReplaceMediaInput{
		SectionID: "imaging_findings",
		Media:     mediaList(mediaItem("https://img/1.png"), mediaItem("https://img/2.png"), mediaItem("/api/media/media/3.png")),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.MediaCount)
	assert.Equal(t, 2, res.Disease.Version)

	res, err = f.svc.ReplaceMedia(ctx, admin, "d1", ReplaceMediaInput{SectionID: "imaging_findings", Media: mediaList()})
	require.NoError(t, err)
	assert.Equal(t, 0, res.MediaCount)
	assert.Equal(t, 3, res.Disease.Version)
	assert.Empty(t, res.Disease.SectionMedia(disease.SectionImagingFindings))

	_, err = f.svc.ReplaceMedia(ctx, admin, "d1", ReplaceMediaInput{SectionID: "imaging_findings"})
	require.ErrorIs(t, err, apperr.ErrValidation, "omitting media is not a clear")
	d, err := f.svc.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Version)

	entries := f.entries(t)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, history.EditMedia, e.EditType)
		assert.Equal(t, disease.SectionImagingFindings, e.SectionID)
	}
}

func TestReplaceMediaValidation(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 1)
	ctx := context.Background()

	bad := []MediaInput{
		{URL: "javascript:alert(1)", Type: "image", Size: "50", Alignment: "center"},
		{URL: "https://x/y.png", Type: "audio", Size: "50", Alignment: "center"},
		{URL: "https://x/y.png", Type: "image", Size: "60", Alignment: "center"},
		{URL: "https://x/y.png", Type: "image", Size: "50", Alignment: "top"},
		{Type: "image", Size: "50", Alignment: "center"},
	}
	for _, m := range bad {
		_, err := f.svc.ReplaceMedia(ctx, admin, "d1", ReplaceMediaInput{SectionID: "definition", Media: mediaList(m)})
		assert.ErrorIs(t, err, apperr.ErrValidation, "%+v", m)
	}
	_, err := f.svc.ReplaceMedia(ctx, admin, "d1", ReplaceMediaInput{SectionID: "appendix", Media: mediaList()})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.ReplaceMedia(ctx, editor, "d1", ReplaceMediaInput{SectionID: "definition"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	d, _ := f.svc.Get(ctx, "d1")
	assert.Equal(t, 1, d.Version)
}

func TestReplaceMediaSanitizesCaption(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 1)

	m := mediaItem("https://img/1.png")
	m.Description = `<b>Sagittal</b> T2<script>x()</script>`
	m.Type = "IMAGE"
	res, err := f.svc.ReplaceMedia(context.Background(), admin, "d1", ReplaceMediaInput{SectionID: "references", Media: mediaList(m)})
	require.NoError(t, err)
	items := res.Disease.SectionMedia(disease.SectionReferences)
	require.Len(t, items, 1)
	assert.Equal(t, "Sagittal T2", items[0].Caption)
	assert.Equal(t, disease.MediaImage, items[0].Kind)
}

type purgeRecorder struct{ ids []string }

func (p *purgeRecorder) PurgeDisease(_ context.Context, id string) error {
	p.ids = append(p.ids, id)
	return nil
}

func TestDocumentLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	purged := &purgeRecorder{}
	f.svc.WithCascade(purged)
	ctx := context.Background()

	name := "Rotator cuff tear"
	cat := "shoulder"
	tags := []string{"tendon", " "}
	created, err := f.svc.Create(ctx, editor, DocumentInput{
		Name: &name, CategoryID: &cat, Tags: &tags,
		Text: map[disease.Section]map[lang.Language]string{disease.SectionDefinition: {lang.English: "Tear of the cuff."}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, []string{"tendon"}, created.Tags)
	assert.Equal(t, editor.ID, created.CreatedBy)

	id := created.ID
	newName := "Rotator cuff tear (full thickness)"
	updated, err := f.svc.Update(ctx, admin, id, DocumentInput{
		Name:  &newName,
		Names: map[lang.Language]string{lang.Portuguese: "Rotura da coifa"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, newName, updated.Name)
	assert.Equal(t, "Rotura da coifa", updated.Text["name_pt"])
	assert.Equal(t, "Tear of the cuff.", updated.Text["definition"])

	entries, err := f.svc.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, history.EditFull, entries[0].EditType)
	assert.Equal(t, history.EditCreate, entries[1].EditType)

	require.ErrorIs(t, f.svc.Delete(ctx, editor, id), apperr.ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, admin, id))
	assert.Equal(t, []string{id}, purged.ids)
	_, err = f.svc.Get(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	entries, err = f.svc.History(ctx, id)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "history survives deletion")
	_, err = f.svc.History(ctx, "never-existed")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateRejectsEmptyEdit(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 2)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, admin, "d1", DocumentInput{})
	require.ErrorIs(t, err, apperr.ErrValidation)

	d, err := f.svc.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Version)
	assert.Empty(t, f.entries(t))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, nil)
	empty := ""
	_, err := f.svc.Create(context.Background(), admin, DocumentInput{Name: &empty})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Create(context.Background(), student, DocumentInput{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestTranslateDisease(t *testing.T) {
	p := &fakeProvider{}
	f := newFixture(t, p)
	f.seed(t, 2)
	ctx := context.Background()

	res, err := f.svc.TranslateDisease(ctx, editor, "d1", "pt")
	require.NoError(t, err)
	assert.Equal(t, 3, res.FieldsTranslated, "name plus two non-empty sections")
	assert.Equal(t, "Translated to Portuguese (Portugal)", res.Message)
	assert.Equal(t, 3, res.Disease.Version)
	assert.Equal(t, "[pt] Adhesive capsulitis", res.Disease.Text["name_pt"])
	assert.Equal(t, "[pt] Peaks between 40 and 60.", res.Disease.Text["epidemiology_pt"])
	meta, _ := res.Disease.SectionMeta(disease.SectionDefinition)
	assert.Equal(t, []lang.Language{lang.Portuguese}, meta.TranslatedTo)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, history.EditFullTranslation, entries[0].EditType)

	_, err = f.svc.TranslateDisease(ctx, editor, "d1", "en")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.TranslateDisease(ctx, student, "d1", "es")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestTranslateDiseaseAllFail(t *testing.T) {
	p := &fakeProvider{fail: map[lang.Language]bool{lang.Spanish: true}}
	f := newFixture(t, p)
	f.seed(t, 1)

	_, err := f.svc.TranslateDisease(context.Background(), admin, "d1", "es")
	require.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
	d, _ := f.svc.Get(context.Background(), "d1")
	assert.Equal(t, 1, d.Version)
	assert.Empty(t, f.entries(t))
}

func TestTranslateText(t *testing.T) {
	f := newFixture(t, &fakeProvider{})
	out, err := f.svc.TranslateText(context.Background(), student, "Knee pain", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, "[es] Knee pain", out)

	_, err = f.svc.TranslateText(context.Background(), student, "  ", "en", "es")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	down := newFixture(t, nil)
	_, err = down.svc.TranslateText(context.Background(), student, "Knee pain", "en", "es")
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
}

func TestHistoryJournaledWhenLogDown(t *testing.T) {
	repo := repository.NewMemoryRepo()
	journal := history.NewMemoryJournal()
	svc := New(repo, history.NewRecorder(downLog{}, journal).WithRetry(2, 0), nil, nil, Options{})
	require.NoError(t, repo.Create(context.Background(), &disease.Disease{ID: "d1", Name: "Bursitis", Version: 1}))

	res, err := svc.SaveSection(context.Background(), admin, "d1", SaveSectionInput{SectionID: "definition", Content: "Inflamed bursa."})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Disease.Version)

	n, err := journal.Len(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	e, err := journal.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, e.Version)
	assert.True(t, strings.HasPrefix(e.ID, "d1:"))
}

type downLog struct{}

func (downLog) Append(context.Context, *history.Entry) error { return errors.New("mongo unreachable") }
func (downLog) Put(context.Context, *history.Entry) error { return errors.New("mongo unreachable") }
func (downLog) List(context.Context, string) ([]*history.Entry, error) {
	return nil, errors.New("mongo unreachable")
}
