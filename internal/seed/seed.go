// Package seed loads the initial admin account and a starter set of
// disease articles into an empty deployment.
package seed

import (
	"context"
	"fmt"

	"github.com/carolinavmo/PMR-atlas/internal/access"
	"github.com/carolinavmo/PMR-atlas/internal/disease"
	"github.com/carolinavmo/PMR-atlas/internal/disease/service"
	"github.com/carolinavmo/PMR-atlas/internal/lang"
	"github.com/carolinavmo/PMR-atlas/internal/users"
)

type Admin struct {
	Email    string
	Password string
	Name     string
}

// Result reports what a run changed.
type Result struct {
	AdminCreated bool
	Diseases     int
}

type article struct {
	name       string
	category   string
	tags       []string
	sections   map[disease.Section]string
	references []string
}

var articles = []article{
	{
		name:     "Rotator Cuff Tear",
		category: "musculoskeletal",
		tags:     []string{"acute", "chronic", "degenerative"},
		sections: map[disease.Section]string{
			disease.SectionDefinition:            "Partial or full-thickness tear of one or more rotator cuff tendons, most often the supraspinatus.",
			disease.SectionEpidemiology:          "Prevalence rises steeply with age and the dominant arm is affected more often.",
			disease.SectionPhysicalExamination:   "- Jobe (empty can) test\n- External rotation lag sign\n- Lift-off test\n- Drop arm test",
			disease.SectionTreatmentConservative: "- Analgesia and NSAIDs\n- Rotator cuff and scapular strengthening\n- Activity modification",
			disease.SectionPrognosis:             "Most partial tears improve without surgery; fatty infiltration predicts poorer repair outcomes.",
		},
		references: []string{"Tashjian RZ. Epidemiology, natural history, and indications for treatment of rotator cuff tears. Clin Sports Med. 2012."},
	},
	{
		name:     "Stroke Rehabilitation",
		category: "neurological",
		tags:     []string{"acute", "chronic", "neurological"},
		sections: map[disease.Section]string{
			disease.SectionDefinition:              "Coordinated program restoring motor, sensory, cognitive and communication function after a cerebrovascular accident.",
			disease.SectionClinicalPresentation:    "Hemiparesis, aphasia, dysphagia, neglect and post-stroke depression depending on lesion site.",
			disease.SectionTreatmentInterventional: "- Botulinum toxin for focal spasticity\n- Intrathecal baclofen for generalized spasticity",
			disease.SectionRehabilitationProtocol:  "Early mobilization in the acute phase, intensive inpatient therapy in the subacute phase, then community reintegration.",
		},
		references: []string{"Winstein CJ, et al. Guidelines for Adult Stroke Rehabilitation and Recovery. Stroke. 2016."},
	},
	{
		name:     "Lumbar Disc Herniation",
		category: "spine",
		tags:     []string{"acute", "degenerative"},
		sections: map[disease.Section]string{
			disease.SectionDefinition:            "Displacement of disc material beyond the intervertebral space, frequently compressing a lumbar nerve root.",
			disease.SectionImagingFindings:       "MRI shows disc morphology and neural compression; radiographs assess alignment only.",
			disease.SectionDifferentialDiagnosis: "- Piriformis syndrome\n- Sacroiliac joint dysfunction\n- Lumbar spinal stenosis",
			disease.SectionTreatmentSurgical:     "Microdiscectomy for cauda equina syndrome, progressive deficit or refractory radicular pain.",
		},
		references: []string{"Deyo RA, Mirza SK. Herniated Lumbar Intervertebral Disk. N Engl J Med. 2016."},
	},
}

// Run ensures the admin account exists and, when the catalogue is empty,
// creates the starter articles as that admin.
func Run(ctx context.Context, us *users.Service, editor *service.Service, admin Admin) (Result, error) {
	var res Result
	u, created, err := us.EnsureAdmin(ctx, admin.Email, admin.Password, admin.Name)
	if err != nil {
		return res, fmt.Errorf("seed admin: %w", err)
	}
	res.AdminCreated = created

	existing, err := editor.List(ctx, disease.Filter{})
	if err != nil {
		return res, err
	}
	if len(existing) > 0 {
		return res, nil
	}

	caller := access.Caller{ID: u.ID, Name: u.Name, Role: u.Role}
	for _, a := range articles {
		if _, err := editor.Create(ctx, caller, a.input()); err != nil {
			return res, fmt.Errorf("seed %q: %w", a.name, err)
		}
		res.Diseases++
	}
	return res, nil
}

func (a article) input() service.DocumentInput {
	name, category := a.name, a.category
	tags, refs := a.tags, a.references
	text := make(map[disease.Section]map[lang.Language]string, len(a.sections))
	for s, v := range a.sections {
		text[s] = map[lang.Language]string{lang.Canonical: v}
	}
	return service.DocumentInput{
		Name:       &name,
		CategoryID: &category,
		Tags:       &tags,
		References: &refs,
		Text:       text,
	}
}
