// Package export renders a Job into the proof document: a single
// self-contained HTML page with every image embedded by value, handed
// to an external print-to-PDF step. Rendering is deterministic: the
// same job content and generation time always produce identical bytes.
// The builder performs no validation; gating is the caller's job.
package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"github.com/grabke213/proofpack/internal/job"
)

//go:embed proofpack.html.tmpl
var templateFS embed.FS

// Renderers cap how many damage photos a single appliance block embeds.
const maxDamagePhotos = 12

// Identity is the organization block printed in the document header.
type Identity struct {
	AppName  string
	Company  string
	DocTitle string
	Version  string
}

// Builder renders proof documents for one organization identity.
type Builder struct {
	org  Identity
	tmpl *template.Template
}

func NewBuilder(org Identity) (*Builder, error) {
	tmpl, err := template.ParseFS(templateFS, "proofpack.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse proof template: %w", err)
	}
	return &Builder{org: org, tmpl: tmpl}, nil
}

// Build renders the document for a point-in-time job snapshot.
// generatedAt is stamped into the header; passing the same value with
// unchanged job content yields byte-identical output.
func (b *Builder) Build(j *job.Job, generatedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, b.view(j, generatedAt)); err != nil {
		return nil, fmt.Errorf("render proof document: %w", err)
	}
	return buf.Bytes(), nil
}

type docView struct {
	AppName  string
	Company  string
	DocTitle string
	Version  string

	CertID    string
	Generated string

	JobType           string
	ServiceType       string
	Address           string
	Scheduled         string
	Contact           string
	Builder           string
	ContractedThrough string
	CompanyEmail      string
	StartFinish       string
	GPSLine           string

	Intake []template.URL

	RepLine       string
	InstallerName string
	NoRepPresent  bool
	Signature     template.URL

	Appliances []applianceView
}

type applianceView struct {
	Index      int
	Type       string
	Model      string
	Serial     string
	Location   string
	Inspection string

	Placement template.URL

	NotVerified  bool
	DamageNoted  bool
	DamageNote   string
	DamagePhotos []template.URL

	ShowTesting bool
	Functional  string
	Utilities   string

	IsStove     bool
	GasLicensed bool
	GasTechName string

	Checklist []checkRow
	Notes     string
}

type checkRow struct {
	Glyph string
	Label string
	Done  bool
}

func (b *Builder) view(j *job.Job, generatedAt time.Time) docView {
	v := docView{
		AppName:  b.org.AppName,
		Company:  b.org.Company,
		DocTitle: b.org.DocTitle,
		Version:  b.org.Version,

		CertID:    j.ID,
		Generated: fmtDT(generatedAt),

		JobType:           string(j.JobType),
		ServiceType:       string(j.ServiceType),
		Address:           j.Address,
		Scheduled:         orDash(j.ScheduledDT),
		Contact:           orDash(joinParts(j.ContactName, j.ContactPhone)),
		Builder:           orDash(j.BuilderName),
		ContractedThrough: orDash(j.ContractedThrough),
		CompanyEmail:      orDash(j.CompanyEmail),
		StartFinish:       orDash(startFinishLine(j)),
		GPSLine:           orDash(gpsLine(j.GPS)),

		RepLine:       repLine(j),
		InstallerName: orDash(j.InstallerName),
		NoRepPresent:  j.RepRole == job.RepNone,
		Signature:     template.URL(j.Signature),
	}

	for _, img := range j.AttachedIntakeImages {
		v.Intake = append(v.Intake, template.URL(img))
	}

	for idx, a := range j.Appliances {
		v.Appliances = append(v.Appliances, applianceBlock(j, a, idx+1))
	}
	return v
}

func applianceBlock(j *job.Job, a *job.Appliance, index int) applianceView {
	av := applianceView{
		Index:      index,
		Type:       string(a.Type),
		Model:      orDash(a.Model),
		Serial:     orDash(a.Serial),
		Location:   orDash(a.Location),
		Inspection: string(a.Inspection),
		Placement:  template.URL(a.PlacementPhoto),
		IsStove:    a.Type == job.TypeStove,
		Notes:      strings.TrimSpace(a.Notes),
	}

	switch a.EffectiveCondition() {
	case job.ConditionNotVerified:
		av.NotVerified = true
	case job.ConditionDamageNoted:
		av.DamageNoted = true
		av.DamageNote = strings.TrimSpace(a.DamageNote)
		photos := a.DamagePhotos
		if len(photos) > maxDamagePhotos {
			photos = photos[:maxDamagePhotos]
		}
		for _, img := range photos {
			av.DamagePhotos = append(av.DamagePhotos, template.URL(img))
		}
	}

	// The testing block is omitted entirely for delivery-only work.
	if j.ServiceType != job.ServiceDelivery {
		av.ShowTesting = true
		av.Functional = string(a.Functional)
		if utils := a.UtilitiesUnavailable(); len(utils) > 0 {
			av.Utilities = strings.Join(utils, ", ")
		} else {
			av.Utilities = "—"
		}
	}

	if av.IsStove && a.GasDoneByLicensed && strings.TrimSpace(a.GasTechName) != "" {
		av.GasLicensed = true
		av.GasTechName = strings.TrimSpace(a.GasTechName)
	}

	for _, it := range a.Checklist {
		glyph := "—"
		if it.Done {
			glyph = "✓"
		}
		av.Checklist = append(av.Checklist, checkRow{Glyph: glyph, Label: it.Label, Done: it.Done})
	}
	return av
}

// fmtDT formats timestamps for human reading on the certificate.
func fmtDT(t time.Time) string {
	return t.Format("Mon, Jan 2, 2006, 3:04 PM")
}

func startFinishLine(j *job.Job) string {
	var parts []string
	if j.StartedAt != nil {
		parts = append(parts, fmtDT(*j.StartedAt))
	}
	if j.FinishedAt != nil {
		parts = append(parts, fmtDT(*j.FinishedAt))
	}
	return strings.Join(parts, " • ")
}

func gpsLine(g *job.GPS) string {
	if g == nil {
		return ""
	}
	return fmt.Sprintf("%.6f, %.6f (±%dm)", g.Lat, g.Lon, int(math.Round(g.Acc)))
}

func repLine(j *job.Job) string {
	if j.RepName != "" {
		return fmt.Sprintf("%s — %s", j.RepRole, j.RepName)
	}
	return string(j.RepRole)
}

func joinParts(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " • ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
