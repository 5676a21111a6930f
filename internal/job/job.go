// Package job owns the Job/Appliance entity graph and the field
// interdependency rules triggered by edits. All mutations go through
// methods on Job so the invariants (at least one appliance, checklist
// derived from current types, stove-only gas fields) hold at every
// observation point.
package job

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grabke213/proofpack/internal/checklist"
)

var (
	ErrApplianceNotFound = errors.New("appliance not found")
	ErrConditionLocked   = errors.New("condition is locked unless the unit was unwrapped and inspected")
	ErrFinishBeforeStart = errors.New("finish time cannot precede start time")
	ErrChecklistIndex    = errors.New("checklist index out of range")
	ErrUnknownField      = errors.New("unknown field")
)

const idCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewID builds a certificate id like PC-20260828-7KQ2MB: date-stamped,
// human-readable, unique enough for a single-device record set.
func NewID(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// a time-derived suffix rather than panicking mid-job.
		return fmt.Sprintf("PC-%s-%06d", now.Format("20060102"), now.UnixNano()%1000000)
	}
	for i, b := range buf {
		buf[i] = idCharset[int(b)%len(idCharset)]
	}
	return fmt.Sprintf("PC-%s-%s", now.Format("20060102"), string(buf))
}

// New creates a fresh Job with defaults and one blank appliance.
func New(now time.Time) *Job {
	j := &Job{
		ID:          NewID(now),
		CreatedAt:   now,
		UpdatedAt:   now,
		JobType:     JobRetail,
		ServiceType: ServiceDelivery,
		RepRole:     RepSiteManager,
	}
	j.Appliances = []*Appliance{NewAppliance(j.ServiceType)}
	return j
}

// NewAppliance creates a blank appliance seeded with the checklist for
// the current service type.
func NewAppliance(serviceType ServiceType) *Appliance {
	a := &Appliance{
		ID:                    uuid.NewString(),
		Type:                  TypeFridge,
		Inspection:            InspectionUnwrapped,
		Condition:             ConditionNoDamage,
		Functional:            defaultFunctional(serviceType, TypeFridge),
		GasExclusionConfirmed: true,
	}
	a.Checklist = checklist.Seed(string(a.Type), string(serviceType))
	return a
}

// defaultFunctional is the functional-check default applied whenever
// the service type changes. Delivery-only work is never tested; for
// installs the default depends on what is practical per type.
func defaultFunctional(serviceType ServiceType, applianceType ApplianceType) FunctionalResult {
	if serviceType == ServiceDelivery {
		return NotTestedNotInScope
	}
	switch applianceType {
	case TypeFridge:
		return TestedPass
	case TypeWasher:
		return NotTestedCycleImpractical
	default:
		return NotTestedNoUtilities
	}
}

func (j *Job) touch(now time.Time) {
	j.UpdatedAt = now
}

// Touch bumps the modification timestamp. Exposed for callers that
// sync external edits (form state, signature) into the record.
func (j *Job) Touch(now time.Time) {
	j.touch(now)
}

// Appliance looks up an appliance by its stable id. Attachments that
// land late (async capture) must address appliances this way, never by
// position.
func (j *Job) Appliance(id string) (*Appliance, error) {
	for _, a := range j.Appliances {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrApplianceNotFound, id)
}

// SetServiceType cascades to every appliance: the checklist is
// re-derived (completion carried only for unchanged labels) and the
// functional check resets to the service-appropriate default.
func (j *Job) SetServiceType(st ServiceType, now time.Time) {
	j.ServiceType = st
	for _, a := range j.Appliances {
		a.Checklist = checklist.Rebuild(a.Checklist, checklist.Derive(string(a.Type), string(st)))
		a.Functional = defaultFunctional(st, a.Type)
	}
	j.touch(now)
}

// SetApplianceType re-derives the appliance checklist and, when the
// type moves away from Stove, force-resets the gas declaration and the
// "no gas" utility flag to their defaults.
func (j *Job) SetApplianceType(id string, t ApplianceType, now time.Time) error {
	a, err := j.Appliance(id)
	if err != nil {
		return err
	}
	a.Type = t
	a.Checklist = checklist.Rebuild(a.Checklist, checklist.Derive(string(t), string(j.ServiceType)))
	if t != TypeStove {
		a.GasExclusionConfirmed = true
		a.GasDoneByLicensed = false
		a.GasTechName = ""
		a.UtilNoGas = false
	}
	j.touch(now)
	return nil
}

// SetCondition enforces the inspection gate in the model: the stored
// condition may only change while the unit is unwrapped and inspected.
func (j *Job) SetCondition(id string, c Condition, now time.Time) error {
	a, err := j.Appliance(id)
	if err != nil {
		return err
	}
	if a.Inspection != InspectionUnwrapped {
		return ErrConditionLocked
	}
	a.Condition = c
	j.touch(now)
	return nil
}

// AddAppliance appends a blank appliance seeded from the current
// service type and returns it.
func (j *Job) AddAppliance(now time.Time) *Appliance {
	a := NewAppliance(j.ServiceType)
	j.Appliances = append(j.Appliances, a)
	j.touch(now)
	return a
}

// RemoveAppliance deletes an appliance. Removing the last one
// immediately seeds a replacement blank so the job never exposes an
// empty appliance list.
func (j *Job) RemoveAppliance(id string, now time.Time) error {
	kept := j.Appliances[:0]
	found := false
	for _, a := range j.Appliances {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrApplianceNotFound, id)
	}
	if len(kept) == 0 {
		kept = append(kept, NewAppliance(j.ServiceType))
	}
	j.Appliances = kept
	j.touch(now)
	return nil
}

// AttachPlacementPhoto replaces the single placement photo.
func (j *Job) AttachPlacementPhoto(id string, img Image, now time.Time) error {
	a, err := j.Appliance(id)
	if err != nil {
		return err
	}
	a.PlacementPhoto = img
	j.touch(now)
	return nil
}

// AttachDamagePhotos appends damage photos; they accumulate, there is
// no replace semantics.
func (j *Job) AttachDamagePhotos(id string, imgs []Image, now time.Time) error {
	a, err := j.Appliance(id)
	if err != nil {
		return err
	}
	a.DamagePhotos = append(a.DamagePhotos, imgs...)
	j.touch(now)
	return nil
}

// AttachIntakeImage appends a work-order screenshot or photo captured
// at intake.
func (j *Job) AttachIntakeImage(img Image, now time.Time) {
	j.AttachedIntakeImages = append(j.AttachedIntakeImages, img)
	j.touch(now)
}

// SetChecklistDone toggles one checklist step by position.
func (j *Job) SetChecklistDone(id string, index int, done bool, now time.Time) error {
	a, err := j.Appliance(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(a.Checklist) {
		return fmt.Errorf("%w: %d", ErrChecklistIndex, index)
	}
	a.Checklist[index].Done = done
	j.touch(now)
	return nil
}

// Start stamps the job start and records the location fix. The fix is
// captured once: a later restart never overwrites an existing fix.
func (j *Job) Start(now time.Time, fix *GPS) {
	t := now
	j.StartedAt = &t
	if j.GPS == nil {
		j.GPS = fix
	}
	j.touch(now)
}

// Finish stamps the job end. Finish must not precede start.
func (j *Job) Finish(now time.Time) error {
	if j.StartedAt != nil && now.Before(*j.StartedAt) {
		return ErrFinishBeforeStart
	}
	t := now
	j.FinishedAt = &t
	j.touch(now)
	return nil
}

// ApplyField applies a job-level scalar edit by field name, the
// command-style entry point used by the editing surface. Service type
// goes through the cascading setter.
func (j *Job) ApplyField(name, value string, now time.Time) error {
	switch name {
	case "jobType":
		j.JobType = JobType(value)
	case "serviceType":
		j.SetServiceType(ServiceType(value), now)
		return nil
	case "address":
		j.Address = strings.TrimSpace(value)
	case "contactName":
		j.ContactName = strings.TrimSpace(value)
	case "contactPhone":
		j.ContactPhone = strings.TrimSpace(value)
	case "scheduledDT":
		j.ScheduledDT = strings.TrimSpace(value)
	case "builderName":
		j.BuilderName = strings.TrimSpace(value)
	case "contractedThrough":
		j.ContractedThrough = strings.TrimSpace(value)
	case "companyEmail":
		j.CompanyEmail = strings.TrimSpace(value)
	case "repRole":
		j.RepRole = RepRole(value)
	case "repName":
		j.RepName = strings.TrimSpace(value)
	case "installerName":
		j.InstallerName = strings.TrimSpace(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	j.touch(now)
	return nil
}

// ApplyApplianceField applies an appliance-level edit by field name.
// Type and condition route through their rule-enforcing setters; bool
// fields accept "true"/"false".
func (j *Job) ApplyApplianceField(id, name, value string, now time.Time) error {
	switch name {
	case "type":
		return j.SetApplianceType(id, ApplianceType(value), now)
	case "condition":
		return j.SetCondition(id, Condition(value), now)
	}

	a, err := j.Appliance(id)
	if err != nil {
		return err
	}
	switch name {
	case "brand":
		a.Brand = strings.TrimSpace(value)
	case "model":
		a.Model = strings.TrimSpace(value)
	case "serial":
		a.Serial = strings.TrimSpace(value)
	case "location":
		a.Location = strings.TrimSpace(value)
	case "inspection":
		a.Inspection = InspectionStatus(value)
	case "damageNote":
		a.DamageNote = strings.TrimSpace(value)
	case "functional":
		a.Functional = FunctionalResult(value)
	case "utilNoPower":
		a.UtilNoPower = parseBool(value)
	case "utilNoWater":
		a.UtilNoWater = parseBool(value)
	case "utilNoPlumbing":
		a.UtilNoPlumbing = parseBool(value)
	case "utilNoGas":
		a.UtilNoGas = parseBool(value)
	case "utilOther":
		a.UtilOther = strings.TrimSpace(value)
	case "gasExclusionConfirmed":
		a.GasExclusionConfirmed = parseBool(value)
	case "gasDoneByLicensed":
		a.GasDoneByLicensed = parseBool(value)
	case "gasTechName":
		a.GasTechName = strings.TrimSpace(value)
	case "notes":
		a.Notes = strings.TrimSpace(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	j.touch(now)
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "on", "yes", "checked":
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of the job, used wherever a point-in-time
// snapshot must not alias in-session state.
func (j *Job) Clone() *Job {
	cp := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		cp.FinishedAt = &t
	}
	if j.GPS != nil {
		g := *j.GPS
		cp.GPS = &g
	}
	cp.AttachedIntakeImages = append([]Image(nil), j.AttachedIntakeImages...)
	cp.Appliances = make([]*Appliance, len(j.Appliances))
	for i, a := range j.Appliances {
		ac := *a
		ac.DamagePhotos = append([]Image(nil), a.DamagePhotos...)
		ac.Checklist = append([]checklist.Item(nil), a.Checklist...)
		cp.Appliances[i] = &ac
	}
	return &cp
}
