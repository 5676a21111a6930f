package job

import (
	"strings"
	"time"

	"github.com/grabke213/proofpack/internal/checklist"
)

// JobType classifies who the engagement is for.
type JobType string

const (
	JobRetail        JobType = "Retail Customer"
	JobBuilder       JobType = "Builder Project"
	JobSubcontracted JobType = "Subcontracted Through Supplier"
)

// ServiceType is the scope of work performed on site.
type ServiceType string

const (
	ServiceDelivery ServiceType = "Delivery"
	ServiceInstall  ServiceType = "Installation"
	ServiceBoth     ServiceType = "Delivery + Installation"
)

// ApplianceType enumerates the units the crew handles.
type ApplianceType string

const (
	TypeFridge     ApplianceType = "Fridge"
	TypeStove      ApplianceType = "Stove"
	TypeWasher     ApplianceType = "Washer"
	TypeDryer      ApplianceType = "Dryer"
	TypeDishwasher ApplianceType = "Dishwasher"
	TypeWallOven   ApplianceType = "Wall Oven"
)

// ApplianceTypes lists every known type in display order.
var ApplianceTypes = []ApplianceType{
	TypeFridge, TypeStove, TypeWasher, TypeDryer, TypeDishwasher, TypeWallOven,
}

// InspectionStatus records whether the unit was actually unwrapped and
// looked at. Anything other than InspectionUnwrapped means the exterior
// was never verified.
type InspectionStatus string

const (
	InspectionUnwrapped       InspectionStatus = "Unwrapped and visually inspected"
	InspectionLeftByRequest   InspectionStatus = "Left in original packaging at customer request"
	InspectionLeftByDirective InspectionStatus = "Left packaged – builder / site manager instruction"
	InspectionNotPossible     InspectionStatus = "Inspection not possible"
)

// Condition is only meaningful when the unit was unwrapped and
// inspected; see Appliance.EffectiveCondition.
type Condition string

const (
	ConditionNoDamage    Condition = "No noticeable damage observed at time of delivery"
	ConditionDamageNoted Condition = "Damage noted (see photos)"
	// ConditionNotVerified is derived, never stored: reported whenever
	// the unit stayed packaged.
	ConditionNotVerified Condition = "Not verified due to packaging"
)

// FunctionalResult is the outcome of the post-install functional check.
type FunctionalResult string

const (
	TestedPass                FunctionalResult = "Tested – PASS"
	NotTestedNoUtilities      FunctionalResult = "Not Tested – Utilities Not Available"
	NotTestedNotInScope       FunctionalResult = "Not Tested – Not Included in Scope"
	NotTestedCycleImpractical FunctionalResult = "Not Tested – Time/Program Cycle Not Practical"
)

// RepRole identifies who signed off on site.
type RepRole string

const (
	RepSiteManager RepRole = "Site Manager"
	RepHomeowner   RepRole = "Homeowner"
	RepBuilder     RepRole = "Builder"
	RepCustomer    RepRole = "Customer"
	RepNone        RepRole = "No Representative Present"
)

// Image is an embedded attachment carried by value as a data URL, so a
// stored record is self-contained. Empty means no image.
type Image string

// GPS is a single location fix captured when the job starts.
type GPS struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Acc float64 `json:"acc"` // accuracy radius in meters
}

// Appliance is one unit serviced within a Job. It is owned exclusively
// by its Job and destroyed with removal.
type Appliance struct {
	ID       string        `json:"id"`
	Type     ApplianceType `json:"type"`
	Brand    string        `json:"brand"`
	Model    string        `json:"model"`
	Serial   string        `json:"serial"`
	Location string        `json:"location"`

	Inspection InspectionStatus `json:"inspection"`
	Condition  Condition        `json:"condition"`
	DamageNote string           `json:"damageNote"`

	DamagePhotos   []Image `json:"damagePhotos"`
	PlacementPhoto Image   `json:"placementPhoto"`

	Functional     FunctionalResult `json:"functional"`
	UtilNoPower    bool             `json:"utilNoPower"`
	UtilNoWater    bool             `json:"utilNoWater"`
	UtilNoPlumbing bool             `json:"utilNoPlumbing"`
	UtilNoGas      bool             `json:"utilNoGas"`
	UtilOther      string           `json:"utilOther"`

	// Gas declaration, meaningful only for Type == TypeStove.
	GasExclusionConfirmed bool   `json:"gasExclusionConfirmed"`
	GasDoneByLicensed     bool   `json:"gasDoneByLicensed"`
	GasTechName           string `json:"gasTechName"`

	Checklist []checklist.Item `json:"checklist"`
	Notes     string           `json:"notes"`
}

// Job is one service engagement record.
type Job struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	JobType     JobType     `json:"jobType"`
	ServiceType ServiceType `json:"serviceType"`

	Address           string `json:"address"`
	ContactName       string `json:"contactName"`
	ContactPhone      string `json:"contactPhone"`
	ScheduledDT       string `json:"scheduledDT"`
	BuilderName       string `json:"builderName"`
	ContractedThrough string `json:"contractedThrough"`
	CompanyEmail      string `json:"companyEmail"`

	StartedAt  *time.Time `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt"`
	GPS        *GPS       `json:"gps"`

	AttachedIntakeImages []Image      `json:"attachedIntakeImages"`
	Appliances           []*Appliance `json:"appliances"`

	RepRole       RepRole `json:"repRole"`
	RepName       string  `json:"repName"`
	InstallerName string  `json:"installerName"`
	Signature     Image   `json:"signature"`
}

// EffectiveCondition is the condition the record actually certifies.
// A unit that was never unwrapped reports ConditionNotVerified no
// matter what is stored.
func (a *Appliance) EffectiveCondition() Condition {
	if a.Inspection != InspectionUnwrapped {
		return ConditionNotVerified
	}
	return a.Condition
}

// UtilitiesUnavailable joins the flagged utilities plus the free-text
// note into one summary list.
func (a *Appliance) UtilitiesUnavailable() []string {
	var out []string
	if a.UtilNoPower {
		out = append(out, "No power")
	}
	if a.UtilNoWater {
		out = append(out, "No water")
	}
	if a.UtilNoPlumbing {
		out = append(out, "No plumbing/drain")
	}
	if a.UtilNoGas {
		out = append(out, "No gas")
	}
	if other := strings.TrimSpace(a.UtilOther); other != "" {
		out = append(out, other)
	}
	return out
}

// HasGasDeclaration reports whether at least one gas declaration was
// made. Only relevant for stoves.
func (a *Appliance) HasGasDeclaration() bool {
	return a.GasExclusionConfirmed || a.GasDoneByLicensed
}
