// Package validate holds the export-readiness rules. Every rule is
// checked independently and all findings are reported together; an
// empty result means the job may be exported.
package validate

import (
	"fmt"

	"github.com/grabke213/proofpack/internal/job"
)

// Issue is one blocking reason a job cannot be exported. ApplianceID
// is empty for job-level issues; callers that arrived here from an
// async flow can link back to the appliance by its stable id.
type Issue struct {
	ApplianceID string `json:"applianceId,omitempty"`
	Message     string `json:"message"`
}

// Validate reads a point-in-time snapshot and returns every blocking
// issue. It never mutates the job; callers must sync in-progress form
// state into the record before invoking it.
func Validate(j *job.Job) []Issue {
	issues := make([]Issue, 0)

	if j.Address == "" {
		issues = append(issues, Issue{Message: "Project Address is required."})
	}

	for idx, a := range j.Appliances {
		n := idx + 1
		if a.PlacementPhoto == "" {
			issues = append(issues, Issue{
				ApplianceID: a.ID,
				Message:     fmt.Sprintf("Appliance #%d needs a Placement Photo.", n),
			})
		}
		if a.Type == job.TypeStove && !a.HasGasDeclaration() {
			issues = append(issues, Issue{
				ApplianceID: a.ID,
				Message:     fmt.Sprintf("Stove (#%d) requires a Gas Work Declaration.", n),
			})
		}
		if a.EffectiveCondition() == job.ConditionDamageNoted && len(a.DamagePhotos) == 0 {
			issues = append(issues, Issue{
				ApplianceID: a.ID,
				Message:     fmt.Sprintf("Appliance #%d has damage noted but no damage photos attached.", n),
			})
		}
	}

	return issues
}
