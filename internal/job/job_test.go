package job

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grabke213/proofpack/internal/checklist"
)

var now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	j := New(now)
	assert.True(t, strings.HasPrefix(j.ID, "PC-20260314-"), j.ID)
	assert.Equal(t, JobRetail, j.JobType)
	assert.Equal(t, ServiceDelivery, j.ServiceType)
	require.Len(t, j.Appliances, 1)

	a := j.Appliances[0]
	assert.Equal(t, TypeFridge, a.Type)
	assert.Equal(t, InspectionUnwrapped, a.Inspection)
	assert.Equal(t, ConditionNoDamage, a.Condition)
	assert.Equal(t, NotTestedNotInScope, a.Functional)
	assert.True(t, a.GasExclusionConfirmed)
	assert.Equal(t, checklist.Seed("Fridge", "Delivery"), a.Checklist)
}

func TestNewID_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 100 {
		id := NewID(now)
		assert.False(t, seen[id], id)
		seen[id] = true
	}
}

func TestRemoveAppliance_NeverLeavesZero(t *testing.T) {
	t.Parallel()

	j := New(now)
	only := j.Appliances[0]
	require.NoError(t, j.RemoveAppliance(only.ID, now))

	require.Len(t, j.Appliances, 1)
	assert.NotEqual(t, only.ID, j.Appliances[0].ID)
	assert.Equal(t, checklist.Seed("Fridge", "Delivery"), j.Appliances[0].Checklist)
}

func TestRemoveAppliance_KeepsOthers(t *testing.T) {
	t.Parallel()

	j := New(now)
	second := j.AddAppliance(now)
	require.Len(t, j.Appliances, 2)

	require.NoError(t, j.RemoveAppliance(j.Appliances[0].ID, now))
	require.Len(t, j.Appliances, 1)
	assert.Equal(t, second.ID, j.Appliances[0].ID)

	assert.ErrorIs(t, j.RemoveAppliance("nope", now), ErrApplianceNotFound)
}

func TestSetServiceType_CascadesFunctionalDefaults(t *testing.T) {
	t.Parallel()

	j := New(now)
	fridge := j.Appliances[0]
	washer := j.AddAppliance(now)
	require.NoError(t, j.SetApplianceType(washer.ID, TypeWasher, now))
	dishwasher := j.AddAppliance(now)
	require.NoError(t, j.SetApplianceType(dishwasher.ID, TypeDishwasher, now))
	stove := j.AddAppliance(now)
	require.NoError(t, j.SetApplianceType(stove.ID, TypeStove, now))

	j.SetServiceType(ServiceInstall, now)
	assert.Equal(t, TestedPass, fridge.Functional)
	assert.Equal(t, NotTestedCycleImpractical, washer.Functional)
	assert.Equal(t, NotTestedNoUtilities, dishwasher.Functional)
	assert.Equal(t, NotTestedNoUtilities, stove.Functional)

	j.SetServiceType(ServiceDelivery, now)
	for _, a := range j.Appliances {
		assert.Equal(t, NotTestedNotInScope, a.Functional)
	}
}

func TestSetServiceType_RebuildsChecklists(t *testing.T) {
	t.Parallel()

	j := New(now)
	a := j.Appliances[0]
	// Mark the shared leading step done; delivery and install templates
	// diverge at index 0, so nothing should carry over.
	require.NoError(t, j.SetChecklistDone(a.ID, 0, true, now))

	j.SetServiceType(ServiceInstall, now)
	assert.Equal(t, checklist.Derive("Fridge", "Installation"), labels(a.Checklist))
	for _, it := range a.Checklist {
		assert.False(t, it.Done, it.Label)
	}
}

func TestSetApplianceType_AwayFromStoveResetsGasFields(t *testing.T) {
	t.Parallel()

	j := New(now)
	a := j.Appliances[0]
	require.NoError(t, j.SetApplianceType(a.ID, TypeStove, now))

	require.NoError(t, j.ApplyApplianceField(a.ID, "gasExclusionConfirmed", "false", now))
	require.NoError(t, j.ApplyApplianceField(a.ID, "gasDoneByLicensed", "true", now))
	require.NoError(t, j.ApplyApplianceField(a.ID, "gasTechName", "A. Fitter", now))
	require.NoError(t, j.ApplyApplianceField(a.ID, "utilNoGas", "true", now))

	require.NoError(t, j.SetApplianceType(a.ID, TypeDryer, now))
	assert.True(t, a.GasExclusionConfirmed)
	assert.False(t, a.GasDoneByLicensed)
	assert.Empty(t, a.GasTechName)
	assert.False(t, a.UtilNoGas)
	assert.Equal(t, checklist.Derive("Dryer", "Delivery"), labels(a.Checklist))
}

func TestSetCondition_GatedByInspection(t *testing.T) {
	t.Parallel()

	j := New(now)
	a := j.Appliances[0]

	require.NoError(t, j.SetCondition(a.ID, ConditionDamageNoted, now))
	assert.Equal(t, ConditionDamageNoted, a.Condition)
	assert.Equal(t, ConditionDamageNoted, a.EffectiveCondition())

	require.NoError(t, j.ApplyApplianceField(a.ID, "inspection", string(InspectionLeftByRequest), now))
	assert.ErrorIs(t, j.SetCondition(a.ID, ConditionNoDamage, now), ErrConditionLocked)
	// Stored value survives but the effective condition is not verified.
	assert.Equal(t, ConditionDamageNoted, a.Condition)
	assert.Equal(t, ConditionNotVerified, a.EffectiveCondition())
}

func TestAttachPhotos_ByStableID(t *testing.T) {
	t.Parallel()

	j := New(now)
	first := j.Appliances[0]
	second := j.AddAppliance(now)

	// Attachment lands after the list was reordered by a removal, so it
	// must find the appliance by id, not by position.
	require.NoError(t, j.RemoveAppliance(first.ID, now))
	require.NoError(t, j.AttachPlacementPhoto(second.ID, "data:image/jpeg;base64,AAA", now))
	assert.Equal(t, Image("data:image/jpeg;base64,AAA"), second.PlacementPhoto)

	require.NoError(t, j.AttachDamagePhotos(second.ID, []Image{"data:1", "data:2"}, now))
	require.NoError(t, j.AttachDamagePhotos(second.ID, []Image{"data:3"}, now))
	assert.Equal(t, []Image{"data:1", "data:2", "data:3"}, second.DamagePhotos)

	// Replace semantics for placement, accumulate for damage.
	require.NoError(t, j.AttachPlacementPhoto(second.ID, "data:new", now))
	assert.Equal(t, Image("data:new"), second.PlacementPhoto)

	assert.ErrorIs(t, j.AttachPlacementPhoto(first.ID, "data:x", now), ErrApplianceNotFound)
}

func TestStartFinish(t *testing.T) {
	t.Parallel()

	j := New(now)
	fix := &GPS{Lat: 49.895077, Lon: -97.138451, Acc: 12.4}
	j.Start(now, fix)
	require.NotNil(t, j.StartedAt)
	assert.Equal(t, fix, j.GPS)

	// Restart does not overwrite the captured fix.
	j.Start(now.Add(time.Minute), &GPS{Lat: 0, Lon: 0, Acc: 1})
	assert.Equal(t, fix, j.GPS)

	assert.ErrorIs(t, j.Finish(now.Add(-time.Hour)), ErrFinishBeforeStart)
	require.NoError(t, j.Finish(now.Add(2*time.Hour)))
	require.NotNil(t, j.FinishedAt)
}

func TestStart_ToleratesNoFix(t *testing.T) {
	t.Parallel()

	j := New(now)
	j.Start(now, nil)
	require.NotNil(t, j.StartedAt)
	assert.Nil(t, j.GPS)
}

func TestApplyField(t *testing.T) {
	t.Parallel()

	j := New(now)
	require.NoError(t, j.ApplyField("address", "  12 Elm St  ", now))
	assert.Equal(t, "12 Elm St", j.Address)

	require.NoError(t, j.ApplyField("serviceType", string(ServiceBoth), now))
	assert.Equal(t, ServiceBoth, j.ServiceType)
	assert.Equal(t, checklist.Derive("Fridge", "Delivery + Installation"), labels(j.Appliances[0].Checklist))

	assert.ErrorIs(t, j.ApplyField("bogus", "x", now), ErrUnknownField)
	assert.ErrorIs(t, j.ApplyApplianceField(j.Appliances[0].ID, "bogus", "x", now), ErrUnknownField)
}

func TestUtilitiesUnavailable(t *testing.T) {
	t.Parallel()

	a := &Appliance{UtilNoPower: true, UtilNoGas: true, UtilOther: " breaker off "}
	assert.Equal(t, []string{"No power", "No gas", "breaker off"}, a.UtilitiesUnavailable())

	assert.Empty(t, (&Appliance{}).UtilitiesUnavailable())
	assert.Empty(t, (&Appliance{UtilOther: "   "}).UtilitiesUnavailable())
}

func TestClone_Deep(t *testing.T) {
	t.Parallel()

	j := New(now)
	a := j.Appliances[0]
	require.NoError(t, j.AttachDamagePhotos(a.ID, []Image{"data:1"}, now))
	j.Start(now, &GPS{Lat: 1, Lon: 2, Acc: 3})

	cp := j.Clone()
	require.NoError(t, cp.AttachDamagePhotos(cp.Appliances[0].ID, []Image{"data:2"}, now))
	cp.GPS.Lat = 99
	require.NoError(t, cp.SetChecklistDone(cp.Appliances[0].ID, 0, true, now))

	assert.Len(t, a.DamagePhotos, 1)
	assert.Equal(t, 1.0, j.GPS.Lat)
	assert.False(t, a.Checklist[0].Done)
}

func labels(items []checklist.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}
