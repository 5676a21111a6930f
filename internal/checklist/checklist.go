// Package checklist derives the ordered verification steps required for
// an appliance, based on the service performed and the appliance type.
// Derivation is a pure lookup: same inputs always yield the same steps.
package checklist

// Item is one checklist step with its completion flag.
type Item struct {
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

var deliveryBase = []string{
	"Path protection used where required",
	"Unit placed in requested location",
	"Placement photo captured",
}

var deliveryByType = map[string][]string{
	"Fridge":     {"Doors protected during move", "Power cord secured"},
	"Stove":      {"Measured doorway/clearance verified"},
	"Washer":     {"Hoses/parts delivered with unit (if provided)"},
	"Dryer":      {"Vent location confirmed (if applicable)"},
	"Dishwasher": {"Unit delivered to install location"},
	"Wall Oven":  {"Unit delivered to install location"},
}

var installBase = []string{
	"Unit positioned and leveled",
	"Install area inspected for fit/clearance",
	"Final placement photo captured",
}

var installByType = map[string][]string{
	"Fridge":     {"Powered on (if power available)", "Water line connected (if included in scope)"},
	"Stove":      {"Powered on (if power available)", "Anti-tip bracket (if applicable)"},
	"Washer":     {"Hoses connected (if included in scope)", "Drain seated/verified"},
	"Dryer":      {"Powered on (if power available)", "Vent connected (if included in scope)"},
	"Dishwasher": {"Water line connected", "Drain connected", "Level / secure"},
	"Wall Oven":  {"Powered on (if power available)", "Fit verified"},
}

// Delivery returns the delivery-phase steps for an appliance type.
// Unknown types get the base template with no supplement.
func Delivery(applianceType string) []string {
	return concat(deliveryBase, deliveryByType[applianceType])
}

// Install returns the install-phase steps for an appliance type.
func Install(applianceType string) []string {
	return concat(installBase, installByType[applianceType])
}

// Derive returns the ordered step labels for the given appliance and
// service type. A combined service is the delivery steps followed by
// the install steps; steps that appear in both phases are kept twice
// since each phase is signed off separately.
func Derive(applianceType, serviceType string) []string {
	switch serviceType {
	case "Delivery":
		return Delivery(applianceType)
	case "Installation":
		return Install(applianceType)
	default:
		return concat(Delivery(applianceType), Install(applianceType))
	}
}

// concat joins two label sequences into a fresh slice so callers can
// never mutate the shared templates through the result.
func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// Seed wraps freshly derived labels as unchecked items.
func Seed(applianceType, serviceType string) []Item {
	labels := Derive(applianceType, serviceType)
	items := make([]Item, len(labels))
	for i, label := range labels {
		items[i] = Item{Label: label}
	}
	return items
}

// Rebuild produces the item list for a new label sequence, carrying a
// completion flag forward only when the label at that position is
// unchanged. Carrying by raw index would silently mis-attribute
// completion after a type switch shifts the list.
func Rebuild(old []Item, labels []string) []Item {
	items := make([]Item, len(labels))
	for i, label := range labels {
		items[i] = Item{Label: label}
		if i < len(old) && old[i].Label == label {
			items[i].Done = old[i].Done
		}
	}
	return items
}
