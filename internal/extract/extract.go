// Package extract pulls likely field values out of pasted work-order
// text (emails, dispatch messages). Everything here is best-effort
// heuristics: the result is advisory and the user reviews it before it
// touches a job record.
package extract

import (
	"regexp"
	"strings"
)

// Fields is the partial field map produced by Extract. Empty values
// mean the heuristic found nothing.
type Fields struct {
	Address        string   `json:"address,omitempty"`
	ContactName    string   `json:"contactName,omitempty"`
	ContactPhone   string   `json:"contactPhone,omitempty"`
	CompanyEmail   string   `json:"companyEmail,omitempty"`
	ScheduledDT    string   `json:"scheduledDT,omitempty"`
	Models         []string `json:"models,omitempty"`
	ApplianceHints []string `json:"applianceHints,omitempty"`
}

var (
	phoneRe = regexp.MustCompile(`(?i)(\+?1[\s\-.]?)?\(?\d{3}\)?[\s\-.]?\d{3}[\s\-.]?\d{4}(\s*(ext\.?|x)\s*\d+)?`)
	timeRe  = regexp.MustCompile(`(?i)\b(\d{1,2})(:\d{2})?\s*(am|pm)\b`)
	dayRe   = regexp.MustCompile(`(?i)\b(mon(day)?|tue(s(day)?)?|wed(nesday)?|thu(rs(day)?)?|fri(day)?|sat(urday)?|sun(day)?)\b`)
	// The leading guard keeps the street number from seeding inside a
	// clock time: "9:30 am at 1450 Pembina Highway Ave" must anchor on
	// 1450, not on the 30 after the colon.
	addrRe  = regexp.MustCompile(`(?i)(?:^|[^\d:])(\d{1,6}\s+[A-Za-z0-9.\- ]{2,40}\s+(?:St|Street|Ave|Avenue|Dr|Drive|Rd|Road|Blvd|Boulevard|Cres|Crescent|Ln|Lane|Ct|Court|Way|Terr|Terrace|Pl|Place)\b\.?)`)
	nameRe  = regexp.MustCompile(`(?m)^\s*([A-Z][a-z]+)\s+([A-Z][a-z]+)\b`)
	modelRe = regexp.MustCompile(`\b[A-Z0-9]{6,}\b`)
	emailRe = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// applianceKeywords maps text hints to the appliance type label they
// suggest, checked in a fixed order so output is stable. Matches are
// whole words: "dishwasher" must not also hint "Washer".
var applianceKeywords = []struct {
	match func(s string) bool
	hint  string
}{
	{reMatch(`\bfridge\b`), "Fridge"},
	{reMatch(`\brefrigerator\b`), "Fridge"},
	{reMatch(`\bdishwasher\b`), "Dishwasher"},
	{reMatch(`\bwasher\b`), "Washer"},
	{reMatch(`\bdryer\b`), "Dryer"},
	{wallOvenHinted, "Wall Oven"},
	{reMatch(`\bstove\b`), "Stove"},
	{reMatch(`\brange\b`), "Stove"},
}

func reMatch(pattern string) func(s string) bool {
	return regexp.MustCompile(pattern).MatchString
}

var (
	wallOvenRe  = regexp.MustCompile(`\bwall oven\b`)
	ovenRe      = regexp.MustCompile(`\boven\b`)
	microwaveRe = regexp.MustCompile(`\bmicrowave\b`)
)

// wallOvenHinted accepts the explicit phrase, or a bare "oven" mention
// when no microwave is in play.
func wallOvenHinted(s string) bool {
	return wallOvenRe.MatchString(s) ||
		(ovenRe.MatchString(s) && !microwaveRe.MatchString(s))
}

const maxModels = 10

// Extract scans free text and returns every field the heuristics can
// guess at.
func Extract(text string) Fields {
	var out Fields
	t := strings.ReplaceAll(text, "\r", "")

	if m := phoneRe.FindString(t); m != "" {
		out.ContactPhone = strings.TrimSpace(m)
	}

	if m := timeRe.FindString(t); m != "" {
		out.ScheduledDT = strings.ToUpper(strings.TrimSpace(m))
	}
	if m := dayRe.FindString(t); m != "" {
		day := strings.ToUpper(m[:3])
		if out.ScheduledDT != "" {
			out.ScheduledDT = day + " " + out.ScheduledDT
		} else {
			out.ScheduledDT = day
		}
	}

	if m := addrRe.FindStringSubmatch(t); m != nil {
		addr := strings.TrimSpace(spaceRe.ReplaceAllString(m[1], " "))
		out.Address = strings.TrimSuffix(addr, ".")
	}

	if m := nameRe.FindStringSubmatch(t); m != nil {
		out.ContactName = m[1] + " " + m[2]
	}

	out.Models = modelTokens(t)
	out.ApplianceHints = applianceHints(t)

	if m := emailRe.FindString(t); m != "" {
		out.CompanyEmail = m
	}

	return out
}

// modelTokens keeps long alphanumeric tokens that mix letters and
// digits, the shape of appliance model/serial numbers.
func modelTokens(t string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range modelRe.FindAllString(t, -1) {
		if !strings.ContainsAny(tok, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") ||
			!strings.ContainsAny(tok, "0123456789") {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) == maxModels {
			break
		}
	}
	return out
}

func applianceHints(t string) []string {
	lower := strings.ToLower(t)
	seen := make(map[string]bool)
	var out []string
	for _, kw := range applianceKeywords {
		if !kw.match(lower) {
			continue
		}
		if seen[kw.hint] {
			continue
		}
		seen[kw.hint] = true
		out = append(out, kw.hint)
	}
	return out
}
