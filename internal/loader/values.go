package loader

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// naTokens are read as missing, matching common CSV exporters.
var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "#N/A": {}, "NaN": {}, "nan": {},
	"null": {}, "NULL": {}, "None": {}, "<NA>": {},
}

func isMissing(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
		"2006-01-02 15:04:05-07:00", "2006-01-02 15:04:05 -0700 MST",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false":
		return true
	}
	return false
}

// parseNumeric reads locale-formatted numbers such as "1.000,5", "12.5%" or "3e4".
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	raw = strings.ReplaceAll(raw, " ", " ")
	raw = strings.TrimSpace(raw)
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	// ParseFloat accepts these spellings but a dataset never means them as numbers.
	switch strings.ToLower(raw) {
	case "inf", "+inf", "-inf", "infinity", "+infinity", "-infinity", "nan":
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func normalizeUnit(x float64, unit string, opt Options) (float64, string, bool) {
	if opt.UnitTargets == nil {
		return x, unit, false
	}
	target, ok := opt.UnitTargets[unit]
	if !ok {
		return x, unit, false
	}
	switch unit + ">" + target {
	case "g/L>mg/L":
		return x * 1000, target, true
	case "ug/L>mg/L":
		return x / 1000, target, true
	case "°F>°C":
		return (x - 32) * 5.0 / 9.0, target, true
	default:
		return x, unit, false
	}
}

// knownUnits are the header suffixes read as units. Other bracketed suffixes,
// such as "Age (years)", stay part of the column name.
var knownUnits = map[string]struct{}{
	"%": {}, "mg/L": {}, "g/L": {}, "ug/L": {}, "µg/L": {}, "°C": {}, "°F": {},
	"Brix": {}, "ppm": {}, "ppb": {},
}

var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`),  // e.g., Alpha (%)
	regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), // e.g., Mass [mg/L]
	regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|Brix|%|ppm|ppb)$`),
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, re := range unitPatterns {
		m := re.FindStringSubmatch(s)
		if len(m) < 3 {
			continue
		}
		base := strings.TrimSpace(m[1])
		u := strings.TrimSpace(m[2])
		if _, ok := knownUnits[u]; ok && base != "" {
			return base, u
		}
	}
	return s, ""
}
