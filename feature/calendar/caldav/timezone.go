package caldav

import (
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// Windows zone names emitted by Exchange and Outlook, mapped to IANA names.
var windowsToIANA = map[string]string{
	"Pacific Standard Time":          "America/Los_Angeles",
	"Mountain Standard Time":         "America/Denver",
	"Central Standard Time":          "America/Chicago",
	"Eastern Standard Time":          "America/New_York",
	"Atlantic Standard Time":         "America/Halifax",
	"Alaskan Standard Time":          "America/Anchorage",
	"Hawaiian Standard Time":         "Pacific/Honolulu",
	"GMT Standard Time":              "Europe/London",
	"Greenwich Standard Time":        "Atlantic/Reykjavik",
	"W. Europe Standard Time":        "Europe/Berlin",
	"Central Europe Standard Time":   "Europe/Budapest",
	"Romance Standard Time":          "Europe/Paris",
	"Central European Standard Time": "Europe/Warsaw",
	"E. Europe Standard Time":        "Europe/Chisinau",
	"FLE Standard Time":              "Europe/Kiev",
	"Russian Standard Time":          "Europe/Moscow",
	"China Standard Time":            "Asia/Shanghai",
	"Tokyo Standard Time":            "Asia/Tokyo",
	"India Standard Time":            "Asia/Kolkata",
	"Singapore Standard Time":        "Asia/Singapore",
	"AUS Eastern Standard Time":      "Australia/Sydney",
	"New Zealand Standard Time":      "Pacific/Auckland",
	"UTC":                            "UTC",
}

// timeProps lists the properties whose TZID parameter is rewritten.
var timeProps = []string{
	ical.PropDateTimeStart,
	ical.PropDateTimeEnd,
	ical.PropRecurrenceID,
	ical.PropExceptionDates,
	ical.PropRecurrenceDates,
}

// propLicLocation names the IANA zone a VTIMEZONE was generated from, when the producer sets it.
const propLicLocation = "X-LIC-LOCATION"

// zoneAliases maps the TZID of every VTIMEZONE in cal that carries X-LIC-LOCATION to that name.
func zoneAliases(cal *ical.Calendar) map[string]string {
	aliases := make(map[string]string)
	for _, comp := range cal.Children {
		if comp.Name != ical.CompTimezone {
			continue
		}
		tzid := textProp(comp, ical.PropTimezoneID)
		location := strings.TrimSpace(textProp(comp, propLicLocation))
		if tzid != "" && location != "" {
			aliases[tzid] = location
		}
	}
	return aliases
}

// resolveTZID returns the IANA name for tzid, trying the name itself, the Windows
// table and then the object's VTIMEZONE aliases.
func resolveTZID(tzid string, aliases map[string]string) (string, bool) {
	if _, err := time.LoadLocation(tzid); err == nil {
		return tzid, true
	}
	for _, candidate := range []string{windowsToIANA[tzid], aliases[tzid]} {
		if candidate == "" {
			continue
		}
		if _, err := time.LoadLocation(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// normalizeTimezones rewrites the TZIDs on comp to IANA names in place. A TZID that
// cannot be resolved is removed, so the value is read as floating time in the source
// timezone. The unresolved names are returned.
func normalizeTimezones(comp *ical.Component, aliases map[string]string) []string {
	var unresolved []string
	for _, name := range timeProps {
		props := comp.Props[name]
		for i := range props {
			tzid := props[i].Params.Get(ical.ParamTimezoneID)
			if tzid == "" {
				continue
			}
			if iana, ok := resolveTZID(tzid, aliases); ok {
				props[i].Params.Set(ical.ParamTimezoneID, iana)
				continue
			}
			props[i].Params.Del(ical.ParamTimezoneID)
			unresolved = append(unresolved, tzid)
		}
	}
	return unresolved
}
