package caldav

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

// vevent is one VEVENT component decoded from a calendar object.
type vevent struct {
	uid          string
	summary      string
	description  string
	location     string
	status       string
	start        time.Time
	end          time.Time
	allDay       bool
	lastModified time.Time

	rrule   string
	rDates  []time.Time
	exDates []time.Time

	// recurrenceID is set on overrides of a single occurrence.
	recurrenceID *time.Time
}

// parseObject decodes every VEVENT of obj. Objects without a UID fall back to the object path
// so that a stable identity still exists across runs. The TZIDs that could not be resolved,
// and were read in loc instead, are returned alongside the events.
func parseObject(obj caldav.CalendarObject, loc *time.Location) ([]vevent, []string, error) {
	if obj.Data == nil {
		return nil, nil, fmt.Errorf("object %s has no calendar data", obj.Path)
	}

	aliases := zoneAliases(obj.Data)

	var events []vevent
	var unresolved []string
	for _, comp := range obj.Data.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		unresolved = append(unresolved, normalizeTimezones(comp, aliases)...)

		ev, err := parseEvent(comp, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("object %s: %w", obj.Path, err)
		}
		if ev.uid == "" {
			ev.uid = obj.Path
		}
		events = append(events, ev)
	}
	return events, unresolved, nil
}

func parseEvent(comp *ical.Component, loc *time.Location) (vevent, error) {
	ev := vevent{
		uid:         strings.TrimSpace(textProp(comp, ical.PropUID)),
		summary:     textProp(comp, ical.PropSummary),
		description: textProp(comp, ical.PropDescription),
		location:    textProp(comp, ical.PropLocation),
		status:      strings.ToUpper(textProp(comp, ical.PropStatus)),
	}

	// 1. Start
	dtstart := comp.Props.Get(ical.PropDateTimeStart)
	if dtstart == nil {
		return ev, fmt.Errorf("event %q has no DTSTART", ev.uid)
	}
	ev.allDay = isDate(dtstart)
	start, err := parseTime(dtstart, ev.allDay, loc)
	if err != nil {
		return ev, fmt.Errorf("event %q DTSTART: %w", ev.uid, err)
	}
	ev.start = start

	// 2. End from DTEND, DURATION or the RFC 5545 defaults
	switch {
	case comp.Props.Get(ical.PropDateTimeEnd) != nil:
		dtend := comp.Props.Get(ical.PropDateTimeEnd)
		end, err := parseTime(dtend, ev.allDay, loc)
		if err != nil {
			return ev, fmt.Errorf("event %q DTEND: %w", ev.uid, err)
		}
		ev.end = end
	case comp.Props.Get(ical.PropDuration) != nil:
		d, err := comp.Props.Get(ical.PropDuration).Duration()
		if err != nil {
			return ev, fmt.Errorf("event %q DURATION: %w", ev.uid, err)
		}
		ev.end = ev.start.Add(d)
	case ev.allDay:
		ev.end = ev.start.AddDate(0, 0, 1)
	default:
		ev.end = ev.start
	}
	if ev.end.Before(ev.start) {
		ev.end = ev.start
	}

	// 3. Recurrence
	if rule := comp.Props.Get(ical.PropRecurrenceRule); rule != nil {
		ev.rrule = rule.Value
	}
	for _, prop := range comp.Props.Values(ical.PropRecurrenceDates) {
		dates, err := parseTimeList(prop, ev.allDay, loc)
		if err != nil {
			return ev, fmt.Errorf("event %q RDATE: %w", ev.uid, err)
		}
		ev.rDates = append(ev.rDates, dates...)
	}
	for _, prop := range comp.Props.Values(ical.PropExceptionDates) {
		dates, err := parseTimeList(prop, ev.allDay, loc)
		if err != nil {
			return ev, fmt.Errorf("event %q EXDATE: %w", ev.uid, err)
		}
		ev.exDates = append(ev.exDates, dates...)
	}
	if rid := comp.Props.Get(ical.PropRecurrenceID); rid != nil {
		t, err := parseTime(rid, isDate(rid), loc)
		if err != nil {
			return ev, fmt.Errorf("event %q RECURRENCE-ID: %w", ev.uid, err)
		}
		ev.recurrenceID = &t
	}

	if lm := comp.Props.Get(ical.PropLastModified); lm != nil {
		if t, err := lm.DateTime(time.UTC); err == nil {
			ev.lastModified = t.UTC()
		}
	}

	return ev, nil
}

// isDate reports whether prop holds a DATE rather than a DATE-TIME.
func isDate(prop *ical.Prop) bool {
	if prop.ValueType() == ical.ValueDate {
		return true
	}
	return len(prop.Value) == len("20060102")
}

// parseTime returns the instant of prop in its own zone, which recurrence expansion needs
// to follow DST. Dates are pinned to midnight UTC so the calendar day survives
// normalization; floating times are read in loc.
func parseTime(prop *ical.Prop, date bool, loc *time.Location) (time.Time, error) {
	if date {
		value := strings.TrimSpace(prop.Value)
		if len(value) > len("20060102") {
			value = value[:len("20060102")]
		}
		return time.Parse("20060102", value)
	}
	return prop.DateTime(loc)
}

// parseTimeList splits comma separated EXDATE/RDATE values. A PERIOD value contributes its start.
func parseTimeList(prop ical.Prop, date bool, loc *time.Location) ([]time.Time, error) {
	params := prop.Params
	if ical.ValueType(params.Get(ical.ParamValue)) == ical.ValuePeriod {
		params = make(ical.Params, len(prop.Params))
		for k, v := range prop.Params {
			if k != ical.ParamValue {
				params[k] = v
			}
		}
	}

	var out []time.Time
	for _, value := range strings.Split(prop.Value, ",") {
		value, _, _ = strings.Cut(strings.TrimSpace(value), "/")
		if value == "" {
			continue
		}
		single := ical.Prop{Name: prop.Name, Params: params, Value: value}
		t, err := parseTime(&single, date || len(value) == len("20060102"), loc)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func textProp(comp *ical.Component, name string) string {
	prop := comp.Props.Get(name)
	if prop == nil {
		return ""
	}
	if text, err := prop.Text(); err == nil {
		return text
	}
	return prop.Value
}
