package caldav

import (
	"fmt"
	"sort"
	"time"

	"calsync/core/reconcile"

	"github.com/teambition/rrule-go"
)

const defaultMaxOccurrences = 1000

// occurrenceUID identifies one occurrence of a recurring series. The original start
// (the RECURRENCE-ID) is used so that moving an occurrence keeps its identity.
func occurrenceUID(uid string, originalStart time.Time) string {
	return fmt.Sprintf("%s/%s", uid, originalStart.UTC().Format("20060102T150405Z"))
}

// expansion collects the output of expand.
type expansion struct {
	events []reconcile.CalendarEvent
	// truncated lists series uids that hit the occurrence cap.
	truncated []string
}

// expand turns decoded VEVENTs into concrete events overlapping window.
// Series are expanded from RRULE and RDATE with their EXDATEs removed and RECURRENCE-ID overrides applied.
func expand(vevents []vevent, window reconcile.Window, maxOccurrences int, source string) (expansion, error) {
	if maxOccurrences <= 0 {
		maxOccurrences = defaultMaxOccurrences
	}

	var out expansion

	// Group overrides by series uid
	overrides := make(map[string][]vevent)
	var bases []vevent
	for _, ev := range vevents {
		if ev.recurrenceID != nil {
			overrides[ev.uid] = append(overrides[ev.uid], ev)
			continue
		}
		bases = append(bases, ev)
	}

	seriesUIDs := make(map[string]struct{})
	for _, base := range bases {
		if base.rrule == "" && len(base.rDates) == 0 {
			if window.Overlaps(base.start, base.end) {
				out.events = append(out.events, toEvent(base, base.uid, source))
			}
			continue
		}

		seriesUIDs[base.uid] = struct{}{}
		events, truncated, err := expandSeries(base, overrides[base.uid], window, maxOccurrences, source)
		if err != nil {
			return out, err
		}
		out.events = append(out.events, events...)
		if truncated {
			out.truncated = append(out.truncated, base.uid)
		}
	}

	// Overrides whose series master was not returned stand on their own
	for uid, ovs := range overrides {
		if _, ok := seriesUIDs[uid]; ok {
			continue
		}
		for _, ov := range ovs {
			if window.Overlaps(ov.start, ov.end) {
				out.events = append(out.events, toEvent(ov, occurrenceUID(uid, *ov.recurrenceID), source))
			}
		}
	}

	sort.SliceStable(out.events, func(i, j int) bool {
		if !out.events[i].Start.Equal(out.events[j].Start) {
			return out.events[i].Start.Before(out.events[j].Start)
		}
		return out.events[i].UID < out.events[j].UID
	})

	return out, nil
}

func expandSeries(base vevent, overrides []vevent, window reconcile.Window, maxOccurrences int, source string) ([]reconcile.CalendarEvent, bool, error) {
	var set rrule.Set
	set.DTStart(base.start)
	if base.rrule != "" {
		rule, err := rrule.StrToRRule(base.rrule)
		if err != nil {
			return nil, false, fmt.Errorf("event %q RRULE %q: %w", base.uid, base.rrule, err)
		}
		rule.DTStart(base.start)
		set.RRule(rule)
	} else {
		// Without RRULE the first instance is DTSTART itself
		set.RDate(base.start)
	}
	for _, rd := range base.rDates {
		set.RDate(rd)
	}
	for _, ex := range base.exDates {
		set.ExDate(ex)
	}

	duration := base.end.Sub(base.start)

	// Widen the lower bound so occurrences that started earlier but still run are kept
	starts := set.Between(window.Start.Add(-duration), window.End, true)

	truncated := false
	if len(starts) > maxOccurrences {
		starts = starts[:maxOccurrences]
		truncated = true
	}

	byOriginal := make(map[int64]vevent, len(overrides))
	for _, ov := range overrides {
		byOriginal[ov.recurrenceID.Unix()] = ov
	}

	var events []reconcile.CalendarEvent
	used := make(map[int64]struct{})
	for _, original := range starts {
		occ := base
		occ.start = original
		occ.end = original.Add(duration)

		if ov, ok := byOriginal[original.Unix()]; ok {
			occ = ov
			used[original.Unix()] = struct{}{}
		}

		if !window.Overlaps(occ.start, occ.end) {
			continue
		}
		events = append(events, toEvent(occ, occurrenceUID(base.uid, original), source))
	}

	// Overrides moved into the window from an original slot outside of it
	for key, ov := range byOriginal {
		if _, ok := used[key]; ok {
			continue
		}
		if excluded(base.exDates, *ov.recurrenceID) {
			continue
		}
		if window.Overlaps(ov.start, ov.end) {
			events = append(events, toEvent(ov, occurrenceUID(base.uid, *ov.recurrenceID), source))
		}
	}

	return events, truncated, nil
}

func excluded(exDates []time.Time, t time.Time) bool {
	for _, ex := range exDates {
		if ex.Equal(t) {
			return true
		}
	}
	return false
}

func toEvent(ev vevent, uid, source string) reconcile.CalendarEvent {
	return reconcile.CalendarEvent{
		UID:          uid,
		Summary:      ev.summary,
		Description:  ev.description,
		Location:     ev.location,
		Start:        ev.start.UTC(),
		End:          ev.end.UTC(),
		AllDay:       ev.allDay,
		LastModified: ev.lastModified,
		Status:       ev.status,
		Source:       source,
	}
}
