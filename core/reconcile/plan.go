package reconcile

import (
	"fmt"
	"sort"
	"strings"
)

// BuildPlan computes the actions that make the destination mirror events.
// It performs no I/O. links come from Destination.ListLinks for the same window, plus any
// out-of-window copies of fetched uids found through LinkResolver. Only linked uids that
// are absent from events are deleted, so resolved links never produce deletes of their own.
//
// Events are processed in the order given. When a uid repeats, the last event wins
// and keeps the position of the first occurrence, so every uid yields at most one action.
func BuildPlan(events []CalendarEvent, links Links, opts PlanOptions) *Plan {
	plan := &Plan{Actions: []Action{}}

	// 1. Collapse duplicate uids, remembering first-seen order
	order := make([]string, 0, len(events))
	latest := make(map[string]CalendarEvent, len(events))
	for _, event := range events {
		plan.Summary.Processed++
		uid := strings.TrimSpace(event.UID)
		if uid == "" {
			plan.Rejected = append(plan.Rejected, fmt.Sprintf("event %q has no uid", event.Summary))
			continue
		}
		if _, seen := latest[uid]; seen {
			plan.Summary.DuplicateUIDs++
		} else {
			order = append(order, uid)
		}
		event.UID = uid
		latest[uid] = event
	}

	// 2. Create or update every fetched uid
	for _, uid := range order {
		event := latest[uid]
		link, linked := links[uid]
		if !linked {
			plan.Actions = append(plan.Actions, Action{
				Type:      ActionCreate,
				SourceUID: uid,
				Reason:    "not linked on destination",
				Event:     &event,
			})
			plan.Summary.Creates++
			continue
		}

		if opts.SkipUnchanged && link.ContentHash != "" && link.ContentHash == event.ContentHash() {
			plan.Actions = append(plan.Actions, Action{
				Type:          ActionSkip,
				SourceUID:     uid,
				DestinationID: link.DestinationID,
				Reason:        "content unchanged",
				Event:         &event,
			})
			plan.Summary.Unchanged++
			continue
		}

		plan.Actions = append(plan.Actions, Action{
			Type:          ActionUpdate,
			SourceUID:     uid,
			DestinationID: link.DestinationID,
			Reason:        "linked on destination",
			Event:         &event,
		})
		plan.Summary.Updates++
	}

	// 3. Delete linked uids missing from this fetch, sorted for stable output
	linkedUIDs := make([]string, 0, len(links))
	for uid := range links {
		linkedUIDs = append(linkedUIDs, uid)
	}
	sort.Strings(linkedUIDs)

	for _, uid := range linkedUIDs {
		link := links[uid]
		if _, fetched := latest[uid]; !fetched {
			plan.Actions = append(plan.Actions, Action{
				Type:          ActionDelete,
				SourceUID:     uid,
				DestinationID: link.DestinationID,
				Reason:        "no longer present on source",
			})
			plan.Summary.Deletes++
		}

		// 4. Extra carriers of one uid are always removed
		duplicates := append([]string(nil), link.Duplicates...)
		sort.Strings(duplicates)
		for _, id := range duplicates {
			if id == "" || id == link.DestinationID {
				continue
			}
			plan.Actions = append(plan.Actions, Action{
				Type:          ActionDelete,
				SourceUID:     uid,
				DestinationID: id,
				Reason:        "duplicate carrier of linked uid",
			})
			plan.Summary.Deletes++
		}
	}

	return plan
}

// Mutations returns the number of actions that call a mutating adapter method.
func (p *Plan) Mutations() int {
	return countMutations(p.Actions)
}

// HasDeletes reports whether the plan removes any destination event.
func (p *Plan) HasDeletes() bool {
	return p.Summary.Deletes > 0
}
