package actions

import (
	"github.com/sgerhart/aegisrange/internal/catalog"
	"github.com/sgerhart/aegisrange/internal/model"
)

// Effective reports whether a remediation action neutralizes an event. An
// action is effective when it appears in the event's own remediation set, or
// when the generic fallback table lists the event's type as susceptible to it
// (blocking an IP works against network-adjacent types even when the catalog
// does not spell it out).
func Effective(ev *model.Event, action model.ActionTag) bool {
	for _, tag := range ev.Remediation {
		if tag == action {
			return true
		}
	}
	for _, typ := range catalog.FallbackActions[action] {
		if typ == ev.Type {
			return true
		}
	}
	return false
}
