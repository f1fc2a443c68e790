package tracker

import "github.com/roach88/slipway/internal/model"

// ResourceChanges is the ordered set of changes pending in one resource.
type ResourceChanges struct {
	ResourceID string
	Changes    []model.ChangedOrigin
}

// GroupByResource groups changes by resource id, preserving the first-seen
// order of resources and the input order of changes within each resource.
// Pure function; the input slice is not modified.
func GroupByResource(changes []model.ChangedOrigin) []ResourceChanges {
	index := make(map[string]int, len(changes))
	var groups []ResourceChanges
	for _, c := range changes {
		i, ok := index[c.ResourceID]
		if !ok {
			i = len(groups)
			index[c.ResourceID] = i
			groups = append(groups, ResourceChanges{ResourceID: c.ResourceID})
		}
		groups[i].Changes = append(groups[i].Changes, c)
	}
	return groups
}
