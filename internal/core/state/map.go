package state

// Map is a store over loosely typed records, where a patch is itself a
// record whose keys override the held ones.
type Map = Store[map[string]any, map[string]any]

// NewMap creates an empty Map store.
func NewMap() *Map {
	return New[map[string]any, map[string]any](MergeMap)
}

// MergeMap returns a new map holding every key of held, overridden by every
// key of patch. Neither argument is modified.
func MergeMap(held, patch map[string]any) map[string]any {
	out := make(map[string]any, len(held)+len(patch))
	for k, v := range held {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
