package hotswap

// cloneListeners copies a listener table. Listener funcs are shared by
// reference; only the map and slices are fresh, so mutating the copy's
// registration sets never touches the original.
func cloneListeners(in map[string][]Listener) map[string][]Listener {
	if in == nil {
		return nil
	}
	out := make(map[string][]Listener, len(in))
	for event, fns := range in {
		out[event] = append([]Listener(nil), fns...)
	}
	return out
}

// mergeProps overlays overrides onto base into a fresh map. Values are
// copied shallowly; deep isolation is the snapshot codec's job.
func mergeProps(base, overrides map[string]any) map[string]any {
	if base == nil && overrides == nil {
		return nil
	}
	out := make(map[string]any, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// copyStatics copies a statics table into a fresh map.
func copyStatics(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
