package waitlist

// Next selects the entry a release should promote: the waiting entry with
// the smallest position. Pure selection rule; capacity bookkeeping and the
// booking transition belong to the allocation engine.
func Next(entries []*Entry) (*Entry, bool) {
	var best *Entry
	for _, e := range entries {
		if e.Status != StatusWaiting {
			continue
		}
		if best == nil || e.Position < best.Position {
			best = e
		}
	}
	return best, best != nil
}
