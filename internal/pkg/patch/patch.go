package patch

// Coalesce dereferences override when set, otherwise returns fallback.
func Coalesce[T any](override *T, fallback T) T {
	if override != nil {
		return *override
	}
	return fallback
}
