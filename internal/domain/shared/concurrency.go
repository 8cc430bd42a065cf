package shared

// CheckVersion compares the version the caller last read with the current one.
// A zero expected version skips the check (server-side callers that do not track versions).
func CheckVersion(expected, current int) error {
	if expected != 0 && expected != current {
		return ErrOptimisticLock
	}
	return nil
}
