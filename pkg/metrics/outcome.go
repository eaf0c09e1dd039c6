package metrics

// ValidOutcome reports whether outcome is one of the Fetch* labels.
func ValidOutcome(outcome string) bool {
	switch outcome {
	case FetchHit, FetchMiss, FetchError, FetchStatus:
		return true
	}
	return false
}
