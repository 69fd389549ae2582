// AngelaMos | 2026
// limit.go

package entitlement

// CalculateLimit computes the limit state for one feature. A nil max means
// unlimited and yields nil: callers must not fabricate a zero-max entry.
// Remaining is clamped at zero so an over-limit counter (possible when a
// race landed before the conditional increment existed) never reports a
// negative balance.
func CalculateLimit(max *int64, used int64) *LimitInfo {
	if max == nil {
		return nil
	}

	remaining := *max - used
	if remaining < 0 {
		remaining = 0
	}

	return &LimitInfo{
		Max:       *max,
		Used:      used,
		Remaining: remaining,
		Exceeded:  used >= *max,
	}
}
