package sessiongate

import "time"

// Lockout policy constants. The threshold and window are fixed, not
// configuration; every deployment enforces the same policy.
const (
	// LockoutThreshold is the number of consecutive failures that trips a lock.
	LockoutThreshold = 6
	// LockoutWindow is how long a tripped lock rejects every attempt.
	LockoutWindow = time.Minute
)

// LockoutOutcome classifies the result of a password attempt against the
// lockout state machine.
type LockoutOutcome int

const (
	// LockoutCleared means verification succeeded; both counter and lock
	// timestamp are wiped.
	LockoutCleared LockoutOutcome = iota
	// LockoutCounted means verification failed and the counter advanced
	// without reaching the threshold.
	LockoutCounted
	// LockoutTripped means this failure reached the threshold; the counter
	// resets and the lock timestamp is set to the failure instant.
	LockoutTripped
)

// LockoutDecision is the state an email record should be written with after a
// password attempt.
type LockoutDecision struct {
	Outcome       LockoutOutcome
	FailedLogins  int
	AccountLocked *time.Time
}

// LockActive reports whether a lock timestamp still rejects attempts at the
// given instant. An expired lock is observably equivalent to no lock; the
// stale timestamp stays on the record until the next write.
func LockActive(lockedAt *time.Time, now time.Time) bool {
	if lockedAt == nil {
		return false
	}
	return now.Sub(*lockedAt) < LockoutWindow
}

// ResolveAttempt computes the next lockout state for an attempt that was
// allowed to reach password verification, i.e. the lock was absent or
// expired. A failure after an expired lock restarts the counter at 1 rather
// than continuing the pre-lock count. Pure: the caller owns the write.
func ResolveAttempt(failedLogins int, lockedAt *time.Time, now time.Time, verified bool) LockoutDecision {
	if verified {
		return LockoutDecision{Outcome: LockoutCleared}
	}

	prior := failedLogins
	if lockedAt != nil && !LockActive(lockedAt, now) {
		prior = 0
	}

	next := prior + 1
	if next >= LockoutThreshold {
		lockedNow := now
		return LockoutDecision{
			Outcome:       LockoutTripped,
			FailedLogins:  0,
			AccountLocked: &lockedNow,
		}
	}

	return LockoutDecision{
		Outcome:      LockoutCounted,
		FailedLogins: next,
	}
}
