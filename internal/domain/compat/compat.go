package compat

import (
	"github.com/spin-match/spin-match/internal/domain/participant"
	"github.com/spin-match/spin-match/internal/domain/queue"
)

// genderMatch reports whether b satisfies a's gender preference.
func genderMatch(a, b *participant.Participant) bool {
	if a.Preferences.Gender == participant.GenderPrefAny {
		return true
	}
	return b.Gender == a.Preferences.Gender
}

// satisfies reports whether candidate b meets a's preferences widened to
// a's current expansion tier. At TierAnyCompatible only gender is checked.
func satisfies(a, b *participant.Participant, tier queue.Tier) bool {
	if !genderMatch(a, b) {
		return false
	}
	if tier >= queue.TierAnyCompatible {
		return true
	}
	ageWiden, radiusWiden := tier.Widen()
	minAge := a.Preferences.MinAge - ageWiden
	maxAge := a.Preferences.MaxAge + ageWiden
	if b.Age < minAge || b.Age > maxAge {
		return false
	}
	maxDist := float64(a.Preferences.MaxDistanceKm + radiusWiden)
	return participant.DistanceKm(a, b) <= maxDist
}

// Mutual reports whether a and b are compatible with each other, each side
// judged at its own expansion tier.
func Mutual(a, b *participant.Participant, tierA, tierB queue.Tier) bool {
	return satisfies(a, b, tierA) && satisfies(b, a, tierB)
}
