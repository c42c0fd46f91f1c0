package compat

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spin-match/spin-match/internal/domain/participant"
	"github.com/spin-match/spin-match/internal/domain/queue"
)

func testParticipant(age int, gender participant.Gender, prefs participant.Preferences) *participant.Participant {
	return &participant.Participant{
		ID:          uuid.New(),
		Age:         age,
		Gender:      gender,
		Preferences: prefs,
	}
}

func TestMutualExactTier(t *testing.T) {
	a := testParticipant(30, participant.GenderMale, participant.Preferences{
		MinAge: 25, MaxAge: 35, MaxDistanceKm: 50, Gender: participant.GenderFemale,
	})
	b := testParticipant(28, participant.GenderFemale, participant.Preferences{
		MinAge: 28, MaxAge: 40, MaxDistanceKm: 50, Gender: participant.GenderMale,
	})

	assert.True(t, Mutual(a, b, queue.TierExact, queue.TierExact))

	// b's minimum age excludes a once a is younger
	a.Age = 26
	assert.False(t, Mutual(a, b, queue.TierExact, queue.TierExact))
}

func TestTierWideningAdmitsBorderlineAge(t *testing.T) {
	a := testParticipant(30, participant.GenderMale, participant.Preferences{
		MinAge: 25, MaxAge: 35, MaxDistanceKm: 50, Gender: participant.GenderFemale,
	})
	b := testParticipant(37, participant.GenderFemale, participant.Preferences{
		MinAge: 20, MaxAge: 40, MaxDistanceKm: 50, Gender: participant.GenderMale,
	})

	// 37 is outside a's 25-35 at tier 0, inside at tier 1 (+2y)
	assert.False(t, Mutual(a, b, queue.TierExact, queue.TierExact))
	assert.True(t, Mutual(a, b, queue.TierNear, queue.TierExact))
}

func TestTierAnyCompatibleIsGenderOnly(t *testing.T) {
	a := testParticipant(30, participant.GenderMale, participant.Preferences{
		MinAge: 29, MaxAge: 31, MaxDistanceKm: 1, Gender: participant.GenderFemale,
	})
	b := testParticipant(60, participant.GenderFemale, participant.Preferences{
		MinAge: 59, MaxAge: 61, MaxDistanceKm: 1, Gender: participant.GenderMale,
	})
	b.Lat, b.Lon = 10, 10 // far away

	assert.False(t, Mutual(a, b, queue.TierWide, queue.TierWide))
	assert.True(t, Mutual(a, b, queue.TierAnyCompatible, queue.TierAnyCompatible))
}

func TestGenderPreferenceIsNeverWidened(t *testing.T) {
	a := testParticipant(30, participant.GenderMale, participant.Preferences{
		MinAge: 18, MaxAge: 99, MaxDistanceKm: 1000, Gender: participant.GenderFemale,
	})
	b := testParticipant(30, participant.GenderMale, participant.Preferences{
		MinAge: 18, MaxAge: 99, MaxDistanceKm: 1000, Gender: participant.GenderFemale,
	})
	assert.False(t, Mutual(a, b, queue.TierAnyCompatible, queue.TierAnyCompatible))
}

func TestRuleMatch(t *testing.T) {
	a := testParticipant(30, participant.GenderMale, participant.Preferences{})
	b := testParticipant(45, participant.GenderFemale, participant.Preferences{})

	rule, err := NewRule("abs(a_age - b_age) <= 20")
	require.NoError(t, err)
	ok, err := rule.Match(a, b)
	require.NoError(t, err)
	assert.True(t, ok)

	b.Age = 55
	ok, err = rule.Match(a, b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRuleEmptyMatchesAll(t *testing.T) {
	rule, err := NewRule("  ")
	require.NoError(t, err)
	ok, err := rule.Match(testParticipant(20, participant.GenderMale, participant.Preferences{}),
		testParticipant(80, participant.GenderFemale, participant.Preferences{}))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRuleRejectsNonBoolean(t *testing.T) {
	rule, err := NewRule("a_age + b_age")
	require.NoError(t, err)
	ok, err := rule.Match(testParticipant(20, participant.GenderMale, participant.Preferences{}),
		testParticipant(30, participant.GenderFemale, participant.Preferences{}))
	require.Error(t, err)
	assert.False(t, ok)
}
