package participant

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// State represents a participant's lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateWaiting   State = "waiting"
	StatePaired    State = "paired"
	StateVoting    State = "voting"
	StateInSession State = "in_session"
)

// Gender represents a participant's declared gender.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// GenderPrefAny matches any gender.
const GenderPrefAny Gender = "any"

// Preferences are a participant's declared search preferences.
type Preferences struct {
	MinAge        int    `json:"minAge"`
	MaxAge        int    `json:"maxAge"`
	MaxDistanceKm int    `json:"maxDistanceKm"`
	Gender        Gender `json:"gender"`
}

// Participant is the core's view of a user: stable identity plus the
// attributes matching needs. Profile ownership lives with collaborators;
// this record is refreshed on every availability request.
type Participant struct {
	ID            uuid.UUID   `json:"id"`
	DisplayName   string      `json:"displayName"`
	Age           int         `json:"age"`
	Gender        Gender      `json:"gender"`
	Lat           float64     `json:"lat"`
	Lon           float64     `json:"lon"`
	Preferences   Preferences `json:"preferences"`
	State         State       `json:"state"`
	LastSeenAt    time.Time   `json:"lastSeenAt"`
	CooldownUntil *time.Time  `json:"cooldownUntil,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Summary is the minimal partner view exposed to the other side of a pairing.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Age         int       `json:"age"`
	Gender      Gender    `json:"gender"`
}

func (p *Participant) Summary() Summary {
	return Summary{ID: p.ID, DisplayName: p.DisplayName, Age: p.Age, Gender: p.Gender}
}

// OnCooldown reports whether the participant is still in the post-disconnect
// cooldown window.
func (p *Participant) OnCooldown(now time.Time) bool {
	return p.CooldownUntil != nil && now.Before(*p.CooldownUntil)
}

func ValidState(s State) bool {
	switch s {
	case StateIdle, StateWaiting, StatePaired, StateVoting, StateInSession:
		return true
	}
	return false
}

func ValidGender(g Gender) bool {
	return g == GenderMale || g == GenderFemale
}

// DistanceKm returns the great-circle distance between two participants.
func DistanceKm(a, b *Participant) float64 {
	const earthRadiusKm = 6371.0
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
