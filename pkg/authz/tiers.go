package authz

import "fmt"

// Tier represents a subscription tier
type Tier string

const (
	TierCancelled Tier = "cancelled"
	TierTrial     Tier = "trial"
	TierLevel1    Tier = "level_1"
	TierLevel2    Tier = "level_2"
)

// tierRank defines the total order over tiers. Higher tiers subsume lower
// ones; cancelled subscriptions satisfy nothing, not even other cancelled
// requirements.
var tierRank = map[Tier]int{
	TierCancelled: 0,
	TierTrial:     1,
	TierLevel1:    2,
	TierLevel2:    3,
}

// Valid reports whether the tier is one of the known tiers.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Satisfies reports whether this tier meets the required tier. A cancelled
// subscription satisfies nothing; unknown tiers on either side never satisfy.
func (t Tier) Satisfies(required Tier) bool {
	if t == TierCancelled {
		return false
	}
	have, ok := tierRank[t]
	if !ok {
		return false
	}
	want, ok := tierRank[required]
	if !ok {
		return false
	}
	return have >= want
}

// ParseTier converts a stored or claimed string into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tier: %q", s)
	}
	return t, nil
}

// Tiers returns all tiers in ascending order.
func Tiers() []Tier {
	return []Tier{TierCancelled, TierTrial, TierLevel1, TierLevel2}
}
