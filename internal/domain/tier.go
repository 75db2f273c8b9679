package domain

// Tier is the permission level carried by an access token.
type Tier string

const (
	TierReadOnly   Tier = "read_only"
	TierReadWrite  Tier = "read_write"
	TierFullAccess Tier = "full_access"
)

// Tiers lists every known tier.
var Tiers = []Tier{TierReadOnly, TierReadWrite, TierFullAccess}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierReadOnly, TierReadWrite, TierFullAccess:
		return true
	}
	return false
}
