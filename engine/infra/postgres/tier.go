package postgres

import "fmt"

// Tier selects one of the three proxy-facing connection sources.
type Tier int

const (
	// TierAdmin is an unpooled source for DDL, using the dba role.
	TierAdmin Tier = iota
	// TierSession targets the proxy in session mode.
	TierSession
	// TierTransaction targets the proxy in transaction mode.
	TierTransaction
)

const tierCount = 3

// Tiers lists every tier in declaration order.
var Tiers = []Tier{TierAdmin, TierSession, TierTransaction}

func (t Tier) String() string {
	switch t {
	case TierAdmin:
		return "admin"
	case TierSession:
		return "session"
	case TierTransaction:
		return "transaction"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

func (t Tier) valid() bool {
	return t >= TierAdmin && t <= TierTransaction
}

// Pooled reports whether the tier keeps a bounded pool.
func (t Tier) Pooled() bool {
	return t != TierAdmin
}

// Role is the database role a tier authenticates as.
func (t Tier) Role() Role {
	if t == TierAdmin {
		return RoleDBA
	}
	return RoleApp
}

func (t Tier) poolPrefix() string {
	switch t {
	case TierSession:
		return "postgres-session-pool-"
	case TierTransaction:
		return "postgres-transaction-pool-"
	default:
		return "postgres-admin-"
	}
}

func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

type Role string

const (
	RoleApp Role = "app"
	RoleDBA Role = "dba"
)
