package models

import "time"

type LinkState string

const (
	StateUnlinked LinkState = "UNLINKED"
	StateLinked   LinkState = "LINKED"
)

// LinkRecord is one issued link code. Records are keyed by Code; CallerID is
// set exactly when State is StateLinked.
type LinkRecord struct {
	Code           string     `json:"code"`
	GameAccountID  string     `json:"game_account_id"`
	HardwareID     string     `json:"hardware_id"`
	NetworkAddress string     `json:"network_address"`
	CallerID       string     `json:"caller_id,omitempty"`
	State          LinkState  `json:"state"`
	CreatedAt      time.Time  `json:"created_at"`
	LinkedAt       *time.Time `json:"linked_at,omitempty"`
}

type Role int

const (
	RoleAnonymous Role = iota
	RoleLinked
	RoleSupport
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleSupport:
		return "support"
	case RoleLinked:
		return "linked"
	default:
		return "anonymous"
	}
}

func (r Role) AtLeast(required Role) bool {
	return r >= required
}
