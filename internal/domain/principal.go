package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal is the externally authenticated caller. Name and Email act as a
// fallback attendee profile when an RSVP request omits them.
type Principal struct {
	UserID string
	Role   Role
	Name   string
	Email  string
}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Capability decides whether a principal may act on a resource owned by
// ownerUserID.
type Capability interface {
	Permits(p Principal, ownerUserID string) bool
}

type adminCapability struct{}

func (adminCapability) Permits(p Principal, _ string) bool {
	return p.Authenticated() && p.IsAdmin()
}

type ownerCapability struct{}

func (ownerCapability) Permits(p Principal, ownerUserID string) bool {
	return p.Authenticated() && ownerUserID != "" && p.UserID == ownerUserID
}

// AnyOf permits when at least one member does.
type AnyOf []Capability

func (a AnyOf) Permits(p Principal, ownerUserID string) bool {
	for _, c := range a {
		if c.Permits(p, ownerUserID) {
			return true
		}
	}
	return false
}

var (
	Admin Capability = adminCapability{}
	Owner Capability = ownerCapability{}
	// OwnerOrAdmin guards every RSVP mutation.
	OwnerOrAdmin Capability = AnyOf{Admin, Owner}
)

// Authorize returns ErrAccessDenied unless c permits p on the resource.
func Authorize(c Capability, p Principal, ownerUserID string) error {
	if !c.Permits(p, ownerUserID) {
		return ErrAccessDenied
	}
	return nil
}
