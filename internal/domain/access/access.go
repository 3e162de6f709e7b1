// Package access derives which rows a principal may read or act on.
package access

import (
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

type Role string

const (
	RoleVisitor   Role = "visitor"
	RoleCustomer  Role = "customer"
	RoleTherapist Role = "therapist"
	RoleAdmin     Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleVisitor, RoleCustomer, RoleTherapist, RoleAdmin:
		return r, true
	}
	return "", false
}

// Principal is the authenticated caller. TherapistProfileID is set only for
// therapists that have a profile.
type Principal struct {
	UserID             uint
	Role               Role
	TherapistProfileID *uint
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ScopeKind tags a Scope variant.
type ScopeKind int

const (
	AllRows ScopeKind = iota + 1
	OwnedByCustomer
	OwnedByTherapist
)

// Scope restricts a query to the rows a principal owns. ID is the customer
// user id or the therapist profile id, depending on Kind.
type Scope struct {
	Kind ScopeKind
	ID   uint
}

// ScopeFor maps a principal to its scope. Visitors and therapists without
// a profile have no scope at all.
func ScopeFor(p Principal) (Scope, error) {
	switch p.Role {
	case RoleAdmin:
		return Scope{Kind: AllRows}, nil
	case RoleCustomer:
		return Scope{Kind: OwnedByCustomer, ID: p.UserID}, nil
	case RoleTherapist:
		if p.TherapistProfileID == nil {
			return Scope{}, httperr.ErrBusiness(httperr.CodeUnauthorized)
		}
		return Scope{Kind: OwnedByTherapist, ID: *p.TherapistProfileID}, nil
	}
	return Scope{}, httperr.ErrBusiness(httperr.CodeUnauthorized)
}

// CanSee reports whether a row owned by customerID and handled by
// therapistID is inside the scope. Rows without a therapist pass nil.
func (s Scope) CanSee(customerID uint, therapistID *uint) bool {
	switch s.Kind {
	case AllRows:
		return true
	case OwnedByCustomer:
		return customerID == s.ID
	case OwnedByTherapist:
		return therapistID != nil && *therapistID == s.ID
	}
	return false
}

// Apply adds the scope filter to a query on a table with customer_id and
// therapist_id columns.
func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	return s.ApplyColumns(db, "customer_id", "therapist_id")
}

// ApplyColumns is Apply for joined queries where the owner columns need a
// table prefix.
func (s Scope) ApplyColumns(db *gorm.DB, customerCol, therapistCol string) *gorm.DB {
	switch s.Kind {
	case AllRows:
		return db
	case OwnedByCustomer:
		return db.Where(customerCol+" = ?", s.ID)
	case OwnedByTherapist:
		return db.Where(therapistCol+" = ?", s.ID)
	}
	return db.Where("1 = 0")
}

// CanActOn reports whether p may cancel or reschedule an appointment of
// customerID assigned to therapistID.
func CanActOn(p Principal, customerID, therapistID uint) bool {
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleCustomer:
		return p.UserID == customerID
	case RoleTherapist:
		return p.TherapistProfileID != nil && *p.TherapistProfileID == therapistID
	}
	return false
}

// CanOperate reports whether p may complete or mark a no-show: only the
// assigned therapist or an admin.
func CanOperate(p Principal, therapistID uint) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == RoleTherapist &&
		p.TherapistProfileID != nil &&
		*p.TherapistProfileID == therapistID
}
