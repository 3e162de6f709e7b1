package access

import (
	"testing"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

func uintPtr(v uint) *uint { return &v }

func TestScopeFor(t *testing.T) {
	tests := []struct {
		name    string
		p       Principal
		want    Scope
		wantErr bool
	}{
		{"admin", Principal{UserID: 1, Role: RoleAdmin}, Scope{Kind: AllRows}, false},
		{"customer", Principal{UserID: 7, Role: RoleCustomer}, Scope{Kind: OwnedByCustomer, ID: 7}, false},
		{"therapist", Principal{UserID: 3, Role: RoleTherapist, TherapistProfileID: uintPtr(11)}, Scope{Kind: OwnedByTherapist, ID: 11}, false},
		{"therapist without profile", Principal{UserID: 3, Role: RoleTherapist}, Scope{}, true},
		{"visitor", Principal{UserID: 9, Role: RoleVisitor}, Scope{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScopeFor(tt.p)
			if tt.wantErr {
				if !httperr.IsBusiness(err, httperr.CodeUnauthorized) {
					t.Fatalf("expected unauthorized, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScopeCanSee(t *testing.T) {
	customer := Scope{Kind: OwnedByCustomer, ID: 7}
	if !customer.CanSee(7, uintPtr(2)) || customer.CanSee(8, uintPtr(2)) {
		t.Fatal("customer scope must match on customer id only")
	}

	therapist := Scope{Kind: OwnedByTherapist, ID: 2}
	if !therapist.CanSee(99, uintPtr(2)) {
		t.Fatal("therapist should see own rows")
	}
	if therapist.CanSee(99, nil) || therapist.CanSee(99, uintPtr(3)) {
		t.Fatal("therapist must not see other rows")
	}

	if !(Scope{Kind: AllRows}).CanSee(1, nil) {
		t.Fatal("admin sees everything")
	}
	if (Scope{}).CanSee(1, nil) {
		t.Fatal("zero scope sees nothing")
	}
}

func TestCanActOn(t *testing.T) {
	owner := Principal{UserID: 7, Role: RoleCustomer}
	other := Principal{UserID: 8, Role: RoleCustomer}
	therapist := Principal{UserID: 3, Role: RoleTherapist, TherapistProfileID: uintPtr(2)}
	visitor := Principal{UserID: 9, Role: RoleVisitor}

	if !CanActOn(owner, 7, 2) || CanActOn(other, 7, 2) {
		t.Fatal("only the owner customer may act")
	}
	if !CanActOn(therapist, 7, 2) || CanActOn(therapist, 7, 5) {
		t.Fatal("only the assigned therapist may act")
	}
	if CanActOn(visitor, 7, 2) {
		t.Fatal("visitor may not act")
	}
	if CanOperate(owner, 2) || !CanOperate(therapist, 2) {
		t.Fatal("complete/no-show is for the assigned therapist")
	}
}
