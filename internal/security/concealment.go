package security

import (
	"errors"
	"fmt"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// Denial says how a route reports a policy denial
type Denial int

const (
	// ConcealExistence reports a denial exactly like a missing gym so a caller
	// cannot tell which gym ids exist.
	ConcealExistence Denial = iota
	// ExplicitForbidden reports a denial as forbidden. Missing gyms are still
	// not found.
	ExplicitForbidden
)

func (d Denial) String() string {
	if d == ExplicitForbidden {
		return "explicit_forbidden"
	}
	return "conceal_existence"
}

// Conceal maps an authorization denial to not found. Other errors pass
// through unchanged.
func Conceal(err error) error {
	if errors.Is(err, domain.ErrAuthorizationDenied) {
		return errGymNotFound
	}
	return err
}

// errGymNotFound is the single error a caller sees for both a missing gym and
// a gym it may not see.
var errGymNotFound = fmt.Errorf("gym: %w", domain.ErrNotFound)

var errNotStaff = fmt.Errorf("staff route: %w", domain.ErrNotFound)
