package loan

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the loan usecases return matches one of these
// through errors.Is.
var (
	ErrNotFound   = errors.New("loan not found")
	ErrValidation = errors.New("validation failed")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("could not change status")
)

var (
	ErrInvalidStatus       = fmt.Errorf("%w: unknown loan status", ErrValidation)
	ErrInvalidCantity      = fmt.Errorf("%w: cantity must be a positive decimal", ErrValidation)
	ErrIncompleteProposal  = fmt.Errorf("%w: new_cantity and reason_change_cantity go together", ErrValidation)
	ErrNoProposal          = fmt.Errorf("%w: no proposal outstanding", ErrBadRequest)
	ErrAlreadyDisbursed    = fmt.Errorf("%w: loan already disbursed", ErrConflict)
	ErrProposalAnswered    = fmt.Errorf("%w: proposal already answered", ErrConflict)
	ErrProposalOutstanding = fmt.Errorf("%w: a renegotiation is already waiting for the borrower", ErrConflict)
	ErrStaleStatus         = fmt.Errorf("%w: loan status changed concurrently", ErrConflict)
	ErrInvalidTransition   = fmt.Errorf("%w: loan not in a state that allows this transition", ErrConflict)
	ErrPendingExists       = fmt.Errorf("%w: borrower already has a pending loan", ErrConflict)
)

// IsKnown reports whether err already belongs to the loan error taxonomy and
// can be handed to callers as is.
func IsKnown(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInternal)
}
