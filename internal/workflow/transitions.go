package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/ticket-manager/internal/domain"
)

// transitions is the static graph of allowed status moves. A status with
// no entry permits no transitions at all. Deletion is reachable from
// every non-terminal status, but a deleted ticket can only be reopened;
// the asymmetry encodes that tickets may always be abandoned yet never
// skip review or resolution stages.
var transitions = map[domain.StatusCode][]domain.StatusCode{
	domain.StatusCreated:   {domain.StatusReviewed, domain.StatusNotified, domain.StatusDeleted},
	domain.StatusReviewed:  {domain.StatusNotified, domain.StatusClosed, domain.StatusSolved, domain.StatusDeleted},
	domain.StatusNotified:  {domain.StatusResolving, domain.StatusDeleted},
	domain.StatusResolving: {domain.StatusOnHold, domain.StatusClosed, domain.StatusSolved, domain.StatusDeleted},
	domain.StatusOnHold:    {domain.StatusResolving, domain.StatusClosed, domain.StatusSolved, domain.StatusDeleted},
	domain.StatusClosed:    {domain.StatusReopened, domain.StatusDeleted},
	domain.StatusSolved:    {domain.StatusReopened, domain.StatusDeleted},
	domain.StatusDeleted:   {domain.StatusReopened},
	domain.StatusReopened:  {domain.StatusNotified, domain.StatusClosed, domain.StatusSolved, domain.StatusDeleted},
}

// knownStatuses is the closed enumeration of status codes.
var knownStatuses = map[domain.StatusCode]struct{}{
	domain.StatusCreated:   {},
	domain.StatusReviewed:  {},
	domain.StatusNotified:  {},
	domain.StatusResolving: {},
	domain.StatusOnHold:    {},
	domain.StatusClosed:    {},
	domain.StatusSolved:    {},
	domain.StatusDeleted:   {},
	domain.StatusReopened:  {},
}

// UnknownStatusError reports a code outside the known enumeration.
type UnknownStatusError struct {
	Code string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown status code %q", e.Code)
}

// TransitionError reports a rejected transition together with the legal
// alternatives, so callers can hint the client toward valid moves.
type TransitionError struct {
	From         domain.StatusCode
	To           domain.StatusCode
	Alternatives []domain.StatusCode
}

func (e *TransitionError) Error() string {
	alts := make([]string, 0, len(e.Alternatives))
	for _, s := range e.Alternatives {
		alts = append(alts, string(s))
	}
	return fmt.Sprintf("cannot change status from %q to %q; valid next statuses: %s",
		e.From, e.To, strings.Join(alts, ", "))
}

func normalize(code domain.StatusCode) domain.StatusCode {
	return domain.StatusCode(strings.ToLower(strings.TrimSpace(string(code))))
}

// Known reports whether code belongs to the status enumeration.
// Comparison is case-insensitive.
func Known(code domain.StatusCode) bool {
	_, ok := knownStatuses[normalize(code)]
	return ok
}

// IsValidTransition reports whether a ticket may move from current to
// target. A same-status "move" is always valid (no change). Unknown
// codes and statuses without a graph entry never permit anything.
func IsValidTransition(current, target domain.StatusCode) bool {
	from, to := normalize(current), normalize(target)
	if !Known(from) || !Known(to) {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidNextStatuses returns the allowed targets for current, sorted for
// stable output. Unknown statuses and statuses without an entry yield an
// empty set, never an anything-goes default.
func ValidNextStatuses(current domain.StatusCode) []domain.StatusCode {
	next := transitions[normalize(current)]
	out := make([]domain.StatusCode, len(next))
	copy(out, next)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Decide is the enforcement form of IsValidTransition: nil when the move
// is accepted, *UnknownStatusError when either code is outside the
// enumeration, and *TransitionError carrying the legal alternative set
// when the graph forbids the move. It has no side effects.
func Decide(current, target domain.StatusCode) error {
	from, to := normalize(current), normalize(target)
	if !Known(from) {
		return &UnknownStatusError{Code: string(current)}
	}
	if !Known(to) {
		return &UnknownStatusError{Code: string(target)}
	}
	if IsValidTransition(from, to) {
		return nil
	}
	return &TransitionError{From: from, To: to, Alternatives: ValidNextStatuses(from)}
}
