package ledger

import "fmt"

// Kind classifies a ledger error so callers can branch on failure mode
// without parsing messages.
type Kind string

const (
	AuthorizationDenied       Kind = "authorization_denied"
	EntityMissing             Kind = "entity_missing"
	EntityInactive            Kind = "entity_inactive"
	OperatorNotApproved       Kind = "operator_not_approved"
	AllowanceExceeded         Kind = "allowance_exceeded"
	InsufficientFunds         Kind = "insufficient_funds"
	InsufficientLockup        Kind = "insufficient_lockup"
	LockupNotSettled          Kind = "lockup_not_settled"
	DebtBlocked               Kind = "debt_blocked"
	TerminatedRailRestriction Kind = "terminated_rail_restriction"
	ArbiterContractViolation  Kind = "arbiter_contract_violation"
	Arithmetic                Kind = "arithmetic"
	ConcurrentModification    Kind = "concurrent_modification"
	InvariantBroken           Kind = "invariant_broken"
)

// Error is the stable, typed error every command returns on precondition
// failure. A command that returns an *Error has made no state changes (§7:
// all errors are transactional). The one exception is Engine.SettleRailBatch:
// settlements already applied for ids before the failing one stay applied.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, &ledger.Error{Kind: ledger.AuthorizationDenied})
// work by comparing kinds when the target is itself a *Error with no message
// (a sentinel by kind).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind carried by a ledger error, or "" if err is not one.
func KindOf(err error) Kind {
	var le *Error
	if ok := asError(err, &le); ok {
		return le.Kind
	}
	return ""
}

func asError(err error, target **Error) bool {
	for err != nil {
		if le, ok := err.(*Error); ok {
			*target = le
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
