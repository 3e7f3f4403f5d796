// Package authz decides whether a principal may perform an action on a resource.
//
// Decisions are pure: the caller resolves the resource owner beforehand and maps a
// denial to an error afterwards. Every resource handler goes through the same
// Policy, so role rules live in exactly one place.
package authz

import (
	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// Principal is the authenticated caller of the current request.
type Principal struct {
	SubjectID string
	Email     string
	Role      models.Role
}

// IsPrivileged reports whether the principal is an admin or a manager.
func (p *Principal) IsPrivileged() bool {
	return p.Role == models.RoleAdmin || p.Role == models.RoleManager
}

// Action is an operation on a resource.
type Action string

const (
	ActionRead       Action = "read"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionChangeRole Action = "change_role"
	ActionList       Action = "list"
)

// ResourceKind names the type of a protected resource.
type ResourceKind string

const (
	KindUser                 ResourceKind = "user"
	KindCategory             ResourceKind = "category"
	KindTransaction          ResourceKind = "transaction"
	KindBudget               ResourceKind = "budget"
	KindRecurringTransaction ResourceKind = "recurring_transaction"
)

// Resource identifies what is being acted on. OwnerID is nil for system
// resources. For users, OwnerID is the user's own id.
type Resource struct {
	Kind    ResourceKind
	OwnerID *string
}

// Owned returns a resource owned by ownerID.
func Owned(kind ResourceKind, ownerID string) Resource {
	return Resource{Kind: kind, OwnerID: &ownerID}
}

// Reason explains a denial.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
	ReasonNotFound        Reason = "not_found"
	ReasonSelfDeletion    Reason = "self_deletion"
)

// Decision is the outcome of Policy.Decide.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow is the permitting decision.
var Allow = Decision{Allowed: true}

// Deny returns a refusing decision with the given reason.
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err maps the decision to an application error, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonUnauthenticated:
		return apperrors.ErrUnauthorized
	case ReasonNotFound:
		return apperrors.ErrNotFound
	case ReasonSelfDeletion:
		return apperrors.ErrSelfDeletion
	default:
		return apperrors.ErrForbidden
	}
}
