package authz

import "fintrack/internal/models"

// Observer is notified of every decision, e.g. to count denials.
type Observer func(resource Resource, action Action, decision Decision)

// Policy evaluates authorization rules. The zero value is usable.
type Policy struct {
	observers []Observer
}

// Option configures a Policy.
type Option func(*Policy)

// WithObserver registers fn to be called after every decision.
func WithObserver(fn Observer) Option {
	return func(p *Policy) { p.observers = append(p.observers, fn) }
}

// NewPolicy creates a Policy.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Decide applies the rules in precedence order:
//
//  1. no principal: Unauthenticated
//  2. creating or listing users: admin or manager
//  3. deleting your own user account: SelfDeletion, for every role
//  4. deleting a user or changing a role: admin only
//  5. system resource (no owner): read allowed, anything else Forbidden
//  6. admin and manager: allowed
//  7. everyone else: allowed only on resources they own
func (p *Policy) Decide(principal *Principal, resource Resource, action Action) Decision {
	d := decide(principal, resource, action)
	for _, fn := range p.observers {
		fn(resource, action, d)
	}
	return d
}

// Authorize is Decide followed by Decision.Err.
func (p *Policy) Authorize(principal *Principal, resource Resource, action Action) error {
	return p.Decide(principal, resource, action).Err()
}

func decide(principal *Principal, resource Resource, action Action) Decision {
	if principal == nil || principal.SubjectID == "" {
		return Deny(ReasonUnauthenticated)
	}

	if resource.Kind == KindUser {
		switch action {
		case ActionCreate, ActionList:
			if principal.IsPrivileged() {
				return Allow
			}
			return Deny(ReasonForbidden)
		case ActionDelete:
			if resource.OwnerID != nil && *resource.OwnerID == principal.SubjectID {
				return Deny(ReasonSelfDeletion)
			}
			if principal.Role == models.RoleAdmin {
				return Allow
			}
			return Deny(ReasonForbidden)
		case ActionChangeRole:
			if principal.Role == models.RoleAdmin {
				return Allow
			}
			return Deny(ReasonForbidden)
		}
	}

	if resource.OwnerID == nil {
		if action == ActionRead {
			return Allow
		}
		return Deny(ReasonForbidden)
	}

	if principal.IsPrivileged() {
		return Allow
	}
	if *resource.OwnerID == principal.SubjectID {
		return Allow
	}
	return Deny(ReasonForbidden)
}
