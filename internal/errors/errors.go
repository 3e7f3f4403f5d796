// Package errors provides the error taxonomy shared by validation, authorization,
// invariant checks and storage translation. Every failure a request can produce is
// an *AppError carrying one Kind, so handlers deal with a single vocabulary no matter
// which layer caught the problem.
package errors

import "net/http"

// Kind classifies an AppError. The HTTP status is derived from it.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindValidationFailed Kind = "validation_failed"
	KindConflict         Kind = "conflict"
	KindInvalidReference Kind = "invalid_reference"
	KindInternal         Kind = "internal"
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidationFailed, KindInvalidReference:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppError represents a structured application error with a kind, a stable error
// code, a human-readable message, optional details and an optional internal error.
type AppError struct {
	Kind       Kind     `json:"-"`
	Code       string   `json:"error"`
	Message    string   `json:"message,omitempty"`
	Details    []string `json:"details,omitempty"`
	StatusCode int      `json:"-"`
	Internal   error    `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, ErrForbidden) holds for copies made by WithMessage or Wrap.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, StatusCode: kind.Status()}
}

func (e *AppError) clone() *AppError {
	c := *e
	if e.Details != nil {
		c.Details = append([]string(nil), e.Details...)
	}
	return &c
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	c := sentinel.clone()
	c.Internal = internal
	return c
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	c := sentinel.clone()
	c.Message = message
	return c
}

// WithDetails creates a new AppError carrying every individual violation.
func WithDetails(sentinel *AppError, message string, details []string) *AppError {
	c := sentinel.clone()
	c.Message = message
	c.Details = append([]string(nil), details...)
	return c
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = newError(KindUnauthenticated, "UNAUTHENTICATED", "Authentication required")
	ErrInvalidToken       = newError(KindUnauthenticated, "UNAUTHENTICATED", "Invalid or expired token")
	ErrInvalidCredentials = newError(KindUnauthenticated, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrForbidden          = newError(KindForbidden, "FORBIDDEN", "You do not have permission to perform this action")
	ErrSelfDeletion       = newError(KindValidationFailed, "SELF_DELETION", "You cannot delete your own account")
	ErrRoleChange         = newError(KindForbidden, "FORBIDDEN", "Only administrators can change user roles")
)

// General errors.
var (
	ErrValidation       = newError(KindValidationFailed, "VALIDATION_FAILED", "Invalid input")
	ErrNotFound         = newError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrConflict         = newError(KindConflict, "CONFLICT", "Resource already exists")
	ErrInvalidReference = newError(KindInvalidReference, "INVALID_REFERENCE", "Invalid user or category reference")
	ErrInternalServer   = newError(KindInternal, "INTERNAL_ERROR", "An internal error occurred")
)

// User errors.
var (
	ErrUserNotFound   = newError(KindNotFound, "USER_NOT_FOUND", "User not found")
	ErrDuplicateEmail = newError(KindConflict, "DUPLICATE_EMAIL", "A user with this email already exists")
	ErrWeakPassword   = newError(KindValidationFailed, "WEAK_PASSWORD", "Password does not meet the strength requirements")
)

// Category errors.
var (
	ErrCategoryNotFound     = newError(KindNotFound, "CATEGORY_NOT_FOUND", "Category not found")
	ErrDuplicateCategory    = newError(KindConflict, "DUPLICATE_CATEGORY", "A category with this name and type already exists")
	ErrSystemCategory       = newError(KindForbidden, "SYSTEM_CATEGORY_IMMUTABLE", "System categories cannot be modified or deleted")
	ErrCategoryInUse        = newError(KindInvalidReference, "CATEGORY_IN_USE", "Category is used by existing transactions")
	ErrCategoryTypeMismatch = newError(KindValidationFailed, "TYPE_MISMATCH", "Transaction type does not match category type")
)

// Transaction errors.
var (
	ErrTransactionNotFound          = newError(KindNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found")
	ErrRecurringTransactionNotFound = newError(KindNotFound, "RECURRING_TRANSACTION_NOT_FOUND", "Recurring transaction not found")
)

// Budget errors.
var (
	ErrBudgetNotFound  = newError(KindNotFound, "BUDGET_NOT_FOUND", "Budget not found")
	ErrDuplicateBudget = newError(KindConflict, "DUPLICATE_BUDGET", "A budget for this user, category, and month already exists")
)
