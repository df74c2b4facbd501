package domain

import "errors"

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidArgument
	KindPermissionDenied
	KindUnauthenticated
	KindConflict
	KindTransportFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindPermissionDenied:
		return "permission_denied"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindConflict:
		return "conflict"
	case KindTransportFailure:
		return "transport_failure"
	default:
		return "internal"
	}
}

// Error is a classified, client-safe error. Message is what callers see.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrProductNotFound  = NewError(KindNotFound, "Product not found")
	ErrCartNotFound     = NewError(KindNotFound, "Cart does not exist")
	ErrCartItemNotFound = NewError(KindNotFound, "Cart item does not exist")
	ErrEmptyCart        = NewError(KindInvalidArgument, "No items in cart")
	ErrInvalidQuantity  = NewError(KindInvalidArgument, "Invalid quantity")
	ErrOrderTooLarge    = NewError(KindInvalidArgument, "Order total exceeds the maximum amount")

	// ErrOrderNotFound is returned both for unknown ids and for orders owned
	// by someone else.
	ErrOrderNotFound         = NewError(KindNotFound, "Not found.")
	ErrInvalidShippingStatus = NewError(KindInvalidArgument, "Invalid shipping status")
	ErrStaffOnly             = NewError(KindPermissionDenied, "Only admin users can update shipping status.")

	ErrCustomerNotFound     = NewError(KindNotFound, "User with this email does not exist")
	ErrAccountNotFound      = NewError(KindNotFound, "User not found")
	ErrInvalidCredentials   = NewError(KindUnauthenticated, "Invalid credentials")
	ErrUnauthenticated      = NewError(KindUnauthenticated, "Authentication credentials were not provided.")
	ErrInvalidToken         = NewError(KindUnauthenticated, "Token is invalid or expired")
	ErrRefreshRequired      = NewError(KindInvalidArgument, "Refresh token is required")
	ErrInvalidRefreshToken  = NewError(KindInvalidArgument, "Token is invalid or expired")
	ErrInvalidResetToken    = NewError(KindInvalidArgument, "Invalid token")
	ErrInvalidResetRequest  = NewError(KindInvalidArgument, "Invalid request")
	ErrDuplicateCustomer    = NewError(KindConflict, "A user with that username or email already exists")
	ErrNotificationFailed   = NewError(KindTransportFailure, "Failed to send email.")
	ErrPasswordMismatch     = NewError(KindInvalidArgument, "Password fields didn't match.")
	ErrPasswordRequired     = NewError(KindInvalidArgument, "Password is required")
	ErrInvalidCustomerInput = NewError(KindInvalidArgument, "Invalid customer data")
)

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message for err. Unclassified errors get a
// generic message so storage details never leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
