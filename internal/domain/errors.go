package domain

import "errors"

// Kind classifies an error for transport mapping
type Kind int

const (
	KindServerFault Kind = iota // Unexpected failure
	KindNotFound                // Missing user or asset
	KindValidation              // Bad input
	KindUnauthorized            // Missing or invalid credential
	KindForbidden               // Wrong role or not the owner
	KindConflict                // State does not allow the operation
)

// Error is a classified error with a human-readable message
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }

// Sentinel errors shared by the stores and services
var (
	ErrAssetNotFound     = NotFound("Asset not found")
	ErrUserNotFound      = NotFound("User not found")
	ErrEmailTaken        = Conflict("Email already registered")
	ErrAlreadyInWishlist = Conflict("Asset already in wishlist")
	ErrNotInWishlist     = Conflict("Asset not in wishlist")
	ErrAdminRequired     = Forbidden("Admin access required")
)

// KindOf returns the Kind of err, or KindServerFault for unclassified errors
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindServerFault
}

// MessageOf returns the client-facing message for err
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "Server Error"
}
