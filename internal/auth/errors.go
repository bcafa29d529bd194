// Package auth resolves who the current user is, either by asking the chat
// backend or by verifying the stored session token locally.
package auth

import "errors"

// ErrUnauthenticated means there is no valid session for the stored token.
var ErrUnauthenticated = errors.New("unauthenticated")
