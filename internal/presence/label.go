// Package presence derives the online-users label and keeps the session
// store's roster in sync with the chat backend's presence socket.
package presence

import "strconv"

// Noun returns the singular form for exactly one user, plural otherwise.
func Noun(n int) string {
	if n == 1 {
		return "person"
	}
	return "people"
}

// Label renders the footer text for n connected users.
func Label(n int) string {
	return strconv.Itoa(n) + " " + Noun(n) + " online"
}
