// Package jwt issues and verifies the signed session tokens handed to callers
// after login or signup. A token only names a session; the session store
// remains the authority on whether it is still live.
package jwt
