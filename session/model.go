package session

import "time"

// Session is one authenticated login. Role is the canonical role label at
// the time the session was created.
type Session struct {
	SessionID string
	UserID    string
	Email     string
	Role      string

	CreatedAt int64
	ExpiresAt int64
}

// Expired reports whether the session has passed its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && now.Unix() >= s.ExpiresAt
}

// TTL returns the remaining lifetime at now, or zero when expired.
func (s *Session) TTL(now time.Time) time.Duration {
	if s.ExpiresAt <= 0 {
		return 0
	}
	d := time.Unix(s.ExpiresAt, 0).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
