package domain

import "fmt"

// Self is the authenticated user as the client sees it.
type Self struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// APISelf is the wire shape of GET /self/account/.
type APISelf struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// DeserializeSelf renames the wire fields to the client shape.
func DeserializeSelf(data APISelf) Self {
	return Self{
		ID:        data.ID,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Email:     data.Email,
	}
}

// SessionStatus enumerates the derived authentication states.
type SessionStatus int

const (
	SessionUnknown SessionStatus = iota
	SessionAuthenticated
	SessionUnauthenticated
)

func (s SessionStatus) String() string {
	switch s {
	case SessionAuthenticated:
		return "authenticated"
	case SessionUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// SessionState is derived from the cache on demand and never stored.
// User is set only when Status is SessionAuthenticated.
type SessionState struct {
	Status SessionStatus
	User   *Self
	Err    error
}

// IsAuthenticated reports whether a user identity is cached.
func (s SessionState) IsAuthenticated() bool {
	return s.Status == SessionAuthenticated && s.User != nil
}

func (s SessionState) String() string {
	if s.IsAuthenticated() {
		return fmt.Sprintf("%s(%s)", s.Status, s.User.Email)
	}
	return s.Status.String()
}
