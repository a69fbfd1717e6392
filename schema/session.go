package schema

import "time"

// UserProfile is the account returned by the login endpoint.
type UserProfile struct {
	Username  string `json:"username" msgpack:"username"`
	FirstName string `json:"first_name" msgpack:"first_name"`
	LastName  string `json:"last_name" msgpack:"last_name"`
	Email     string `json:"email" msgpack:"email"`
	Role      string `json:"role" msgpack:"role"`
	Company   string `json:"company" msgpack:"company"`
}

// Identity returns the value the collaborator uses to protect exported documents.
func (u UserProfile) Identity() string {
	if u.Email != "" {
		return u.Email
	}
	return u.Username
}

// Session is the persisted credential plus the profile it belongs to.
type Session struct {
	Token    string      `json:"token" msgpack:"token"`
	User     UserProfile `json:"user" msgpack:"user"`
	IssuedAt time.Time   `json:"issued_at" msgpack:"issued_at"`
}

// Valid reports whether the session carries a credential.
func (s Session) Valid() bool {
	return s.Token != ""
}

// LoginRequest is the body of the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the reply of the login endpoint.
type LoginResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// SignupRequest is the body of the signup endpoint.
type SignupRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Company   string `json:"company"`
}
