package domain

import "time"

// Account is a user record held by the development backend.
type Account struct {
	ID           int
	Email        string
	FirstName    string
	LastName     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// ToAPISelf renders the account in the GET /self/account/ wire shape.
func (a *Account) ToAPISelf() APISelf {
	return APISelf{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
	}
}
