package models

import "time"

// Account is a credential record held by the local identity provider.
type Account struct {
	UID          string `badgerhold:"key"`
	Email        string `badgerhold:"index"`
	PasswordHash string
	DisplayName  string
	Provider     string
	CreatedAt    time.Time
}
