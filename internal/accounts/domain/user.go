package domain

import "time"

type User struct {
	ID             string
	Email          string
	HashedPassword string // argon2id encoded
	Avatar         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
