package domain

import "time"

// Token describes an issued access token.
type Token struct {
	Value     string
	Tier      Tier
	ExpiresAt time.Time
	IssuedAt  time.Time
}
