package model

import "time"

// Token is a persisted session credential minted by the chat command.
//
// Tokens are created once and never rotated. ExpireAt is recorded at issue
// time but whether it is honoured depends on the token service's policy.
type Token struct {
	Token          string    `json:"token"          db:"token"`
	User           string    `json:"user"           db:"user"`
	Channel        string    `json:"channel"        db:"channel"`
	Timezone       string    `json:"timezone"       db:"timezone"`
	TimezoneOffset int       `json:"timezoneOffset" db:"timezone_offset"` // minutes east of UTC
	IssuedAt       time.Time `json:"issuedAt"       db:"issued_at"`
	ExpireAt       time.Time `json:"expireAt"       db:"expire_at"`
}

// Expired reports whether the token's recorded expiry is before now.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpireAt.Before(now)
}

// Session is the resolved identity behind an authenticated request.
type Session struct {
	Token          string
	User           string
	Channel        string
	Timezone       string
	TimezoneOffset int
	Location       *time.Location
}
