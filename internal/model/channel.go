package model

// Channel is a chat-platform channel as reported live by the platform.
// It is never persisted.
type Channel struct {
	ID      string
	Name    string
	Members []string
}

// HasMember reports whether user is on the channel's roster.
func (c *Channel) HasMember(user string) bool {
	for _, m := range c.Members {
		if m == user {
			return true
		}
	}
	return false
}
