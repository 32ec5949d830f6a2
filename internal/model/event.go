package model

// MemberKind selects which RSVP set a user joins.
type MemberKind string

const (
	KindParticipant MemberKind = "participant"
	KindAlternate   MemberKind = "alternate"
)

// ParseMemberKind maps the join request's free-form type to a set.
// "participant" selects participants; anything else selects alternates.
func ParseMemberKind(s string) MemberKind {
	if s == string(KindParticipant) {
		return KindParticipant
	}
	return KindAlternate
}

// Event is a scheduled occurrence inside one channel.
//
// Participants and Alternates are ordered and may contain duplicates: joining
// twice records the user twice, and nothing stops a user from appearing in
// both sets. Timestamp is epoch milliseconds (UTC).
type Event struct {
	ID           string   `json:"id"`
	Owner        string   `json:"owner"`
	Channel      string   `json:"channel"`
	Name         string   `json:"name"`
	Timestamp    int64    `json:"timestamp"`
	Participants []string `json:"participants"`
	Alternates   []string `json:"alternates"`
}

// Has reports whether user appears in either RSVP set.
func (e *Event) Has(user string) bool {
	for _, u := range e.Participants {
		if u == user {
			return true
		}
	}
	for _, u := range e.Alternates {
		if u == user {
			return true
		}
	}
	return false
}
