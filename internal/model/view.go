package model

// ViewModel is the per-session projection returned by GET /events.
type ViewModel struct {
	Token      SessionView   `json:"token"`
	DatePicker DatePicker    `json:"datePicker"`
	Channels   []ChannelView `json:"channels"`
}

type SessionView struct {
	User    string `json:"user"`
	Channel string `json:"channel"`
}

// DatePicker seeds the "new event" form in the session's timezone.
type DatePicker struct {
	Now     PickerTime   `json:"now"`
	Dates   []PickerDate `json:"dates"`
	Hours   []int        `json:"hours"`
	Minutes []string     `json:"minutes"`
}

type PickerTime struct {
	Minutes string `json:"minutes"`
	Hour    int    `json:"hour"` // 12-hour clock, 0 means twelve
	Period  string `json:"period"`
}

type PickerDate struct {
	Value string `json:"value"` // 2006-01-02
	Text  string `json:"text"`
}

// ChannelView is a visible channel with its events. Visible is UI state and
// survives re-fetches through MergeVisible.
type ChannelView struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Visible bool        `json:"visible"`
	Events  []EventView `json:"events"`
}

type EventView struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Date         string       `json:"date"`
	CanJoin      bool         `json:"canJoin"`
	Visible      bool         `json:"visible"`
	Participants []MemberView `json:"participants"`
	Alternates   []MemberView `json:"alternates"`
}

type MemberView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	CanLeave bool   `json:"canLeave"`
}
