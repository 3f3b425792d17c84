package domain

import "time"

const (
	ActionOpen      = "open"
	ActionConfigure = "configure"
	ActionStats     = "stats"
)

const (
	EventOpenPanel         = "openPanel"
	EventOpenAlertSettings = "openAlertSettings"
	EventOpenHistory       = "openHistory"
)

type Button struct {
	Action string `json:"action"`
	Label  string `json:"label"`
}

// Notification is a shown system notification awaiting a click or timeout.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  int       `json:"priority"`
	Buttons   []Button  `json:"buttons"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func DefaultButtons() []Button {
	return []Button{
		{Action: ActionOpen, Label: "Open timer"},
		{Action: ActionConfigure, Label: "Alert settings"},
		{Action: ActionStats, Label: "View stats"},
	}
}

// ActionEvent maps a notification button to the UI event it requests. An
// empty action is a click on the notification body.
func ActionEvent(action string) (string, bool) {
	switch action {
	case "", ActionOpen:
		return EventOpenPanel, true
	case ActionConfigure:
		return EventOpenAlertSettings, true
	case ActionStats:
		return EventOpenHistory, true
	}
	return "", false
}

// Priority maps an intensity setting onto a notification priority.
func Priority(intensity string) int {
	switch intensity {
	case "low":
		return 0
	case "high":
		return 2
	default:
		return 1
	}
}
