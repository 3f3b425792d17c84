package domain

import "strconv"

const (
	ColorWork   = "#e74c3c"
	ColorBreak  = "#27ae60"
	ColorPaused = "#95a5a6"
)

type Badge struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// BadgeFor shows the minutes left, rounded up.
func BadgeFor(view State) Badge {
	if view.Session == nil || view.Phase == PhaseIdle {
		return Badge{}
	}
	minutes := (view.RemainingSeconds + 59) / 60
	text := ""
	if minutes > 0 {
		text = strconv.Itoa(minutes)
	}
	if view.Phase == PhasePaused {
		if text == "" {
			text = "⏰"
		}
		return Badge{Text: text, Color: ColorPaused}
	}
	if view.Session.Kind == KindWork {
		return Badge{Text: text, Color: ColorWork}
	}
	return Badge{Text: text, Color: ColorBreak}
}
