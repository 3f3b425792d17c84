package dto

import "pomodoro/internal/modules/settings/domain"

// UpdateInput carries a partial settings update; nil fields are left as is.
type UpdateInput struct {
	WorkMinutes      *int  `json:"workMinutes,omitempty"`
	BreakMinutes     *int  `json:"breakMinutes,omitempty"`
	AutoStartEnabled *bool `json:"autoStartEnabled,omitempty"`
}

type AlertInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// View is the settings shape returned to UI surfaces.
type View struct {
	AutoStartEnabled bool   `json:"autoStartEnabled"`
	LastProject      string `json:"lastProject"`
	WorkMinutes      int    `json:"workMinutes"`
	BreakMinutes     int    `json:"breakMinutes"`
}

func ToView(s domain.Settings) View {
	return View{
		AutoStartEnabled: s.AutoStartEnabled,
		LastProject:      s.LastProject,
		WorkMinutes:      s.WorkMinutes,
		BreakMinutes:     s.BreakMinutes,
	}
}
