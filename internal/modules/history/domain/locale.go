package domain

import (
	"fmt"
	"time"
)

// Locale controls the labels written into records and exports.
type Locale struct {
	Name       string
	WorkLabel  string
	BreakLabel string
	Weekdays   [7]string
	Months     [12]string
	CSVHeader  []string
}

var englishWeekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var englishMonths = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var spanishHeader = []string{"Fecha", "Hora", "Tipo", "Proyecto", "Duración (min)", "Día de la semana", "Mes", "Año"}

var locales = map[string]Locale{
	"default": {
		Name:       "default",
		WorkLabel:  "Trabajo",
		BreakLabel: "Descanso",
		Weekdays:   englishWeekdays,
		Months:     englishMonths,
		CSVHeader:  spanishHeader,
	},
	"es": {
		Name:       "es",
		WorkLabel:  "Trabajo",
		BreakLabel: "Descanso",
		Weekdays:   [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
		Months: [12]string{
			"enero", "febrero", "marzo", "abril", "mayo", "junio",
			"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
		},
		CSVHeader: spanishHeader,
	},
	"en": {
		Name:       "en",
		WorkLabel:  "Work",
		BreakLabel: "Break",
		Weekdays:   englishWeekdays,
		Months:     englishMonths,
		CSVHeader:  []string{"Date", "Time", "Type", "Project", "Duration (min)", "Weekday", "Month", "Year"},
	},
}

func LookupLocale(name string) (Locale, error) {
	if name == "" {
		name = "default"
	}
	loc, ok := locales[name]
	if !ok {
		return Locale{}, fmt.Errorf("unknown locale %q", name)
	}
	return loc, nil
}

func DefaultLocale() Locale {
	return locales["default"]
}

func (l Locale) WeekdayName(d time.Weekday) string { return l.Weekdays[d] }

func (l Locale) MonthName(m time.Month) string { return l.Months[m-1] }

func (l Locale) KindLabel(k Kind) string {
	if k == KindWork {
		return l.WorkLabel
	}
	return l.BreakLabel
}
