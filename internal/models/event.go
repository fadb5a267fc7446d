package models

// EventConfig is the process-wide event metadata shown on display surfaces.
// Held in memory only; lost on restart.
type EventConfig struct {
	Name     string `json:"event_name"`
	URL      string `json:"event_url"`
	Datetime string `json:"event_datetime"`
}
