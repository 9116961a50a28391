package model

import "time"

type MonitorSnapshot struct {
	State       string     `json:"state"`
	Source      string     `json:"source"`
	Dest        string     `json:"dest"`
	Mode        string     `json:"mode"`
	StartedAt   time.Time  `json:"started_at"`
	Received    int        `json:"received"`
	Dropped     int        `json:"dropped"`
	Synced      int        `json:"synced"`
	Failed      int        `json:"failed"`
	LastSync    *time.Time `json:"last_sync"`
	BaselineErr string     `json:"baseline_error,omitempty"`
}
