package models

import (
	"encoding/json"
	"time"
)

// Role selects one of the two account partitions. Each role lives in its
// own table; display names are unique per role, not globally.
type Role string

const (
	RoleLifeguard  Role = "lifeguard"
	RoleSupervisor Role = "supervisor"
)

func (r Role) Valid() bool {
	return r == RoleLifeguard || r == RoleSupervisor
}

type Account struct {
	ID          int64  `json:"id"`
	Name        string `json:"lname"`
	Password    string `json:"-"`
	PhoneNumber string `json:"phone_number"`
}

type Video struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	FileData   []byte    `json:"-"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// AlertLog links one video to the lifeguards responsible for reviewing it,
// plus the supervisor who raised the alert (if any).
type AlertLog struct {
	ID           int64     `json:"id"`
	VideoID      int64     `json:"video_id"`
	LifeguardIDs []int64   `json:"lifeguard_ids"`
	SupervisorID *int64    `json:"supervisor_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DetectedVideo is a row written by the detector pipeline once an
// annotated output file exists on disk.
type DetectedVideo struct {
	ID         int64     `json:"id"`
	VideoID    int64     `json:"video_id"`
	Path       string    `json:"detected_video_path"`
	DetectedAt time.Time `json:"detected_at"`
}

// DetectionResult is the verdict returned by the external detection
// service. Metadata is passed through untouched.
type DetectionResult struct {
	DrowningDetected bool           `json:"drowning_detected"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Envelope is the wire format of the real-time channel, inbound and
// outbound: a named event plus an opaque JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}
