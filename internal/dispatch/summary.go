package dispatch

import (
	"time"

	"github.com/fundacionmisionvida7/Pagina/internal/delivery"
)

// Detail status values kept for clients of the send-daily response.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Detail is the per-endpoint record of one delivery.
type Detail struct {
	Endpoint   string        `json:"endpoint"`
	Status     string        `json:"status"`
	Outcome    delivery.Kind `json:"outcome"`
	StatusCode int           `json:"statusCode,omitempty"`
	Error      string        `json:"error,omitempty"`
	Pruned     bool          `json:"pruned"`
	PruneError string        `json:"pruneError,omitempty"`
}

// Summary aggregates one broadcast.
type Summary struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind,omitempty"`
	Title      string    `json:"title,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Pruned     int       `json:"pruned"`
	Skipped    int       `json:"skipped"`
	Details    []Detail  `json:"details"`
}

// Total is the number of deliveries attempted.
func (s Summary) Total() int { return s.Sent + s.Failed }

// Duration is the wall time of the broadcast.
func (s Summary) Duration() time.Duration { return s.FinishedAt.Sub(s.StartedAt) }
