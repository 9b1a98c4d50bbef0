package amqp

import (
	"encoding/json"
	"time"

	"orcamento/internal/core"
)

// ProjectionUpdated carries a freshly computed cash-flow projection.
type ProjectionUpdated struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Horizon     int                    `json:"horizon"`
	Months      []core.MonthProjection `json:"months"`
}

func NewProjectionUpdated(generatedAt time.Time, horizon int, months []core.MonthProjection) *ProjectionUpdated {
	return &ProjectionUpdated{
		GeneratedAt: generatedAt.UTC(),
		Horizon:     horizon,
		Months:      months,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ProjectionUpdated) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ProjectionUpdatedFromJSON creates a message from JSON bytes
func ProjectionUpdatedFromJSON(data []byte) (*ProjectionUpdated, error) {
	var msg ProjectionUpdated
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
