package amqp

import (
	"encoding/json"
	"time"
)

// SettlementSyncMessage is the lightweight notification published whenever a
// settlement is created or edited. It carries only the id and the week end
// date; the worker fetches the full settlement from the database so the
// mirror always reflects the latest stored state.
type SettlementSyncMessage struct {
	ID          int64     `json:"id"`
	WeekEndDate string    `json:"week_end_date"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewSettlementSyncMessage(id int64, weekEndDate string) *SettlementSyncMessage {
	return &SettlementSyncMessage{
		ID:          id,
		WeekEndDate: weekEndDate,
		Timestamp:   time.Now(),
	}
}

func (m *SettlementSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SettlementSyncMessageFromJSON(data []byte) (*SettlementSyncMessage, error) {
	var msg SettlementSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
