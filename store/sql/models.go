package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type loadRecord struct {
	bun.BaseModel `bun:"table:loads,alias:l"`

	LoadID        string     `bun:"load_id,pk"`
	Origin        string     `bun:"origin,notnull"`
	Destination   string     `bun:"destination,notnull"`
	PickupAt      *time.Time `bun:"pickup_datetime,nullzero"`
	DeliveryAt    *time.Time `bun:"delivery_datetime,nullzero"`
	EquipmentType string     `bun:"equipment_type"`
	Rate          *float64   `bun:"loadboard_rate"`
	Weight        *float64   `bun:"weight"`
	CommodityType string     `bun:"commodity_type"`
	Pieces        *int       `bun:"num_of_pieces"`
	Miles         *float64   `bun:"miles"`
	Dimensions    string     `bun:"dimensions"`
	Notes         string     `bun:"notes"`
}

type negotiationRecord struct {
	bun.BaseModel `bun:"table:negotiations,alias:n"`

	ID                 string    `bun:"id,pk"`
	SessionID          string    `bun:"session_id,notnull"`
	LoadID             string    `bun:"load_id"`
	Miles              *float64  `bun:"miles"`
	LoadboardRate      *float64  `bun:"loadboard_rate"`
	Price              *float64  `bun:"price"`
	UserMessage        string    `bun:"user_message"`
	UserRequestedPrice *float64  `bun:"user_requested_price"`
	CurRound           *int      `bun:"cur_round"`
	MaxRounds          *int      `bun:"max_rounds"`
	AgentPrice         *float64  `bun:"ai_negotiated_price"`
	AgentReason        string    `bun:"ai_negotiated_reason"`
	History            string    `bun:"history"`
	Sentiment          string    `bun:"sentiment"`
	CreatedAt          time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type eventRecord struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID         string         `bun:"id,pk"`
	Source     string         `bun:"source,notnull"`
	Name       string         `bun:"name,notnull"`
	Status     string         `bun:"status"`
	DurationMS int64          `bun:"duration_ms"`
	Route      string         `bun:"route"`
	Payload    map[string]any `bun:"payload,type:jsonb,notnull"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
