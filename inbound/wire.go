package inbound

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goliatone/go-loadrelay/core"
)

const DefaultMaxBodyBytes int64 = 1 << 20

type submitResponse struct {
	OK    bool   `json:"ok"`
	JobID string `json:"job_id"`
}

type jobResultResponse struct {
	OK             bool        `json:"ok"`
	Status         string      `json:"status"`
	Echo           any         `json:"echo"`
	SuggestedLoads []core.Load `json:"suggested_loads"`
}

type callbackResponse struct {
	OK             bool        `json:"ok"`
	Echo           any         `json:"echo"`
	SuggestedLoads []core.Load `json:"suggested_loads"`
}

type loadsResponse struct {
	Loads []core.Load `json:"loads"`
}

type negotiationStartResponse struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

type negotiationStoredResponse struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"session_id"`
	DBID      string `json:"db_id"`
	CurRound  *int   `json:"cur_round"`
	MaxRounds *int   `json:"max_rounds"`
	Status    string `json:"status"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type negotiationPollResponse struct {
	OK      bool                    `json:"ok"`
	Status  string                  `json:"status"`
	Pending bool                    `json:"pending,omitempty"`
	Result  *core.NegotiationResult `json:"result,omitempty"`
}

type negotiationHistoryResponse struct {
	OK        bool        `json:"ok"`
	SessionID string      `json:"session_id"`
	History   []roundView `json:"history"`
}

// roundView mirrors the negotiations table columns.
type roundView struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	LoadID             string    `json:"load_id"`
	Miles              *float64  `json:"miles"`
	LoadboardRate      *float64  `json:"loadboard_rate"`
	Price              *float64  `json:"price"`
	UserMessage        string    `json:"user_message"`
	UserRequestedPrice *float64  `json:"user_requested_price"`
	CurRound           *int      `json:"cur_round"`
	MaxRounds          *int      `json:"max_rounds"`
	AgentPrice         *float64  `json:"ai_negotiated_price"`
	AgentReason        string    `json:"ai_negotiated_reason"`
	History            string    `json:"history"`
	Sentiment          string    `json:"sentiment"`
	CreatedAt          time.Time `json:"created_at"`
}

type healthResponse struct {
	OK string `json:"ok"`
}

func toRoundViews(rounds []core.NegotiationRound) []roundView {
	views := make([]roundView, 0, len(rounds))
	for _, round := range rounds {
		views = append(views, roundView{
			ID:                 round.ID,
			SessionID:          round.SessionID,
			LoadID:             round.LoadID,
			Miles:              round.Miles,
			LoadboardRate:      round.LoadboardRate,
			Price:              round.Price,
			UserMessage:        round.UserMessage,
			UserRequestedPrice: round.UserRequestedPrice,
			CurRound:           round.CurRound,
			MaxRounds:          round.MaxRounds,
			AgentPrice:         round.AgentPrice,
			AgentReason:        round.AgentReason,
			History:            round.History,
			Sentiment:          round.Sentiment,
			CreatedAt:          round.CreatedAt.UTC(),
		})
	}
	return views
}

// roundFromBody maps a /negotiate/start/v2 body onto a ledger row. Load
// attributes are read from the nested "load" object.
func roundFromBody(body map[string]any) core.NegotiationRound {
	load := core.MapValue(body["load"])
	return core.NegotiationRound{
		SessionID:          core.StringValue(body["session_id"]),
		LoadID:             core.StringValue(load["load_id"]),
		Miles:              core.FloatValue(load["miles"]),
		LoadboardRate:      core.FloatValue(load["loadboard_rate"]),
		Price:              core.FloatValue(load["price"]),
		UserMessage:        core.StringValue(body["user_message"]),
		UserRequestedPrice: core.FloatValue(body["user_requested_price"]),
		CurRound:           core.IntValue(body["cur_round"]),
		MaxRounds:          core.IntValue(body["max_rounds"]),
		AgentPrice:         core.FloatValue(body["ai_negotiated_price"]),
		AgentReason:        core.StringValue(body["ai_negotiated_reason"]),
		History:            core.StringValue(body["history"]),
		Sentiment:          core.StringValue(body["sentiment"]),
	}
}

func startRequestFromBody(body map[string]any) core.StartNegotiationRequest {
	return core.StartNegotiationRequest{
		SessionID:      core.StringValue(body["session_id"]),
		Load:           core.MapValue(body["load"]),
		UserMessage:    core.StringValue(body["user_message"]),
		RequestedPrice: core.FloatValue(body["user_requested_price"]),
		CurRound:       core.IntValue(body["cur_round"]),
		MaxRounds:      core.IntValue(body["max_rounds"]),
		Raw:            body,
	}
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, inboundBadInput("inbound: request body too large", map[string]any{"limit": limit})
		}
		return nil, inboundMalformedBody(err)
	}
	return raw, nil
}

// decodeObject requires a JSON object body.
func decodeObject(raw []byte) (map[string]any, error) {
	body := core.DecodeObject(raw)
	if body == nil {
		return nil, inboundMalformedBody(nil)
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
