package models

import "time"

// Action names a routed chat action.
type Action string

const (
	ActionDecision        Action = "GET_DECISION"
	ActionPrice           Action = "GET_PRICE"
	ActionPricePerAddress Action = "GET_PRICE_PER_ADDRESS"
	ActionMarkets         Action = "GET_MARKETS"
	ActionTrending        Action = "GET_TRENDING"
	ActionTrendingPools   Action = "GET_TRENDING_POOLS"
	ActionNewCoins        Action = "GET_NEW_COINS"
	ActionMovers          Action = "GET_TOP_GAINERS_LOSERS"
	ActionAlpha           Action = "TODAYS_ALPHA"
	ActionBoostedTokens   Action = "GET_LATEST_BOOSTED_TOKENS"
	ActionUnknown         Action = "NONE"
)

// ChatMessage is an inbound user message.
type ChatMessage struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Text    string    `json:"text"`
	Persona string    `json:"persona"`
	SentAt  time.Time `json:"sent_at"`
}

// Reply is what an action hands back to the agent.
type Reply struct {
	MessageID string      `json:"message_id,omitempty"`
	Action    Action      `json:"action"`
	Text      string      `json:"text"`
	Content   interface{} `json:"content,omitempty"`
}
