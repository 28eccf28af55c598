package models

// Requests for the HTTP endpoints. Kept in domain so the websocket and CLI layers reuse them.

type ChatRequest struct {
	Text    string `json:"text" validate:"required,max=2000"`
	Persona string `json:"persona" validate:"max=64"`
	UserID  string `json:"user_id" validate:"max=128"`
}

type DecisionRequest struct {
	Coin    string `query:"coin" json:"coin" validate:"required,max=128"`
	Persona string `query:"persona" json:"persona" validate:"max=64"`
}

type DecisionHistoryRequest struct {
	Coin  string `query:"coin" json:"coin" validate:"required,max=128"`
	Limit int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}

type PriceRequest struct {
	Coin string `query:"coin" json:"coin" validate:"required,max=128"`
}

type PriceByAddressRequest struct {
	Chain   string `query:"chain" json:"chain" default:"ethereum" validate:"required,max=64"`
	Address string `query:"address" json:"address" validate:"required,min=10,max=128"`
}

type LimitRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}

type MarketsRequest struct {
	Category string `query:"category" json:"category" validate:"max=128"`
	Limit    int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=250"`
}

type AlphaRequest struct {
	Username string `query:"username" json:"username" validate:"required,max=64"`
}
