package usecase

import "errors"

var (
	// ErrCoinNotFound means a query matched no coin by address, symbol, id or name.
	ErrCoinNotFound = errors.New("coin not found")

	// ErrUnknownIntent means a chat message maps to no action.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrNoResults means the provider answered with an empty list.
	ErrNoResults = errors.New("no results")

	// ErrHistoryUnavailable means no decision store is configured.
	ErrHistoryUnavailable = errors.New("decision history unavailable")
)

// Texts shown to chat users when an action cannot answer.
const (
	MsgCoinNotFound  = "Can't recognize the coin name, ID, or contract address. Try again?"
	MsgRateLimited   = "Rate limit exceeded. Please try again later."
	MsgUnavailable   = "Market data is unavailable right now. Please try again in a minute."
	MsgUnknownIntent = "I can help with coin decisions, prices, trending coins and pools, new listings, top movers, boosted tokens and tweets from @handles."
)
