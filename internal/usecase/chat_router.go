package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CoinSense/internal/domain/models"
	drepo "CoinSense/internal/domain/repository"
	"CoinSense/internal/service/upstream"
	"CoinSense/internal/services/intent"
	applogger "CoinSense/pkg/logger"
)

// ChatRouter classifies a chat message and runs the matching action.
type ChatRouter struct {
	decision *DecisionUseCase
	market   *MarketUseCase
	alpha    *AlphaUseCase
	boosted  *BoostedTokensUseCase
	metrics  drepo.Metrics
	log      *applogger.Logger
}

func NewChatRouter(
	decision *DecisionUseCase,
	market *MarketUseCase,
	alpha *AlphaUseCase,
	boosted *BoostedTokensUseCase,
	metrics drepo.Metrics,
	log *applogger.Logger,
) *ChatRouter {
	if log == nil {
		log = applogger.NewNop()
	}
	return &ChatRouter{
		decision: decision,
		market:   market,
		alpha:    alpha,
		boosted:  boosted,
		metrics:  metrics,
		log:      log,
	}
}

// Handle routes msg. The error wraps ErrUnknownIntent, ErrCoinNotFound or an upstream failure.
func (r *ChatRouter) Handle(ctx context.Context, msg models.ChatMessage) (*models.Reply, error) {
	start := time.Now()
	action := intent.Classify(msg.Text)
	reply, err := r.dispatch(ctx, action, msg)

	r.metrics.RecordAction(string(action), err == nil)
	r.metrics.RecordLatency("chat_"+string(action), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	reply.MessageID = msg.ID
	return reply, nil
}

// Reply is Handle for transports that always answer with text.
func (r *ChatRouter) Reply(ctx context.Context, msg models.ChatMessage) *models.Reply {
	reply, err := r.Handle(ctx, msg)
	if err == nil {
		return reply
	}
	if !IsUserError(err) {
		r.log.Warn("chat action failed",
			applogger.String("message_id", msg.ID),
			applogger.String("user_id", msg.UserID),
			applogger.Error(err),
		)
	}
	action := intent.Classify(msg.Text)
	text := FailureText(err)
	switch {
	case action == models.ActionAlpha && errors.Is(err, ErrNoResults):
		handle, _ := intent.ExtractTwitterHandle(msg.Text)
		text = fmt.Sprintf("No recent tweets found from @%s.", handle)
	case action == models.ActionBoostedTokens && !errors.Is(err, ErrNoResults):
		text = "Failed to fetch latest boosted tokens: " + text
	}
	return &models.Reply{MessageID: msg.ID, Action: action, Text: text}
}

func (r *ChatRouter) dispatch(ctx context.Context, action models.Action, msg models.ChatMessage) (*models.Reply, error) {
	text := msg.Text
	switch action {
	case models.ActionDecision:
		q := intent.ExtractCoinQuery(text)
		if q == "" {
			return nil, ErrCoinNotFound
		}
		return r.decision.Decide(ctx, q, msg.Persona)
	case models.ActionPrice:
		q := intent.ExtractCoinQuery(text)
		if q == "" {
			return nil, ErrCoinNotFound
		}
		return r.market.Price(ctx, q)
	case models.ActionPricePerAddress:
		addr, _ := intent.ExtractAddress(text)
		return r.market.PriceByAddress(ctx, intent.ExtractChain(text), addr)
	case models.ActionMarkets:
		return r.market.Markets(ctx, intent.ExtractCategory(text), intent.ExtractLimit(text, DefaultListLimit, 100))
	case models.ActionTrending:
		return r.market.Trending(ctx, intent.ExtractLimit(text, AllTrending, AllTrending))
	case models.ActionTrendingPools:
		return r.market.TrendingPools(ctx, intent.ExtractLimit(text, DefaultListLimit, AllPools))
	case models.ActionNewCoins:
		return r.market.NewlyListed(ctx, intent.ExtractLimit(text, DefaultListLimit, AllNewCoins))
	case models.ActionMovers:
		return r.market.TopGainersLosers(ctx, intent.ExtractLimit(text, DefaultListLimit, AllMovers))
	case models.ActionAlpha:
		handle, _ := intent.ExtractTwitterHandle(text)
		return r.alpha.RecentTweets(ctx, handle)
	case models.ActionBoostedTokens:
		return r.boosted.Latest(ctx)
	default:
		return nil, ErrUnknownIntent
	}
}

// FailureText turns an action error into the message shown to the user.
func FailureText(err error) string {
	switch {
	case errors.Is(err, ErrCoinNotFound):
		return MsgCoinNotFound
	case errors.Is(err, ErrUnknownIntent):
		return MsgUnknownIntent
	case errors.Is(err, upstream.ErrRateLimited):
		return MsgRateLimited
	case errors.Is(err, upstream.ErrNotFound):
		return "Nothing found for that request."
	case errors.Is(err, ErrNoResults):
		return "No results right now. Try again later."
	case errors.Is(err, upstream.ErrUpstreamUnavailable), errors.Is(err, upstream.ErrUnauthorized):
		return MsgUnavailable
	default:
		return "Something went wrong. Please try again."
	}
}
