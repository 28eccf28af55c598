package api

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"CoinSense/internal/domain/models"
	"CoinSense/internal/usecase"
	xhttp "CoinSense/pkg/http"
	xlogger "CoinSense/pkg/logger"
)

// Services groups what the handler calls. History may be nil when no store is configured.
type Services struct {
	Chat     ChatService
	Decision DecisionService
	History  HistoryService
	Market   MarketService
	Alpha    AlphaService
	Boosted  BoostedService
}

// CoinSenseEchoHandler serves the JSON API under /api.
type CoinSenseEchoHandler struct {
	logger *xlogger.Logger
	svc    Services
	mw     []echo.MiddlewareFunc
}

// DecisionResponse is a decision with its rendered text.
type DecisionResponse struct {
	*models.CoinDecision
	Label string `json:"label"`
	Text  string `json:"text"`
}

func NewCoinSenseEchoHandler(logger *xlogger.Logger, svc Services, mw ...echo.MiddlewareFunc) *CoinSenseEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &CoinSenseEchoHandler{logger: logger, svc: svc, mw: mw}
}

func (h *CoinSenseEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.mw...)
	g.POST("/chat", h.Chat)
	g.GET("/decision", h.Decision)
	g.GET("/decisions", h.DecisionHistory)
	g.GET("/price", h.Price)
	g.GET("/price/address", h.PriceByAddress)
	g.GET("/trending", h.Trending)
	g.GET("/trending/pools", h.TrendingPools)
	g.GET("/markets", h.Markets)
	g.GET("/gainers-losers", h.TopGainersLosers)
	g.GET("/coins/new", h.NewCoins)
	g.GET("/categories", h.Categories)
	g.GET("/alpha", h.Alpha)
	g.GET("/tokens/boosted", h.BoostedTokens)
}

func (h *CoinSenseEchoHandler) Chat(c echo.Context) error {
	req := &models.ChatRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	msg := models.ChatMessage{
		ID:      uuid.NewString(),
		UserID:  req.UserID,
		Text:    req.Text,
		Persona: req.Persona,
	}
	reply, err := h.svc.Chat.Handle(c.Request().Context(), msg)
	if err != nil {
		return h.fail(c, "chat", err)
	}
	return xhttp.SuccessResponse(c, reply)
}

func (h *CoinSenseEchoHandler) Decision(c echo.Context) error {
	req := &models.DecisionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	d, err := h.svc.Decision.Evaluate(c.Request().Context(), req.Coin, req.Persona)
	if err != nil {
		return h.fail(c, "decision", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, DecisionResponse{
		CoinDecision: d,
		Label:        d.Result.Outcome.Label(),
		Text:         usecase.FormatDecision(d.Result),
	})
}

func (h *CoinSenseEchoHandler) DecisionHistory(c echo.Context) error {
	req := &models.DecisionHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.svc.History == nil {
		return h.fail(c, "decision_history", usecase.ErrHistoryUnavailable)
	}
	coinID := strings.ToLower(strings.TrimSpace(req.Coin))
	rows, err := h.svc.History.History(c.Request().Context(), coinID, req.Limit)
	if err != nil {
		return h.fail(c, "decision_history", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *CoinSenseEchoHandler) Price(c echo.Context) error {
	req := &models.PriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.reply(c, "price")(h.svc.Market.Price(c.Request().Context(), req.Coin))
}

func (h *CoinSenseEchoHandler) PriceByAddress(c echo.Context) error {
	req := &models.PriceByAddressRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.reply(c, "price_by_address")(h.svc.Market.PriceByAddress(c.Request().Context(), req.Chain, req.Address))
}

func (h *CoinSenseEchoHandler) Trending(c echo.Context) error {
	req := &models.LimitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.reply(c, "trending")(h.svc.Market.Trending(c.Request().Context(), req.Limit))
}

func (h *CoinSenseEchoHandler) TrendingPools(c echo.Context) error {
	req := &models.LimitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.reply(c, "trending_pools")(h.svc.Market.TrendingPools(c.Request().Context(), req.Limit))
}

func (h *CoinSenseEchoHandler) Markets(c echo.Context) error {
	req := &models.MarketsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.reply(c, "markets")(h.svc.Market.Markets(c.Request().Context(), req.Category, req.Limit))
}

func (h *CoinSenseEchoHandler) TopGainersLosers(c echo.Context) error {
	req := &models.LimitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.reply(c, "movers")(h.svc.Market.TopGainersLosers(c.Request().Context(), req.Limit))
}

func (h *CoinSenseEchoHandler) NewCoins(c echo.Context) error {
	req := &models.LimitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.reply(c, "new_coins")(h.svc.Market.NewlyListed(c.Request().Context(), req.Limit))
}

func (h *CoinSenseEchoHandler) Categories(c echo.Context) error {
	cats, err := h.svc.Market.Categories(c.Request().Context())
	if err != nil {
		return h.fail(c, "categories", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.ListResponse(c, cats, int64(len(cats)))
}

func (h *CoinSenseEchoHandler) Alpha(c echo.Context) error {
	req := &models.AlphaRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.reply(c, "alpha")(h.svc.Alpha.RecentTweets(c.Request().Context(), req.Username))
}

func (h *CoinSenseEchoHandler) BoostedTokens(c echo.Context) error {
	return h.reply(c, "boosted_tokens")(h.svc.Boosted.Latest(c.Request().Context()))
}

// reply adapts a use case result into a response.
func (h *CoinSenseEchoHandler) reply(c echo.Context, op string) func(*models.Reply, error) error {
	return func(r *models.Reply, err error) error {
		if err != nil {
			return h.fail(c, op, err)
		}
		return xhttp.SuccessResponse(c, r)
	}
}

func (h *CoinSenseEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		h.logger.Error(op+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.String("reason", appErr.Message), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
