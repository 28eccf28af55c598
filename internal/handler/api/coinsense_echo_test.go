package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinSense/internal/domain/models"
	"CoinSense/internal/service/upstream"
	"CoinSense/internal/usecase"
)

type stubChat struct {
	got models.ChatMessage
	err error
}

func (s *stubChat) Handle(_ context.Context, msg models.ChatMessage) (*models.Reply, error) {
	s.got = msg
	if s.err != nil {
		return nil, s.err
	}
	return &models.Reply{MessageID: msg.ID, Action: models.ActionPrice, Text: "ok"}, nil
}

type stubDecision struct {
	query, persona string
	err            error
}

func (s *stubDecision) Evaluate(_ context.Context, query, persona string) (*models.CoinDecision, error) {
	s.query, s.persona = query, persona
	if s.err != nil {
		return nil, s.err
	}
	return &models.CoinDecision{
		Coin: models.Coin{ID: "pepe", Symbol: "pepe", Name: "Pepe"},
		Result: models.DecisionResult{
			Outcome:   models.OutcomeIndeterminate,
			Persona:   persona,
			Reasoning: "mixed",
		},
	}, nil
}

type stubHistory struct {
	coin  string
	limit int
}

func (s *stubHistory) History(_ context.Context, coinID string, limit int) ([]*models.DecisionRecord, error) {
	s.coin, s.limit = coinID, limit
	return []*models.DecisionRecord{{ID: "r1", CoinID: coinID, Outcome: models.OutcomeBuy}}, nil
}

// stubMarket answers every call with a reply naming the call and its args.
type stubMarket struct {
	err error
}

func (s *stubMarket) r(action models.Action, format string, a ...interface{}) (*models.Reply, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Reply{Action: action, Text: fmt.Sprintf(format, a...)}, nil
}

func (s *stubMarket) Price(_ context.Context, q string) (*models.Reply, error) {
	return s.r(models.ActionPrice, "price %s", q)
}

func (s *stubMarket) PriceByAddress(_ context.Context, chain, addr string) (*models.Reply, error) {
	return s.r(models.ActionPricePerAddress, "address %s %s", chain, addr)
}

func (s *stubMarket) Trending(_ context.Context, n int) (*models.Reply, error) {
	return s.r(models.ActionTrending, "trending %d", n)
}

func (s *stubMarket) TrendingPools(_ context.Context, n int) (*models.Reply, error) {
	return s.r(models.ActionTrendingPools, "pools %d", n)
}

func (s *stubMarket) Markets(_ context.Context, cat string, n int) (*models.Reply, error) {
	return s.r(models.ActionMarkets, "markets %s %d", cat, n)
}

func (s *stubMarket) TopGainersLosers(_ context.Context, n int) (*models.Reply, error) {
	return s.r(models.ActionMovers, "movers %d", n)
}

func (s *stubMarket) NewlyListed(_ context.Context, n int) (*models.Reply, error) {
	return s.r(models.ActionNewCoins, "new %d", n)
}

func (s *stubMarket) Categories(context.Context) ([]models.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.Category{{ID: "meme-token", Name: "Meme"}}, nil
}

type stubAlpha struct{}

func (stubAlpha) RecentTweets(_ context.Context, u string) (*models.Reply, error) {
	if u == "nobody" {
		return nil, usecase.ErrNoResults
	}
	return &models.Reply{Action: models.ActionAlpha, Text: "tweets " + u}, nil
}

type stubBoosted struct{ err error }

func (s stubBoosted) Latest(context.Context) (*models.Reply, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Reply{Action: models.ActionBoostedTokens, Text: "boosted"}, nil
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newTestEcho(svc Services) *echo.Echo {
	e := echo.New()
	NewCoinSenseEchoHandler(nil, svc).RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func replyText(t *testing.T, env envelope) string {
	t.Helper()
	var r models.Reply
	require.NoError(t, json.Unmarshal(env.Data, &r))
	return r.Text
}

func TestChatLeavesPersonaToEngineAndAssignsID(t *testing.T) {
	chat := &stubChat{}
	e := newTestEcho(Services{Chat: chat})

	rec, env := do(t, e, http.MethodPost, "/api/chat", `{"text":"price of btc","user_id":"u1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", replyText(t, env))
	assert.Empty(t, chat.got.Persona)
	assert.Equal(t, "u1", chat.got.UserID)
	assert.NotEmpty(t, chat.got.ID)
}

func TestChatValidation(t *testing.T) {
	e := newTestEcho(Services{Chat: &stubChat{}})
	rec, _ := do(t, e, http.MethodPost, "/api/chat", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatUnknownIntentIs422(t *testing.T) {
	e := newTestEcho(Services{Chat: &stubChat{err: fmt.Errorf("NONE: %w", usecase.ErrUnknownIntent)}})
	rec, _ := do(t, e, http.MethodPost, "/api/chat", `{"text":"hello"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDecisionRendersLabel(t *testing.T) {
	dec := &stubDecision{}
	e := newTestEcho(Services{Decision: dec})

	rec, env := do(t, e, http.MethodGet, "/api/decision?coin=PEPE&persona=murad", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PEPE", dec.query)
	assert.Equal(t, "murad", dec.persona)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "HOLD OFF", body["label"])
	assert.Equal(t, "Decision: HOLD OFF\n\nReasoning: mixed", body["text"])
	assert.Equal(t, "no-store", rec.Header().Get(echo.HeaderCacheControl))
}

func TestDecisionErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{usecase.ErrCoinNotFound, http.StatusNotFound},
		{fmt.Errorf("coingecko: %w", upstream.ErrRateLimited), http.StatusTooManyRequests},
		{fmt.Errorf("coingecko: %w", upstream.ErrUpstreamUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("coingecko: %w", upstream.ErrUnauthorized), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		e := newTestEcho(Services{Decision: &stubDecision{err: tc.err}})
		rec, _ := do(t, e, http.MethodGet, "/api/decision?coin=x", "")
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestDecisionRequiresCoin(t *testing.T) {
	e := newTestEcho(Services{Decision: &stubDecision{}})
	rec, _ := do(t, e, http.MethodGet, "/api/decision", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecisionHistory(t *testing.T) {
	hist := &stubHistory{}
	e := newTestEcho(Services{History: hist})

	rec, _ := do(t, e, http.MethodGet, "/api/decisions?coin=%20Bitcoin", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bitcoin", hist.coin)
	assert.Equal(t, 20, hist.limit)

	e = newTestEcho(Services{})
	rec, _ = do(t, e, http.MethodGet, "/api/decisions?coin=bitcoin", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMarketRoutesPassArguments(t *testing.T) {
	e := newTestEcho(Services{Market: &stubMarket{}})

	cases := map[string]string{
		"/api/price?coin=eth":              "price eth",
		"/api/trending":                    "trending 10",
		"/api/trending/pools?limit=3":      "pools 3",
		"/api/markets?category=meme-token": "markets meme-token 20",
		"/api/gainers-losers?limit=5":      "movers 5",
		"/api/coins/new":                   "new 10",
	}
	for target, want := range cases {
		rec, env := do(t, e, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, want, replyText(t, env), target)
	}

	rec, env := do(t, e, http.MethodGet, "/api/price/address?address=0x6982508145454ce325ddbe47a25d4ec3d2311933", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "address ethereum 0x6982508145454ce325ddbe47a25d4ec3d2311933", replyText(t, env))
}

func TestLimitBounds(t *testing.T) {
	e := newTestEcho(Services{Market: &stubMarket{}})
	rec, _ := do(t, e, http.MethodGet, "/api/trending?limit=1000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategoriesList(t *testing.T) {
	e := newTestEcho(Services{Market: &stubMarket{}})
	rec, env := do(t, e, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.Total)
}

func TestAlphaAndBoosted(t *testing.T) {
	e := newTestEcho(Services{Alpha: stubAlpha{}, Boosted: stubBoosted{}})

	rec, env := do(t, e, http.MethodGet, "/api/alpha?username=cobie", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tweets cobie", replyText(t, env))

	rec, _ = do(t, e, http.MethodGet, "/api/alpha?username=nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = do(t, e, http.MethodGet, "/api/tokens/boosted", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "boosted", replyText(t, env))
}

func TestMiddlewareIsApplied(t *testing.T) {
	e := echo.New()
	blocked := func(echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error { return c.JSON(http.StatusTooManyRequests, envelope{Status: 429}) }
	}
	NewCoinSenseEchoHandler(nil, Services{Boosted: stubBoosted{}}, blocked).RegisterRoutes(e)

	rec, _ := do(t, e, http.MethodGet, "/api/tokens/boosted", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
