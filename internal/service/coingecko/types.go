package coingecko

import (
	"bytes"
	"encoding/json"
	"strconv"

	"CoinSense/internal/domain/models"
)

// flexFloat accepts a JSON number, a numeric string or null. The onchain API quotes numbers as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type priceEntry struct {
	USD           *float64 `json:"usd"`
	MarketCap     *float64 `json:"usd_market_cap"`
	Volume24h     *float64 `json:"usd_24h_vol"`
	Change24h     *float64 `json:"usd_24h_change"`
	LastUpdatedAt int64    `json:"last_updated_at"`
}

func (e priceEntry) quote(id string) models.PriceQuote {
	return models.PriceQuote{
		CoinID:        id,
		Currency:      vsCurrency,
		Price:         *e.USD,
		MarketCap:     e.MarketCap,
		Volume24h:     e.Volume24h,
		Change24hPct:  e.Change24h,
		LastUpdatedAt: e.LastUpdatedAt,
	}
}

type trendingResponse struct {
	Coins []struct {
		Item struct {
			ID            string  `json:"id"`
			Symbol        string  `json:"symbol"`
			Name          string  `json:"name"`
			MarketCapRank int     `json:"market_cap_rank"`
			PriceBTC      float64 `json:"price_btc"`
			Score         int     `json:"score"`
		} `json:"item"`
	} `json:"coins"`
}

type poolData struct {
	ID         string `json:"id"`
	Attributes struct {
		Name              string    `json:"name"`
		Address           string    `json:"address"`
		BaseTokenPriceUSD flexFloat `json:"base_token_price_usd"`
		FDVUSD            flexFloat `json:"fdv_usd"`
		ReserveInUSD      flexFloat `json:"reserve_in_usd"`
		VolumeUSD         struct {
			H24 flexFloat `json:"h24"`
		} `json:"volume_usd"`
		PriceChangePercentage struct {
			H24 flexFloat `json:"h24"`
		} `json:"price_change_percentage"`
	} `json:"attributes"`
}

func (d poolData) pool() models.Pool {
	a := d.Attributes
	return models.Pool{
		ID:             d.ID,
		Name:           a.Name,
		Address:        a.Address,
		BaseTokenPrice: float64(a.BaseTokenPriceUSD),
		FDV:            float64(a.FDVUSD),
		ReserveUSD:     float64(a.ReserveInUSD),
		Volume24h:      float64(a.VolumeUSD.H24),
		Change24hPct:   float64(a.PriceChangePercentage.H24),
	}
}

type poolsResponse struct {
	Data []poolData `json:"data"`
}

// moverEntry keeps the raw object because the change field is named after the window, e.g. usd_24h_change.
type moverEntry map[string]json.RawMessage

type moversResponse struct {
	Gainers []moverEntry `json:"top_gainers"`
	Losers  []moverEntry `json:"top_losers"`
}

func (m moverEntry) str(key string) string {
	var s string
	_ = json.Unmarshal(m[key], &s)
	return s
}

func (m moverEntry) num(key string) float64 {
	var f flexFloat
	if raw, ok := m[key]; ok {
		_ = f.UnmarshalJSON(raw)
	}
	return float64(f)
}

func toMovers(entries []moverEntry, changeKey string) []models.Mover {
	out := make([]models.Mover, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.Mover{
			ID:        e.str("id"),
			Symbol:    e.str("symbol"),
			Name:      e.str("name"),
			PriceUSD:  e.num("usd"),
			ChangePct: e.num(changeKey),
			Volume24h: e.num("usd_24h_vol"),
		})
	}
	return out
}

type newCoinEntry struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	ActivatedAt int64  `json:"activated_at"`
}
