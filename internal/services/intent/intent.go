// Package intent classifies free-text chat messages into actions with plain regular expressions.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"CoinSense/internal/domain/models"
)

var (
	decisionKeywordRe = regexp.MustCompile(`(?i)\b(should i (buy|invest|get)|worth (buying|investing|getting)|good (investment|buy|time)|potential)\b`)
	cryptoWordRe      = regexp.MustCompile(`(?i)\b(crypto|token|coin)\b`)
	tickerRe          = regexp.MustCompile(`[$#][a-zA-Z]+`)
	commonCoinRe      = regexp.MustCompile(`(?i)\b(btc|eth|bitcoin|ethereum)\b`)
	genericSymbolRe   = regexp.MustCompile(`\b[a-zA-Z0-9]{3,5}\b`)

	latestRe  = regexp.MustCompile(`(?i)\b(latest|new|recent)\b`)
	boostedRe = regexp.MustCompile(`(?i)\b(boosted|promoted|featured)\b`)
	tokensRe  = regexp.MustCompile(`(?i)\b(tokens?|coins?|crypto)\b`)

	handleRe      = regexp.MustCompile(`@(\w+)`)
	poolsRe       = regexp.MustCompile(`(?i)\bpools?\b`)
	newListingsRe = regexp.MustCompile(`(?i)\b(newly listed|new listings?|recently (added|listed)|just listed)\b`)
	moversRe      = regexp.MustCompile(`(?i)\b(gainers?|losers?|movers?|pumping|dumping)\b`)
	trendingRe    = regexp.MustCompile(`(?i)\b(trending|hot|popular)\b`)
	marketsRe     = regexp.MustCompile(`(?i)\b(market caps?|markets?|top coins|biggest coins|category)\b`)
	priceRe       = regexp.MustCompile(`(?i)\b(price|prices|how much is|quote|trading at)\b`)
	addressRe     = regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`)
	categoryRe    = regexp.MustCompile(`(?i)\b(?:category\s+([a-z0-9][a-z0-9-]*)|([a-z0-9][a-z0-9-]*)\s+category)\b`)

	allRe     = regexp.MustCompile(`(?i)\b(all|every|full list)\b`)
	topNRe    = regexp.MustCompile(`(?i)\btop\s+(\d{1,4})\b`)
	countOfRe = regexp.MustCompile(`(?i)\b(\d{1,4})\s+(?:\w+\s+)?(?:pools?|coins?|tokens?|gainers?|losers?|results?)\b`)
)

// DecisionIntent reports whether text asks for a buy/avoid call on a crypto asset.
func DecisionIntent(text string) bool {
	if text == "" {
		return false
	}
	return decisionKeywordRe.MatchString(text) && mentionsCrypto(text)
}

func mentionsCrypto(text string) bool {
	return cryptoWordRe.MatchString(text) ||
		tickerRe.MatchString(text) ||
		commonCoinRe.MatchString(text) ||
		genericSymbolRe.MatchString(text)
}

// BoostedTokensIntent reports whether text asks for the latest boosted tokens.
func BoostedTokensIntent(text string) bool {
	if text == "" {
		return false
	}
	return latestRe.MatchString(text) && (boostedRe.MatchString(text) || tokensRe.MatchString(text))
}

// ExtractTwitterHandle returns the first @username in text.
func ExtractTwitterHandle(text string) (string, bool) {
	m := handleRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractAddress returns the first EVM contract address in text.
func ExtractAddress(text string) (string, bool) {
	m := addressRe.FindString(text)
	return m, m != ""
}

// ExtractLimit reads "top N", "N pools" or "all" from text. It returns def when
// nothing matches and all when the whole list is requested. Values are capped at all.
func ExtractLimit(text string, def, all int) int {
	if allRe.MatchString(text) {
		return all
	}
	for _, re := range []*regexp.Regexp{topNRe, countOfRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				continue
			}
			if n > all {
				return all
			}
			return n
		}
	}
	return def
}

// Classify routes text to an action. Order matters: a handle wins, then a decision
// request, then the list-style actions from most to least specific.
func Classify(text string) models.Action {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return models.ActionUnknown
	case handleRe.MatchString(text):
		return models.ActionAlpha
	case DecisionIntent(text):
		return models.ActionDecision
	case poolsRe.MatchString(text):
		return models.ActionTrendingPools
	case newListingsRe.MatchString(text):
		return models.ActionNewCoins
	case BoostedTokensIntent(text):
		return models.ActionBoostedTokens
	case moversRe.MatchString(text):
		return models.ActionMovers
	case trendingRe.MatchString(text):
		return models.ActionTrending
	case addressRe.MatchString(text):
		return models.ActionPricePerAddress
	case marketsRe.MatchString(text):
		return models.ActionMarkets
	case priceRe.MatchString(text):
		return models.ActionPrice
	default:
		return models.ActionUnknown
	}
}

// chainAliases maps chain words to provider platform ids.
var chainAliases = []struct {
	re       *regexp.Regexp
	platform string
}{
	{regexp.MustCompile(`(?i)\b(polygon|matic)\b`), "polygon-pos"},
	{regexp.MustCompile(`(?i)\b(bsc|bnb|binance)\b`), "binance-smart-chain"},
	{regexp.MustCompile(`(?i)\barbitrum\b`), "arbitrum-one"},
	{regexp.MustCompile(`(?i)\boptimism\b`), "optimistic-ethereum"},
	{regexp.MustCompile(`(?i)\b(avalanche|avax)\b`), "avalanche"},
	{regexp.MustCompile(`(?i)\bfantom\b`), "fantom"},
	{regexp.MustCompile(`(?i)\bon base\b`), "base"},
}

// ExtractChain returns the platform id named in text, "ethereum" when none is.
func ExtractChain(text string) string {
	for _, a := range chainAliases {
		if a.re.MatchString(text) {
			return a.platform
		}
	}
	return "ethereum"
}

// ExtractCategory returns the word next to "category", lowercased.
func ExtractCategory(text string) string {
	m := categoryRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if m[1] != "" && !strings.EqualFold(m[1], "the") {
		return strings.ToLower(m[1])
	}
	if m[2] != "" && !strings.EqualFold(m[2], "the") {
		return strings.ToLower(m[2])
	}
	return ""
}
