package intent

import (
	"regexp"
	"strings"
)

var (
	dollarTickerRe = regexp.MustCompile(`\$([A-Za-z][A-Za-z0-9]{0,14})\b`)
	isWorthRe      = regexp.MustCompile(`(?i)\bis\s+([a-zA-Z0-9-]+)\s+(?:a\s+)?(?:worth|good)`)
	wordRe         = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9-]*`)
)

// anchors are the words a coin reference usually follows: "buy X", "price of X".
var anchors = map[string]bool{
	"buy": true, "buying": true, "invest": true, "investing": true,
	"get": true, "getting": true, "price": true, "prices": true,
	"about": true, "much": true, "quote": true,
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "it": true, "its": true, "this": true, "that": true,
	"these": true, "those": true, "some": true, "more": true, "any": true, "my": true, "me": true,
	"of": true, "for": true, "in": true, "into": true, "on": true, "at": true, "to": true,
	"or": true, "and": true, "not": true, "with": true, "s": true, "is": true, "be": true,
	"i": true, "you": true, "we": true, "what": true, "whats": true, "how": true, "do": true,
	"should": true, "can": true, "would": true, "think": true, "still": true, "yet": true,
	"now": true, "rn": true, "today": true, "tomorrow": true, "right": true, "time": true,
	"current": true, "currently": true, "dip": true, "top": true, "bottom": true, "again": true,
	"crypto": true, "coin": true, "coins": true, "token": true, "tokens": true,
	"good": true, "worth": true, "potential": true, "value": true, "usd": true,
	"there": true, "here": true, "please": true, "pls": true, "hey": true, "hi": true,
}

// ExtractCoinQuery pulls the coin reference out of a chat message.
// A contract address wins, then $TICKER, then the first content word after an
// anchor such as "buy" or "price of". Empty when nothing fits.
func ExtractCoinQuery(text string) string {
	if addr, ok := ExtractAddress(text); ok {
		return addr
	}
	if m := dollarTickerRe.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}

	words := wordRe.FindAllString(text, -1)
	for i := range words {
		words[i] = strings.ToLower(strings.Trim(words[i], "-"))
	}
	for i, w := range words {
		if !anchors[w] {
			continue
		}
		if q := firstContentWord(words[i+1:]); q != "" {
			return q
		}
	}

	if m := isWorthRe.FindStringSubmatch(text); m != nil {
		if q := strings.ToLower(m[1]); !stopWords[q] && !anchors[q] {
			return q
		}
	}
	if m := commonCoinRe.FindString(text); m != "" {
		return strings.ToLower(m)
	}
	// A bare trailing ticker, as in "is it a good time? sol".
	if decisionKeywordRe.MatchString(text) || priceRe.MatchString(text) {
		for i := len(words) - 1; i >= 0; i-- {
			w := words[i]
			if n := len(w); n >= 3 && n <= 5 && isContentWord(w) {
				return w
			}
		}
	}
	return ""
}

func firstContentWord(words []string) string {
	for _, w := range words {
		if isContentWord(w) {
			return w
		}
	}
	return ""
}

func isContentWord(w string) bool {
	return w != "" && !stopWords[w] && !anchors[w]
}
