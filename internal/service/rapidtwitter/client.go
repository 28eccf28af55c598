// Package rapidtwitter fetches recent posts of a Twitter user through the twitter154 RapidAPI proxy.
package rapidtwitter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"CoinSense/internal/domain/models"
	"CoinSense/internal/service/upstream"
	"CoinSense/pkg/util"
)

const (
	DefaultBaseURL = "https://twitter154.p.rapidapi.com"
	keyHeader      = "X-RapidAPI-Key"
)

var ErrInvalidUsername = errors.New("invalid twitter username")

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Limit   int // tweets kept per call, 10 when zero
}

// Client implements repository.SocialFeed.
type Client struct {
	base  *upstream.Base
	limit int
}

func New(cfg Config, opts ...upstream.Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	return &Client{
		base: upstream.New(upstream.Config{
			Name:    "rapidtwitter",
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			RPS:     cfg.RPS,
			Burst:   1,
			Headers: map[string]string{keyHeader: cfg.APIKey},
		}, opts...),
		limit: cfg.Limit,
	}
}

type tweetsResponse struct {
	Results []struct {
		TweetID       string `json:"tweet_id"`
		CreationDate  string `json:"creation_date"`
		Text          string `json:"text"`
		FavoriteCount int    `json:"favorite_count"`
		RetweetCount  int    `json:"retweet_count"`
		ReplyCount    int    `json:"reply_count"`
	} `json:"results"`
}

// UserTweets returns the latest original tweets of username, newest first as the proxy orders them.
// A leading @ is accepted. An unknown user surfaces as upstream.ErrNotFound.
func (c *Client) UserTweets(ctx context.Context, username string) ([]models.Tweet, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if !usernameRe.MatchString(username) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}

	q := url.Values{
		"username":        {username},
		"include_replies": {"false"},
		"include_pinned":  {"false"},
	}
	var raw tweetsResponse
	if err := c.base.GetJSON(ctx, "/user/tweets", q, &raw); err != nil {
		return nil, err
	}

	n := len(raw.Results)
	if n > c.limit {
		n = c.limit
	}
	out := make([]models.Tweet, 0, n)
	for _, r := range raw.Results[:n] {
		t := models.Tweet{
			ID:           r.TweetID,
			Text:         r.Text,
			Favorites:    r.FavoriteCount,
			Retweets:     r.RetweetCount,
			Replies:      r.ReplyCount,
			RawCreatedAt: r.CreationDate,
		}
		if ts, ok := util.ParseTime(r.CreationDate); ok {
			t.CreatedAt = ts.UTC()
		}
		out = append(out, t)
	}
	return out, nil
}
