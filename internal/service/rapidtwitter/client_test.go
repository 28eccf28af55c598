package rapidtwitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinSense/internal/service/upstream"
)

func newTestClient(t *testing.T, limit int, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "rk", BaseURL: srv.URL, Limit: limit}, upstream.WithRetry(1, time.Millisecond))
}

func TestUserTweets(t *testing.T) {
	c := newTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/tweets", r.URL.Path)
		assert.Equal(t, "rk", r.Header.Get("X-RapidAPI-Key"))
		q := r.URL.Query()
		assert.Equal(t, "cobie", q.Get("username"))
		assert.Equal(t, "false", q.Get("include_replies"))
		assert.Equal(t, "false", q.Get("include_pinned"))
		_, _ = w.Write([]byte(`{"results":[
			{"tweet_id":"3","creation_date":"Mon Oct 14 09:30:00 +0000 2024","text":"gm","favorite_count":10,"retweet_count":2,"reply_count":1},
			{"tweet_id":"2","creation_date":"garbage","text":"second"},
			{"tweet_id":"1","creation_date":"Sun Oct 13 09:30:00 +0000 2024","text":"dropped"}
		]}`))
	})

	tweets, err := c.UserTweets(context.Background(), "@cobie")
	require.NoError(t, err)
	require.Len(t, tweets, 2)
	assert.Equal(t, "3", tweets[0].ID)
	assert.Equal(t, 10, tweets[0].Favorites)
	assert.True(t, time.Date(2024, 10, 14, 9, 30, 0, 0, time.UTC).Equal(tweets[0].CreatedAt))
	assert.True(t, tweets[1].CreatedAt.IsZero())
	assert.Equal(t, "garbage", tweets[1].RawCreatedAt)
}

func TestUserTweetsEmptyResults(t *testing.T) {
	c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	tweets, err := c.UserTweets(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, tweets)
}

func TestUserTweetsErrors(t *testing.T) {
	cases := map[int]error{
		http.StatusUnauthorized: upstream.ErrUnauthorized,
		http.StatusForbidden:    upstream.ErrUnauthorized,
		http.StatusNotFound:     upstream.ErrNotFound,
	}
	for code, want := range cases {
		c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})
		_, err := c.UserTweets(context.Background(), "cobie")
		assert.ErrorIs(t, err, want, "status %d", code)
	}

	c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not call upstream for a bad handle")
	})
	_, err := c.UserTweets(context.Background(), "not a handle")
	assert.ErrorIs(t, err, ErrInvalidUsername)
}
