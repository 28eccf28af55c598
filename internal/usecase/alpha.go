package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CoinSense/internal/domain/models"
	drepo "CoinSense/internal/domain/repository"
	"CoinSense/pkg/util"
)

const maxTweetChars = 280

// AlphaUseCase relays what a crypto Twitter account posted recently.
type AlphaUseCase struct {
	feed drepo.SocialFeed
}

func NewAlphaUseCase(feed drepo.SocialFeed) *AlphaUseCase {
	return &AlphaUseCase{feed: feed}
}

// RecentTweets lists recent tweets of username as dated lines.
func (u *AlphaUseCase) RecentTweets(ctx context.Context, username string) (*models.Reply, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	tweets, err := u.feed.UserTweets(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(tweets) == 0 {
		return nil, fmt.Errorf("no recent tweets from @%s: %w", username, ErrNoResults)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent tweets from @%s:\n\n", username)
	for _, t := range tweets {
		fmt.Fprintf(&b, "[%s] %s\n", tweetDate(t), util.Truncate(t.Text, maxTweetChars))
	}
	content := map[string]interface{}{
		"tweets":    tweets,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	return &models.Reply{Action: models.ActionAlpha, Text: strings.TrimRight(b.String(), "\n"), Content: content}, nil
}

func tweetDate(t models.Tweet) string {
	if t.CreatedAt.IsZero() {
		return t.RawCreatedAt
	}
	return t.CreatedAt.Format("2006-01-02")
}
