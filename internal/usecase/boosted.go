package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"CoinSense/internal/domain/models"
	drepo "CoinSense/internal/domain/repository"
)

// BoostedTokensUseCase lists the top tokens of the on-chain feed.
type BoostedTokensUseCase struct {
	feed     drepo.TokenFeed
	networks []int
}

// NewBoostedTokensUseCase uses the feed's default networks when networks is empty.
func NewBoostedTokensUseCase(feed drepo.TokenFeed, networks []int) *BoostedTokensUseCase {
	return &BoostedTokensUseCase{feed: feed, networks: networks}
}

// Latest returns the current top tokens as address, symbol, name and price blocks.
func (u *BoostedTokensUseCase) Latest(ctx context.Context) (*models.Reply, error) {
	tokens, err := u.feed.TopTokens(ctx, u.networks)
	if err != nil {
		return nil, fmt.Errorf("fetch boosted tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("boosted tokens: %w", ErrNoResults)
	}

	var b strings.Builder
	for _, t := range tokens {
		fmt.Fprintf(&b, "Token Address: %s\nSymbol: %s\nName: %s\nPrice: $%s\n\n",
			t.Address, t.Symbol, t.Name, strconv.FormatFloat(t.Price, 'f', -1, 64))
	}
	return &models.Reply{Action: models.ActionBoostedTokens, Text: b.String(), Content: tokens}, nil
}
