package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"CoinSense/internal/di"
	"CoinSense/internal/domain/models"
	"CoinSense/internal/usecase"
	"CoinSense/pkg/config"
	applogger "CoinSense/pkg/logger"
)

var configPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "coinsense",
		Short:         "Crypto buy/avoid decisions and market chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(serveCmd())
	root.AddCommand(decideCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(scoreCmd())
	return root
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if _, err := os.Stat(path); err != nil && os.IsNotExist(err) {
		// run on defaults and environment when the file is absent
		path = ""
	}
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, websocket and Kafka chat service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			return app.Run()
		},
	}
}

// toolkit builds the offline graph with a quiet console logger.
func toolkit() (*di.Toolkit, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	l, err := applogger.New(&applogger.Config{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		return nil, err
	}
	return di.NewToolkit(cfg, l)
}

func decideCmd() *cobra.Command {
	var (
		persona string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:     "decide <coin>",
		Short:   "Score a coin and print BUY, AVOID or HOLD OFF",
		Example: "  coinsense decide pepe --persona murad\n  coinsense decide 0x6982508145454ce325ddbe47a25d4ec3d2311933",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := toolkit()
			if err != nil {
				return err
			}
			defer tk.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			d, err := tk.Decision.Evaluate(ctx, strings.Join(args, " "), persona)
			if err != nil {
				return fmt.Errorf("%s (%w)", usecase.FailureText(err), err)
			}
			s := d.Result.Scores
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) persona=%s\n", d.Coin.Name, strings.ToUpper(d.Coin.Symbol), d.Result.Persona)
			fmt.Fprintf(cmd.OutOrStdout(), "trending=%.2f market_cap=%.2f liquidity=%.2f stability=%.2f total=%.2f\n\n",
				s.Trending, s.MarketCap, s.Liquidity, s.Stability, s.Total)
			fmt.Fprintln(cmd.OutOrStdout(), usecase.FormatDecision(d.Result))
			return nil
		},
	}
	cmd.Flags().StringVar(&persona, "persona", "", "persona voicing the reasoning, empty for decision.default_persona")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall request timeout")
	return cmd
}

func chatCmd() *cobra.Command {
	var (
		persona string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:     "chat <message>",
		Short:   "Route one chat message and print the reply",
		Example: "  coinsense chat \"what's trending\"\n  coinsense chat \"should I buy PEPE\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := toolkit()
			if err != nil {
				return err
			}
			defer tk.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			reply := tk.Chat.Reply(ctx, models.ChatMessage{
				ID:      "cli",
				UserID:  "cli",
				Text:    strings.Join(args, " "),
				Persona: persona,
				SentAt:  time.Now().UTC(),
			})
			fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&persona, "persona", "", "persona for decision replies, empty for decision.default_persona")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall request timeout")
	return cmd
}

// scoreCmd runs the engine on given metrics without calling any provider.
func scoreCmd() *cobra.Command {
	var persona string
	var rank, mcap, volume, volatility float64
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score raw metrics offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := di.BuildEngine(cfg.Decision)
			if err != nil {
				return err
			}
			in := models.MetricsInput{}
			if cmd.Flags().Changed("rank") {
				in.RankSignal = models.Float(rank)
			}
			if cmd.Flags().Changed("market-cap") {
				in.MarketCapUSD = models.Float(mcap)
			}
			if cmd.Flags().Changed("volume") {
				in.Volume24hUSD = models.Float(volume)
			}
			if cmd.Flags().Changed("volatility") {
				in.VolatilityPct = models.Float(volatility)
			}
			res := e.Evaluate(in, persona)
			fmt.Fprintf(cmd.OutOrStdout(), "total=%.2f\n%s\n", res.Scores.Total, usecase.FormatDecision(res))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&persona, "persona", "", "persona voicing the reasoning, empty for decision.default_persona")
	f.Float64Var(&rank, "rank", 0, "rank signal, lower is hotter")
	f.Float64Var(&mcap, "market-cap", 0, "market cap in USD")
	f.Float64Var(&volume, "volume", 0, "24h volume in USD")
	f.Float64Var(&volatility, "volatility", 0, "24h price change in percent")
	return cmd
}
