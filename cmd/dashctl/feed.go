package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"indicator-dashboard/internal/feedsim"
	"indicator-dashboard/internal/model"
	redisstore "indicator-dashboard/internal/store/redis"
)

func feedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Feed tools",
	}

	var (
		symbols      []string
		timeframes   string
		interval     time.Duration
		live         bool
		sentinelRate float64
		seed         int64
	)
	simulate := &cobra.Command{
		Use:   "simulate",
		Short: "Publish synthetic indicator events to the feed channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tfs, err := parseTimeframes(timeframes)
			if err != nil {
				return err
			}
			gen, err := feedsim.New(feedsim.Config{
				Symbols:      symbols,
				Timeframes:   tfs,
				SentinelRate: sentinelRate,
				Live:         live,
				Seed:         seed,
			})
			if err != nil {
				return err
			}

			cfg := loadConfig()
			ctx, cancel := signalContext()
			defer cancel()

			rdb, err := redisstore.NewClient(ctx, redisstore.Config{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err != nil {
				return err
			}
			defer rdb.Close()
			pub := redisstore.NewPublisher(rdb, redisstore.PublisherConfig{
				FeedChannel:     cfg.FeedChannel,
				EmissionChannel: cfg.EmissionChannel,
			}, nil)

			log.Printf("[dashctl] simulating %v on %s every %s", symbols, cfg.FeedChannel, interval)
			return gen.Run(ctx, interval, pub.PublishEvent)
		},
	}
	simulate.Flags().StringSliceVar(&symbols, "symbols", []string{"NIFTY", "BANKNIFTY"}, "symbols to simulate")
	simulate.Flags().StringVar(&timeframes, "timeframes", "1m,5m,15m,1h", "comma-separated timeframes")
	simulate.Flags().DurationVar(&interval, "interval", time.Second, "time between steps")
	simulate.Flags().BoolVar(&live, "live", false, "emit partial ticks for forming bars")
	simulate.Flags().Float64Var(&sentinelRate, "sentinel-rate", 0.02, "probability of a no-data value")
	simulate.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")

	cmd.AddCommand(simulate)
	return cmd
}

// parseTimeframes accepts a comma-separated list; an empty string means none.
func parseTimeframes(s string) ([]model.Timeframe, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []model.Timeframe
	for _, part := range strings.Split(s, ",") {
		tf, ok := model.ParseTimeframe(part)
		if !ok {
			return nil, fmt.Errorf("unknown timeframe %q", strings.TrimSpace(part))
		}
		out = append(out, tf)
	}
	return out, nil
}
