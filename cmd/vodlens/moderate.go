package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/vodlens/internal/frames"
	"github.com/fpang/vodlens/internal/moderation"
	"github.com/fpang/vodlens/internal/providers"
	"github.com/fpang/vodlens/internal/retry"
	"github.com/fpang/vodlens/internal/sampling"
)

var (
	moderateAssetFlag      string
	moderateThresholdFlags []string
)

var moderateCmd = &cobra.Command{
	Use:   "moderate",
	Short: "Sample a video's timeline and aggregate content-safety scores",
	Run:   runModerate,
}

func init() {
	moderateCmd.Flags().StringVarP(&moderateAssetFlag, "asset", "a", "", "Asset ID to moderate (required)")
	moderateCmd.Flags().StringArrayVar(&moderateThresholdFlags, "threshold", nil, "Per-category threshold override, e.g. violence=0.6 (repeatable)")
	moderateCmd.MarkFlagRequired("asset")
	rootCmd.AddCommand(moderateCmd)
}

func runModerate(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := loadConfig()
	resolver := newResolver(ctx, cfg)

	scorer, err := providers.NewFrameScorer(ctx, providerConfig(ctx, cfg, resolver, cfg.ScoringProvider, cfg.ScoringModel))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create frame scorer")
	}

	client := newVideoClient(ctx, cfg, resolver)
	playbackID, err := client.PlaybackID(ctx, moderateAssetFlag)
	if err != nil {
		log.Fatal().Err(err).Str("asset", moderateAssetFlag).Msg("Failed to resolve playback ID")
	}

	width := cfg.FrameMaxDimension
	if width <= 0 {
		width = frames.DefaultMaxDimension
	}
	source := frames.NewStoryboardSource(
		frames.NewFetcher(cfg.FrameTimeout, cfg.FrameMaxDimension),
		func(_ string, seconds float64) string {
			return client.ThumbnailURL(playbackID, seconds, width)
		},
	)

	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.MaxRetries

	pipeline := moderation.NewPipeline(client, source, scorer, moderation.Options{
		Sampling: sampling.Options{
			IntervalSeconds: cfg.SamplingIntervalSeconds,
			MaxSamples:      cfg.MaxSamples,
		},
		Concurrency: cfg.Concurrency,
		Thresholds:  parseThresholds(moderateThresholdFlags),
		Retry:       &policy,
	})

	report, err := pipeline.Run(ctx, moderateAssetFlag)
	if err != nil {
		if report == nil {
			log.Fatal().Err(err).Msg("Moderation run failed")
		}
		log.Warn().Err(err).Msg("Moderation run incomplete, printing partial report")
	}

	printReport(report)
	saveReport(ctx, cfg, "moderation", report.AssetID, report.ID, report)
}

// parseThresholds turns "category=value" flags into an override map.
func parseThresholds(flags []string) map[string]float64 {
	if len(flags) == 0 {
		return nil
	}
	overrides := make(map[string]float64, len(flags))
	for _, flag := range flags {
		category, raw, ok := strings.Cut(flag, "=")
		if !ok {
			log.Fatal().Str("flag", flag).Msg("Threshold must be category=value")
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Fatal().Str("flag", flag).Msg("Threshold value must be a number")
		}
		overrides[category] = value
	}
	return overrides
}
