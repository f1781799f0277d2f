package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/vodlens/internal/frames"
	"github.com/fpang/vodlens/internal/highlights"
	"github.com/fpang/vodlens/internal/providers"
	"github.com/fpang/vodlens/internal/retry"
)

var (
	highlightsAssetFlag    string
	highlightsHotspotsFlag string
)

var highlightsCmd = &cobra.Command{
	Use:   "highlights",
	Short: "Turn engagement hotspots into short highlight clips",
	Long: `highlights reads engagement hotspots for an asset, asks a reasoning
provider for clip boundaries covering them, and creates a derived clip
asset for each boundary.

The hotspots file is a JSON array:
  [{"start_ms": 10000, "end_ms": 25000, "score": 0.92}, ...]`,
	Run: runHighlights,
}

func init() {
	highlightsCmd.Flags().StringVarP(&highlightsAssetFlag, "asset", "a", "", "Asset ID to clip (required)")
	highlightsCmd.Flags().StringVar(&highlightsHotspotsFlag, "hotspots", "", "Path to hotspots JSON file (required)")
	highlightsCmd.MarkFlagRequired("asset")
	highlightsCmd.MarkFlagRequired("hotspots")
	rootCmd.AddCommand(highlightsCmd)
}

func runHighlights(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := loadConfig()
	resolver := newResolver(ctx, cfg)

	hotspots := readHotspots(highlightsHotspotsFlag)

	reasoner, err := providers.NewReasoner(ctx, providerConfig(ctx, cfg, resolver, cfg.ReasoningProvider, cfg.ReasoningModel))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create reasoner")
	}

	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.MaxRetries
	synth := highlights.NewSynthesizer(reasoner, policy)

	client := newVideoClient(ctx, cfg, resolver)
	playbackID, err := client.PlaybackID(ctx, highlightsAssetFlag)
	if err != nil {
		log.Fatal().Err(err).Str("asset", highlightsAssetFlag).Msg("Failed to resolve playback ID")
	}
	width := cfg.FrameMaxDimension
	if width <= 0 {
		width = frames.DefaultMaxDimension
	}
	frameURL := func(_ string, seconds float64) string {
		return client.ThumbnailURL(playbackID, seconds, width)
	}

	pipeline := highlights.NewPipeline(client, synth, client, frameURL, highlights.PipelineOptions{
		LanguageCode:    cfg.LanguageCode,
		MinClipDuration: cfg.MinClipDuration,
		MaxClipDuration: cfg.MaxClipDuration,
		TargetDuration:  cfg.TargetClipDuration,
	})

	report, err := pipeline.Run(ctx, highlightsAssetFlag, hotspots)
	if err != nil {
		log.Fatal().Err(err).Msg("Highlight run failed")
	}

	printReport(report)
	saveReport(ctx, cfg, "highlights", report.AssetID, report.ID, report)
}

func readHotspots(path string) []highlights.Hotspot {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to read hotspots file")
	}
	var hotspots []highlights.Hotspot
	if err := json.Unmarshal(raw, &hotspots); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Hotspots file is not a JSON array of hotspots")
	}
	return hotspots
}
