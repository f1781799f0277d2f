package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/vodlens/internal/artifacts"
	"github.com/fpang/vodlens/internal/config"
	"github.com/fpang/vodlens/internal/credentials"
	"github.com/fpang/vodlens/internal/logging"
	"github.com/fpang/vodlens/internal/providers"
	"github.com/fpang/vodlens/internal/videoapi"
)

var rootCmd = &cobra.Command{
	Use:   "vodlens",
	Short: "AI-assisted video analysis: moderation scores and highlight clips",
	Long: `vodlens samples a hosted video's timeline, scores the sampled frames with
an AI vision provider, and either aggregates moderation scores or turns
engagement hotspots into short highlight clips.

Examples:
  vodlens moderate --asset abc123
  vodlens moderate --asset abc123 --threshold violence=0.6
  vodlens highlights --asset abc123 --hotspots hotspots.json`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err == nil {
			log.Debug().Msg("Loaded .env file")
		}
		logging.Init()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig builds and validates the run configuration.
func loadConfig() config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	return cfg
}

// credentialNames maps credential names to their environment variables.
var credentialNames = map[string]string{
	"gemini-api-key":     "GEMINI_API_KEY",
	"openai-api-key":     "OPENAI_API_KEY",
	"anthropic-api-key":  "ANTHROPIC_API_KEY",
	"hive-api-key":       "HIVE_API_KEY",
	"video-token-id":     "VIDEO_API_TOKEN_ID",
	"video-token-secret": "VIDEO_API_TOKEN_SECRET",
}

// newResolver builds the credential chain: environment first, then SSM
// Parameter Store when a parameter prefix is configured.
func newResolver(ctx context.Context, cfg config.Config) *credentials.Resolver {
	sources := []credentials.Source{credentials.EnvSource(credentialNames)}
	if cfg.SSMParamPrefix != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load AWS config for SSM credential source")
		}
		params := make(map[string]string, len(credentialNames))
		for name := range credentialNames {
			params[name] = cfg.SSMParamPrefix + "/" + name
		}
		sources = append(sources, credentials.NewSSMSource(ssm.NewFromConfig(awsCfg), params))
	}
	return credentials.NewResolver(sources...)
}

// providerKeyName returns the credential name for a provider tag.
func providerKeyName(tag providers.Tag) string {
	if tag == providers.TagGoogle {
		return "gemini-api-key"
	}
	return string(tag) + "-api-key"
}

func providerConfig(ctx context.Context, cfg config.Config, resolver *credentials.Resolver, tag providers.Tag, model string) providers.Config {
	key, err := resolver.Resolve(ctx, providerKeyName(tag))
	if err != nil {
		log.Fatal().Err(err).Str("provider", string(tag)).Msg("Provider API key not found")
	}
	return providers.Config{
		Provider: tag,
		Model:    model,
		APIKey:   key,
		Timeout:  cfg.ProviderTimeout,
	}
}

func newVideoClient(ctx context.Context, cfg config.Config, resolver *credentials.Resolver) *videoapi.Client {
	tokenID, err := resolver.Resolve(ctx, "video-token-id")
	if err != nil {
		log.Fatal().Err(err).Msg("Video API token ID not found")
	}
	tokenSecret, err := resolver.Resolve(ctx, "video-token-secret")
	if err != nil {
		log.Fatal().Err(err).Msg("Video API token secret not found")
	}
	return videoapi.NewClient(videoapi.Config{
		TokenID:       tokenID,
		TokenSecret:   tokenSecret,
		APIBaseURL:    cfg.VideoAPIBaseURL,
		StreamBaseURL: cfg.VideoStreamBaseURL,
		ImageBaseURL:  cfg.VideoImageBaseURL,
	})
}

// printReport writes the report as indented JSON to stdout.
func printReport(report any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode report")
	}
}

// saveReport persists the report when an artifact bucket is configured.
func saveReport(ctx context.Context, cfg config.Config, kind, assetID, reportID string, report any) {
	if cfg.ArtifactBucket == "" {
		return
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load AWS config, report not persisted")
		return
	}
	store := artifacts.NewStore(s3.NewFromConfig(awsCfg), cfg.ArtifactBucket, cfg.ArtifactPrefix)
	key, err := store.Save(ctx, kind, assetID, reportID, report)
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist report")
		return
	}
	fmt.Fprintf(os.Stderr, "Report saved to s3://%s/%s\n", cfg.ArtifactBucket, key)
}
