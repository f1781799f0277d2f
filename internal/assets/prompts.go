// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time, keeping prompt wording out of Go source.
package assets

import (
	_ "embed"
)

// ModerationSystemPrompt instructs the vision model to score a single video
// frame against the content-safety categories.
//
//go:embed prompts/moderation-system.txt
var ModerationSystemPrompt string

// HighlightSystemPrompt instructs the reasoning model to refine engagement
// hotspots into clip boundaries with descriptive metadata.
//
//go:embed prompts/highlight-system.txt
var HighlightSystemPrompt string
