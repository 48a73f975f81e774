package ai

import "context"

// DefaultBaseURL is the completion endpoint used when no override is configured.
const DefaultBaseURL = "https://text.pollinations.ai"

// Fallback is returned in place of a reply when the upstream endpoint cannot
// be reached or answers with a non-success status.
const Fallback = "Sorry, I couldn't get a response at the moment. Please try again later."

// Provider turns a prompt into a plain-text reply. Implementations swallow
// transport and HTTP-status failures into Fallback; only a malformed response
// shape surfaces as an error.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
