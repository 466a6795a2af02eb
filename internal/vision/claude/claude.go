package claude

import (
	"context"
	"fmt"
	"io"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/dugoutapp/dugout/internal/vision"
)

// maxTokens bounds the response; the suggestion object is a few dozen tokens.
const maxTokens = 256

type ClaudeAnalyzer struct {
	client *anthropic.Client
	model  string
}

// NewClaudeAnalyzer creates an analyzer backed by the Anthropic Messages API.
// opts is passed through to the client; tests use it to point at a local
// server.
func NewClaudeAnalyzer(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeAnalyzer {
	return &ClaudeAnalyzer{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (a *ClaudeAnalyzer) Suggest(ctx context.Context, r io.Reader, mimeType string) (*vision.Suggestion, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewImageMessageContent(
						anthropic.NewMessageContentSource(
							anthropic.MessagesContentSourceTypeBase64,
							normaliseMIME(mimeType),
							imageData,
						),
					),
					anthropic.NewTextMessageContent(vision.SuggestPrompt),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	return vision.ParseSuggestion(resp.GetFirstContentText())
}

// normaliseMIME maps browser MIME types to the values the Anthropic API
// accepts: jpeg, png, gif, and webp. Unknown types are coerced to jpeg as the
// most universally supported lossy fallback. Callers should validate MIME
// types before reaching this layer.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
