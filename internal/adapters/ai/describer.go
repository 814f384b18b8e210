// Package ai wraps the OpenAI client for the admin content helpers.
package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var ErrNotConfigured = errors.New("OPENAI_API_KEY not set")

type Describer struct {
	client *openai.Client
}

func NewFromEnv() *Describer {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return &Describer{}
	}
	return &Describer{client: openai.NewClient(key)}
}

// Suggest drafts a short Vietnamese product description for the admin to edit.
func (d *Describer) Suggest(ctx context.Context, name, category string) (string, error) {
	if d == nil || d.client == nil {
		return "", ErrNotConfigured
	}
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Bạn là copywriter cho cửa hàng bán key phần mềm bản quyền tại Việt Nam. Viết mô tả sản phẩm ngắn gọn (tối đa 3 câu), không phóng đại.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Sản phẩm: %s. Danh mục: %s.", name, category),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
