package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/paddybishop/draw2real-magic-world/internal/config"
)

var (
	ErrNotConfigured    = errors.New("openai_not_configured")
	ErrEmptyDescription = errors.New("empty_description")
	ErrNoImageURL       = errors.New("no_image_url")
)

// describeInstruction asks the vision model for a single prompt-ready
// sentence: creature type, parts, colours, pose and background.
const describeInstruction = "You are a visual AI assistant helping a child turn their crayon drawing into a realistic image. " +
	"Look at the image carefully and describe it in a vivid, concrete sentence that includes: creature type, body parts, colours, pose, and background. " +
	"Focus on what an image generation model needs to recreate the drawing accurately. " +
	"Respond with one detailed prompt only, no preamble or follow-up."

// UpstreamError reports a non-success response from the provider.
type UpstreamError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("openai %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Client calls the vision and image synthesis endpoints.
type Client struct {
	cfg  config.OpenAIConfig
	http *http.Client
	log  *zap.Logger
}

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

// Module provides the OpenAI client.
var Module = fx.Module("providers.openai",
	fx.Provide(New),
)

func New(p Params) *Client {
	return &Client{
		cfg:  p.Cfg.OpenAI,
		http: &http.Client{Timeout: 120 * time.Second},
		log:  p.Log.Named("openai.client"),
	}
}

func (c *Client) configured() bool {
	return c.cfg.APIKey != ""
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []messagePart `json:"content"`
}

type messagePart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Describe sends the drawing to the vision model and returns one
// prompt-ready sentence describing it.
func (c *Client) Describe(ctx context.Context, imagePNG []byte) (string, error) {
	if !c.configured() {
		return "", ErrNotConfigured
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(imagePNG)
	reqBody := chatRequest{
		Model: c.cfg.VisionModel,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []messagePart{
					{Type: "text", Text: describeInstruction},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
		MaxTokens: 300,
	}

	var resp chatResponse
	if err := c.post(ctx, "describe", "/v1/chat/completions", reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyDescription
	}
	description := strings.TrimSpace(resp.Choices[0].Message.Content)
	if description == "" {
		return "", ErrEmptyDescription
	}
	return description, nil
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// Synthesize asks the image model for exactly one image rendered from
// prompt and returns the provider-hosted URL.
func (c *Client) Synthesize(ctx context.Context, prompt string) (string, error) {
	if !c.configured() {
		return "", ErrNotConfigured
	}

	reqBody := imageRequest{
		Model:          c.cfg.ImageModel,
		Prompt:         prompt,
		N:              1,
		Size:           c.cfg.ImageSize,
		ResponseFormat: "url",
	}

	var resp imageResponse
	if err := c.post(ctx, "synthesize", "/v1/images/generations", reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", ErrNoImageURL
	}
	return resp.Data[0].URL, nil
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("openai %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("openai %s: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("upstream error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
		)
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Message: upstreamMessage(raw)}
	}

	return json.Unmarshal(raw, out)
}

func upstreamMessage(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
