package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/icntodo/todos/internal/logger"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-3.5-turbo"

	MinCount     = 1
	MaxCount     = 5
	DefaultCount = 3
)

// Leading bullet or numbering markup the model tends to prepend
var bulletPrefix = regexp.MustCompile(`^[-*\d.\s]+`)

type Config struct {
	// API key sent as bearer token
	// Required to be set
	APIKey string

	// BaseURL of the completion API
	// Override it in tests to point at a local server
	BaseURL string

	// Model name, default is used if empty
	Model string
}

// Client wraps the text completion API
// No retry, no caching: the API is treated as an opaque collaborator
type Client struct {
	apiKey  string
	baseURL string
	model   string

	client *http.Client
	logger logger.Logger
}

func NewClient(cfg Config, l logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{},
		logger:  l,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model string    `json:"model"`
	Input []message `json:"input"`
}

type completionResponse struct {
	Output []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// GenerateTasks asks the model for count short task suggestions on the topic
// count is clamped to [MinCount, MaxCount]
func (c *Client) GenerateTasks(ctx context.Context, topic string, count int) ([]string, error) {
	count = min(max(count, MinCount), MaxCount)

	prompt := fmt.Sprintf(
		`Topic: %q. Return exactly %d short, practical task suggestions as a plain list (no numbering metadata, no explanations).`,
		topic, count,
	)

	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Input: []message{
			{Role: "system", Content: "You generate concise, actionable todo suggestions."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Completion API returned unexpected status", "status_code", resp.StatusCode)
		return nil, fmt.Errorf("unexpected status code %d from completion API", resp.StatusCode)
	}

	var reply completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		c.logger.Warn("Failed to decode completion response", "error", err)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	suggestions := parseTasks(outputText(reply), count)
	c.logger.Debug("Completion response parsed", "topic", topic, "suggestions", len(suggestions))

	return suggestions, nil
}

// outputText glues the text fragments of the response together
func outputText(reply completionResponse) string {
	var sb strings.Builder
	for _, out := range reply.Output {
		for _, content := range out.Content {
			if content.Type == "output_text" {
				sb.WriteString(content.Text)
			}
		}
	}
	return sb.String()
}

// parseTasks splits the raw model text on line breaks, strips bullet or
// number markup, drops blanks and caps the result at count entries
func parseTasks(text string, count int) []string {
	tasks := make([]string, 0, count)

	for line := range strings.SplitSeq(text, "\n") {
		task := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if task == "" {
			continue
		}

		tasks = append(tasks, task)
		if len(tasks) == count {
			break
		}
	}

	return tasks
}
