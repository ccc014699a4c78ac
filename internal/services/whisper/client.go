package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"captiond/internal/services"
	"captiond/internal/subtitle"
)

const defaultRequestTimeout = 15 * time.Minute

// Config captures the runtime settings required to talk to the provider.
// Temperature defaults to 0.3: decoding stays permissive so quiet or
// mumbled speech is captured instead of suppressed.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float64
	TimeoutSeconds int
}

// Client wraps the provider's audio transcription API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	direct     *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithDirectClient overrides the client used for direct-path requests.
func WithDirectClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.direct = client
		}
	}
}

// NewClient constructs a transcription client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultRequestTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			Temperature:    cfg.Temperature,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.Temperature <= 0 {
		client.cfg.Temperature = 0.3
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.openai.com/v1"
	}
	if client.cfg.Model == "" {
		client.cfg.Model = "whisper-1"
	}
	if client.direct == nil {
		// A fresh connection per request sidesteps stale keep-alive state
		// when the pooled transport keeps hitting connection errors.
		client.direct = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		}
	}
	return client
}

type verboseSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type verboseResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
	Segments []verboseSegment `json:"segments"`
}

// Transcribe sends the audio file through the pooled HTTP client.
func (c *Client) Transcribe(ctx context.Context, audioPath, languageCode string) ([]subtitle.Subtitle, error) {
	return c.transcribe(ctx, c.httpClient, audioPath, languageCode)
}

// TranscribeDirect sends the audio file over a dedicated connection with
// keep-alives disabled. Used as an alternate path after connectivity
// failures on the pooled client.
func (c *Client) TranscribeDirect(ctx context.Context, audioPath, languageCode string) ([]subtitle.Subtitle, error) {
	return c.transcribe(ctx, c.direct, audioPath, languageCode)
}

func (c *Client) transcribe(ctx context.Context, httpClient *http.Client, audioPath, languageCode string) ([]subtitle.Subtitle, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "provider", "api key required", nil)
	}
	audioPath = strings.TrimSpace(audioPath)
	if audioPath == "" {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "provider", "audio path required", nil)
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "provider", "open audio", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("transcribe request: build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("transcribe request: read audio: %w", err)
	}
	fields := map[string]string{
		"model":           c.cfg.Model,
		"response_format": "verbose_json",
		"temperature":     strconv.FormatFloat(c.cfg.Temperature, 'f', -1, 64),
	}
	if code := strings.TrimSpace(languageCode); code != "" {
		fields["language"] = code
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("transcribe request: write field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("transcribe request: close form: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("transcribe request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcribe request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transcribe request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := services.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &services.HTTPStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
			RetryAfter: retryAfter,
		}
	}

	var parsed verboseResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("transcribe response: decode: %w", err)
	}
	return segmentsToSubtitles(parsed), nil
}

func segmentsToSubtitles(parsed verboseResponse) []subtitle.Subtitle {
	if len(parsed.Segments) == 0 {
		text := strings.TrimSpace(parsed.Text)
		if text == "" {
			return nil
		}
		end := parsed.Duration
		if end <= 0 {
			end = 5
		}
		return []subtitle.Subtitle{{Index: 1, Start: 0, End: end, Text: text}}
	}

	subs := make([]subtitle.Subtitle, 0, len(parsed.Segments))
	for _, segment := range parsed.Segments {
		text := strings.TrimSpace(segment.Text)
		if segment.End <= segment.Start {
			continue
		}
		subs = append(subs, subtitle.Subtitle{
			Start: segment.Start,
			End:   segment.End,
			Text:  text,
		})
	}
	subtitle.Reindex(subs)
	return subs
}
