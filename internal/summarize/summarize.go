// Package summarize calls a generateContent-style LLM endpoint to summarize a transcript.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hpungsan/voxnote/internal/config"
	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/note"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 4 << 20

// Client summarizes transcripts. At most one request is outstanding;
// a second call while one is in flight fails with BUSY.
type Client struct {
	Endpoint     string
	ResponsePath string
	HTTP         *http.Client
	Logger       *slog.Logger

	inFlight atomic.Bool
}

// New builds a client from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := time.Duration(cfg.SummaryTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		Endpoint:     cfg.SummaryEndpoint,
		ResponsePath: cfg.SummaryResponsePath,
		HTTP:         &http.Client{Timeout: timeout},
		Logger:       logger,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type request struct {
	Contents []content `json:"contents"`
}

// Prompt builds the instruction sent with a transcript.
func Prompt(transcript, format string) string {
	style := "Summarize the key points as a bulleted list, one point per line starting with \"- \"."
	if format == note.SummaryParagraph {
		style = "Summarize the whole conversation in natural paragraphs."
	}
	return "The following is a transcript of a meeting or conversation. " + style + "\n\n---\n" + transcript
}

// Summarize sends transcript (plain text) and returns the summary text.
// The caller decides what to do with the result; a failure never touches
// the note's existing summary.
func (c *Client) Summarize(ctx context.Context, transcript, format, apiKey string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", errors.NewMissingCredential()
	}
	if strings.TrimSpace(transcript) == "" {
		return "", errors.NewEmptyTranscript()
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return "", errors.NewBusy("summarization")
	}
	defer c.inFlight.Store(false)

	endpoint, err := withKey(c.Endpoint, apiKey)
	if err != nil {
		return "", errors.NewSummaryFailed(fmt.Sprintf("invalid endpoint: %v", err), 0)
	}

	body, err := json.Marshal(request{Contents: []content{{Parts: []part{{Text: Prompt(transcript, format)}}}}})
	if err != nil {
		return "", errors.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.NewSummaryFailed(fmt.Sprintf("build request: %v", err), 0)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.logger().Warn("summary request failed", "error", err)
		return "", errors.NewSummaryFailed(fmt.Sprintf("request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", errors.NewSummaryFailed(fmt.Sprintf("read response: %v", err), resp.StatusCode)
	}
	c.logger().Debug("summary response", "status", resp.StatusCode, "duration", time.Since(start))

	var root any
	decodeErr := json.Unmarshal(respBody, &root)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ""
		if decodeErr == nil {
			msg, _ = extractByPath(root, "error.message")
		}
		if msg == "" {
			msg = fmt.Sprintf("summary service returned HTTP %d", resp.StatusCode)
		}
		return "", errors.NewSummaryFailed(msg, resp.StatusCode)
	}

	if decodeErr != nil {
		return "", errors.NewSummaryFailed(fmt.Sprintf("invalid response JSON: %v", decodeErr), resp.StatusCode)
	}
	text, ok := extractByPath(root, c.ResponsePath)
	if !ok {
		return "", errors.NewSummaryFailed(fmt.Sprintf("response has no text at %s", c.ResponsePath), resp.StatusCode)
	}
	return text, nil
}

// InFlight reports whether a request is outstanding.
func (c *Client) InFlight() bool {
	return c.inFlight.Load()
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func withKey(endpoint, apiKey string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("endpoint %q is not an absolute URL", endpoint)
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
