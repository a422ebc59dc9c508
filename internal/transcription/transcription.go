// Package transcription talks to the speech-to-text service: publish a recording,
// poll until it is transcribed, then download the timed segments.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"closer-insights-go/internal/logger"
	"closer-insights-go/internal/types"
)

// ErrNotConfigured is returned when no service URL is set and mock mode is off.
var ErrNotConfigured = errors.New("TRANSCRIBE_URL not set")

type PublishResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		MediaID          string `json:"MediaId"`
		Status           string `json:"Status"`
		TranscriptionURL string `json:"TranscriptionURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type StatusResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		Status               string `json:"Status"`
		TranscriptionTextURL string `json:"TranscriptionTextURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

// HTTPDoer allows tests to fake HTTP transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	host         string
	mock         bool
	httpClient   HTTPDoer
	pollInterval time.Duration
	maxPolls     int
	requestLimit time.Duration
	log          *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(d HTTPDoer) Option { return func(c *Client) { c.httpClient = d } }

func WithPolling(interval time.Duration, max int) Option {
	return func(c *Client) {
		c.pollInterval = interval
		c.maxPolls = max
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient targets host. With mock set, Transcribe returns a canned call without
// touching the network.
func NewClient(host string, mock bool, opts ...Option) *Client {
	c := &Client{
		host:         strings.TrimRight(host, "/"),
		mock:         mock,
		httpClient:   &http.Client{Timeout: 12 * time.Second},
		pollInterval: 1500 * time.Millisecond,
		maxPolls:     40,
		requestLimit: 12 * time.Second,
		log:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe returns the timed transcript of the recording at audioURL.
func (c *Client) Transcribe(ctx context.Context, audioURL string) (types.ASRResult, error) {
	if c.mock {
		return MockResult(), nil
	}
	if c.host == "" {
		return types.ASRResult{}, ErrNotConfigured
	}
	log := c.log.WithField("audio_url", audioURL)

	mediaID, ready, err := c.publish(ctx, audioURL)
	if err != nil {
		return types.ASRResult{}, err
	}
	if ready == "" {
		ready, err = c.poll(ctx, mediaID)
		if err != nil {
			return types.ASRResult{}, err
		}
	}
	log.WithField("transcript_url", ready).Info("downloading transcript")
	return c.download(ctx, ready)
}

func (c *Client) publish(ctx context.Context, audioURL string) (mediaID, ready string, err error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	if err := w.WriteField("callRecordingLink", audioURL); err != nil {
		return "", "", err
	}
	if err := w.WriteField("callType", "SALES"); err != nil {
		return "", "", err
	}
	if err := w.Close(); err != nil {
		return "", "", err
	}
	body := b.Bytes()

	var resp PublishResponse
	err = c.doJSON(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/transcribe", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req, nil
	}, &resp)
	if err != nil {
		return "", "", err
	}
	if resp.Code != http.StatusOK {
		return "", "", fmt.Errorf("transcribe publish error: code=%d reason=%s", resp.Code, resp.Reason)
	}
	if resp.Data.TranscriptionURL != "" && strings.EqualFold(resp.Data.Status, "success") {
		return "", resp.Data.TranscriptionURL, nil
	}
	if resp.Data.MediaID == "" {
		return "", "", errors.New("transcribe publish error: no media id")
	}
	return resp.Data.MediaID, "", nil
}

func (c *Client) poll(ctx context.Context, mediaID string) (string, error) {
	u, err := url.Parse(c.host + "/getstatus")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("mediaId", mediaID)
	u.RawQuery = q.Encode()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for i := 0; i < c.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		var s StatusResponse
		err := c.doJSON(ctx, func() (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		}, &s)
		if err != nil {
			c.log.WithError(err).Debug("status check failed")
			continue
		}
		switch s.Data.Status {
		case "Success":
			return s.Data.TranscriptionTextURL, nil
		case "Failed":
			return "", fmt.Errorf("transcription failed: %s", s.Reason)
		}
	}
	return "", fmt.Errorf("transcription timeout after %d polls", c.maxPolls)
}

// download accepts either the segment JSON or a plain text transcript.
func (c *Client) download(ctx context.Context, target string) (types.ASRResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return types.ASRResult{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.ASRResult{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.ASRResult{}, err
	}
	if resp.StatusCode >= 300 {
		return types.ASRResult{}, fmt.Errorf("download failed: status %d: %s", resp.StatusCode, string(body))
	}

	var res types.ASRResult
	if err := json.Unmarshal(body, &res); err == nil && (len(res.Segments) > 0 || res.Text != "") {
		return res, nil
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return types.ASRResult{}, errors.New("download failed: empty transcript")
	}
	return types.ASRResult{Text: text}, nil
}

func (c *Client) doJSON(ctx context.Context, newReq func() (*http.Request, error), target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.requestLimit

	op := func() error {
		req, err := newReq()
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error: status %d: %s", resp.StatusCode, string(body))
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("client error: status %d: %s", resp.StatusCode, string(body)))
		}
		if len(body) == 0 {
			return errors.New("empty body")
		}
		if err := json.Unmarshal(body, target); err != nil {
			return backoff.Permanent(fmt.Errorf("json decode error: %w body=%s", err, string(body)))
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

// MockResult is a short two-party call used in mock mode.
func MockResult() types.ASRResult {
	segs := []types.ASRSegment{
		{Start: 0, End: 4.2, Text: "Hi, this is Sam from MyEdSpace, thanks for booking a call with us today."},
		{Start: 6.0, End: 9.5, Text: "Hi Sam, yes, I wanted to find out about maths support for my daughter."},
		{Start: 11.2, End: 16.0, Text: "Of course. What year is she in and how is she finding maths at the moment?"},
		{Start: 17.8, End: 22.4, Text: "She's in year 10 and she's on a grade 4, we're hoping for a 6."},
		{Start: 24.0, End: 30.5, Text: "That's really common. Our live classes are taught by an expert teacher and it's 80 pounds a month."},
		{Start: 32.1, End: 35.0, Text: "That sounds a bit expensive, I'd need to talk to my husband."},
	}
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, s.Text)
	}
	return types.ASRResult{Segments: segs, Text: strings.Join(parts, " "), Duration: 35.0}
}
