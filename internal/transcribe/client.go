package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// transcribePath is the upload endpoint on the backend server.
const transcribePath = "/api/transcribe"

// Client posts audio to a koescribe API server. The request is awaited
// until it resolves or the transport reports failure; no local timeout
// is enforced, since large models can legitimately run for minutes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// apiResponse mirrors the backend's success body. Pointer fields let a
// missing "text" be told apart from an empty transcript.
type apiResponse struct {
	Text           *string   `json:"text"`
	FileName       *string   `json:"fileName"`
	ProcessingTime *float64  `json:"processingTime"`
	Segments       []Segment `json:"segments"`
}

type apiError struct {
	Detail string `json:"detail"`
}

func (c *Client) Transcribe(ctx context.Context, req Request) (*Result, error) {
	file, err := req.File.Open()
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", req.File.Name)
	if err != nil {
		return nil, fmt.Errorf("build upload body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	writer.WriteField("model", req.ModelSize)
	writer.WriteField("language", req.Language)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcribePath, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug("sending transcription request",
		zap.String("url", c.baseURL+transcribePath),
		zap.String("file", req.File.Name),
		zap.String("model", req.ModelSize),
		zap.String("language", req.Language),
	)
	started := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("transcription request failed", zap.Error(err))
		return nil, NewFailure(FailureTransport, "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewFailure(FailureTransport, "")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		c.logger.Warn("server rejected transcription",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", apiErr.Detail),
		)
		return nil, NewFailure(FailureServer, strings.TrimSpace(apiErr.Detail))
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, NewFailure(FailureMalformed, "")
	}
	if decoded.Text == nil || decoded.FileName == nil {
		return nil, NewFailure(FailureMalformed, "")
	}

	result := &Result{
		Text:     *decoded.Text,
		FileName: *decoded.FileName,
		Segments: decoded.Segments,
	}
	if decoded.ProcessingTime != nil {
		result.ProcessingTimeSeconds = *decoded.ProcessingTime
	}

	c.logger.Info("transcription finished",
		zap.Duration("round_trip", time.Since(started)),
		zap.Float64("processing_seconds", result.ProcessingTimeSeconds),
	)
	return result, nil
}
