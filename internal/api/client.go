// Package api is the HTTP client for the remote diagnosis endpoint.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rbright/arogya/internal/viewmodel"
)

const (
	defaultUploadPath = "/api/upload"
	defaultTimeout    = 120 * time.Second
	audioFilename     = "recording.wav"
)

// ErrNetwork marks a request that never produced a usable server answer.
var ErrNetwork = errors.New("request could not complete")

// ServerError is a response whose status field is not "success".
type ServerError struct {
	Message    string
	HTTPStatus int
}

func (e *ServerError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return fmt.Sprintf("diagnosis failed (HTTP %d)", e.HTTPStatus)
}

// Config controls the endpoint client.
type Config struct {
	BaseURL    string
	UploadPath string
	Timeout    time.Duration
	Logger     *slog.Logger

	// DebugResponseSinkJSON receives every upload response body, one per line.
	DebugResponseSinkJSON io.Writer
}

// Client talks to the diagnosis endpoint.
type Client struct {
	http       *resty.Client
	base       *url.URL
	uploadPath string
	debugSink  io.Writer
}

type uploadResponse struct {
	Status        string `json:"status"`
	Transcription string `json:"transcription"`
	Diagnosis     string `json:"diagnosis"`
	AudioResponse string `json:"audio_response"`
	Message       string `json:"message"`
}

// New validates cfg and builds a client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("endpoint base url is empty")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint base url %q: %w", raw, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("endpoint base url %q must be http or https", raw)
	}

	uploadPath := strings.TrimSpace(cfg.UploadPath)
	if uploadPath == "" {
		uploadPath = defaultUploadPath
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(raw, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", "arogya").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if cfg.Logger != nil {
		httpClient.SetLogger(restyLogger{logger: cfg.Logger})
	}

	return &Client{
		http:       httpClient,
		base:       base,
		uploadPath: uploadPath,
		debugSink:  cfg.DebugResponseSinkJSON,
	}, nil
}

// Diagnose uploads the recording and image in one multipart POST.
func (c *Client) Diagnose(ctx context.Context, recording, image viewmodel.Blob) (viewmodel.DiagnosisResult, error) {
	imageMIME := image.MIME
	if imageMIME == "" {
		imageMIME = "application/octet-stream"
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField("audio", audioFilename, "audio/wav", bytes.NewReader(recording.Data)).
		SetMultipartField("image", image.Name, imageMIME, bytes.NewReader(image.Data)).
		Post(c.uploadPath)
	if err != nil {
		return viewmodel.DiagnosisResult{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	body := resp.Body()
	c.writeDebug(body)

	var payload uploadResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return viewmodel.DiagnosisResult{}, fmt.Errorf("%w: decode response (HTTP %d): %v", ErrNetwork, resp.StatusCode(), err)
	}
	if payload.Status != "success" {
		return viewmodel.DiagnosisResult{}, &ServerError{Message: payload.Message, HTTPStatus: resp.StatusCode()}
	}

	return viewmodel.DiagnosisResult{
		Transcription: payload.Transcription,
		DiagnosisText: payload.Diagnosis,
		AudioReplyURL: payload.AudioResponse,
	}, nil
}

// Download fetches ref, resolved against the endpoint base URL, and returns
// its body and content type.
func (c *Client) Download(ctx context.Context, ref string) ([]byte, string, error) {
	target, err := c.Resolve(ref)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.http.R().SetContext(ctx).Get(target)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if resp.IsError() {
		return nil, "", fmt.Errorf("download %s: HTTP %d", target, resp.StatusCode())
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

// Resolve turns a possibly relative reference into an absolute URL.
func (c *Client) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty reference")
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference %q: %w", ref, err)
	}
	base := *c.base
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(parsed).String(), nil
}

// Ping reports whether the endpoint answers HTTP at all.
func (c *Client) Ping(ctx context.Context) (int, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return resp.StatusCode(), nil
}

func (c *Client) writeDebug(body []byte) {
	if c.debugSink == nil || len(body) == 0 {
		return
	}
	line := append([]byte(nil), body...)
	if line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}
	_, _ = c.debugSink.Write(line)
}

// restyLogger routes resty's printf-style logging into slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "http")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "http")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "http")
}
