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

	"go.uber.org/zap"

	"github.com/vodscribe/vodscribe/internal/subtitle"
)

const (
	// verbose_json is the only response format that carries both
	// word-level and segment-level timings.
	responseFormat = "verbose_json"

	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "whisper-1"

	// Uploads of multi-hour opus files can legitimately take a while.
	defaultCallTimeout = 15 * time.Minute
)

// APIClient implements Client against an OpenAI-compatible
// audio/transcriptions endpoint.
type APIClient struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Retry      RetryPolicy
	Logger     *zap.Logger
}

// NewAPIClient builds a client with defaults for everything but the key.
func NewAPIClient(apiKey string, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIClient{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		Model:      defaultModel,
		HTTPClient: &http.Client{Timeout: defaultCallTimeout},
		Retry:      DefaultRetryPolicy(),
		Logger:     logger,
	}
}

// Transcribe uploads the audio file and normalizes the response. Transient
// failures are retried per the client's policy before surfacing as a
// TranscriptionError.
func (c *APIClient) Transcribe(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return Result{}, &TranscriptionError{Message: "audio path is required"}
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return Result{}, &TranscriptionError{Message: "API key is not configured"}
	}

	var result Result
	err := c.Retry.Do(ctx, c.Logger, func(ctx context.Context) error {
		var callErr error
		result, callErr = c.transcribeOnce(ctx, req)
		return callErr
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func (c *APIClient) transcribeOnce(ctx context.Context, req Request) (Result, error) {
	body, contentType, err := c.encodeRequest(req)
	if err != nil {
		return Result{}, &TranscriptionError{Message: err.Error(), Err: err}
	}

	endpoint := strings.TrimSuffix(c.baseURL(), "/") + "/audio/transcriptions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Result{}, &TranscriptionError{Message: "build request", Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", contentType)

	started := time.Now()
	c.Logger.Debug("sending audio to speech API", zap.String("audio", req.AudioPath), zap.String("endpoint", endpoint))

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		// Transport-level failures are worth another attempt unless the
		// caller gave up.
		return Result{}, &TranscriptionError{Message: "transport error", Transient: ctx.Err() == nil, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &TranscriptionError{Message: "read response body", Transient: true, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, &TranscriptionError{
			StatusCode: resp.StatusCode,
			Message:    apiErrorMessage(payload),
			Transient:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	result, err := decodeVerboseResponse(payload)
	if err != nil {
		return Result{}, &TranscriptionError{Message: err.Error(), Err: err}
	}

	c.Logger.Debug("speech API call finished",
		zap.String("audio", req.AudioPath),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("segments", len(result.Segments)),
		zap.Int("words", len(result.Words)),
	)
	return result, nil
}

func (c *APIClient) encodeRequest(req Request) (*bytes.Buffer, string, error) {
	audioFile, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio file: %w", err)
	}
	defer audioFile.Close()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)

	fields := map[string]string{
		"model":           c.model(),
		"response_format": responseFormat,
		"temperature":     strconv.FormatFloat(req.Temperature, 'f', -1, 64),
	}
	if lang := strings.TrimSpace(req.Language); lang != "" && lang != "auto" {
		fields["language"] = lang
	}
	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		fields["prompt"] = prompt
	}
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("encode field %s: %w", key, err)
		}
	}
	for _, granularity := range []string{"word", "segment"} {
		if err := mw.WriteField("timestamp_granularities[]", granularity); err != nil {
			return nil, "", fmt.Errorf("encode granularity: %w", err)
		}
	}

	fw, err := mw.CreateFormFile("file", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, "", fmt.Errorf("encode file part: %w", err)
	}
	if _, err := io.Copy(fw, audioFile); err != nil {
		return nil, "", fmt.Errorf("copy audio into request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize request body: %w", err)
	}

	return body, mw.FormDataContentType(), nil
}

func (c *APIClient) baseURL() string {
	if strings.TrimSpace(c.BaseURL) == "" {
		return defaultBaseURL
	}
	return c.BaseURL
}

func (c *APIClient) model() string {
	if strings.TrimSpace(c.Model) == "" {
		return defaultModel
	}
	return c.Model
}

func (c *APIClient) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return &http.Client{Timeout: defaultCallTimeout}
	}
	return c.HTTPClient
}

// verboseResponse mirrors the subset of the verbose_json shape the engine
// consumes.
type verboseResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Words []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Word  string  `json:"word"`
	} `json:"words"`
}

func decodeVerboseResponse(payload []byte) (Result, error) {
	var decoded verboseResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Result{}, fmt.Errorf("decode speech API response: %w", err)
	}

	result := Result{
		Text: strings.TrimSpace(decoded.Text),
		Raw:  json.RawMessage(payload),
	}
	for _, segment := range decoded.Segments {
		result.Segments = append(result.Segments, subtitle.NewUnit(
			secondsToDuration(segment.Start),
			secondsToDuration(segment.End),
			strings.TrimSpace(segment.Text),
			subtitle.Segment,
		))
	}
	for _, word := range decoded.Words {
		result.Words = append(result.Words, subtitle.NewUnit(
			secondsToDuration(word.Start),
			secondsToDuration(word.End),
			strings.TrimSpace(word.Word),
			subtitle.Word,
		))
	}
	return result, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func apiErrorMessage(payload []byte) string {
	var decoded struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &decoded); err == nil && decoded.Error.Message != "" {
		return decoded.Error.Message
	}
	return strings.TrimSpace(string(payload))
}
