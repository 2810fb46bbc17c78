// Package ai implements the client for the hosted generative-AI service that
// extracts line items from receipt photos and normalizes them into canonical
// product names. The reconciliation pipeline never calls this package; it is
// an upstream collaborator invoked by the HTTP boundary on behalf of clients.
//
// Failure policy: rate-limited calls are retried up to 2 times with a 3s
// backoff; other transient failures once with a shorter backoff. Invalid or
// placeholder API keys surface as ErrAuthRequired so the caller can prompt
// for setup instead of showing a generic error. Normalization degrades to an
// empty result on failure; extraction does not.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/kakakulog/kakaku-backend/internal/domain"
)

// DefaultBaseURL is the Gemini REST endpoint prefix.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModel is the extraction/normalization model used when none is
// configured.
const DefaultModel = "gemini-3-flash-preview"

var (
	// ErrAuthRequired marks missing, placeholder, or rejected API keys. The
	// caller should re-prompt for credentials, not retry.
	ErrAuthRequired = errors.New("ai auth required")

	// ErrRateLimited is returned after the rate-limit retry budget is spent.
	ErrRateLimited = errors.New("ai rate limited")

	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("ai returned empty response")
)

var aiRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ai_requests_total",
		Help: "Total number of generative-AI calls by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(aiRequests)
}

const extractionPrompt = `
あなたは日本のスーパーのレシート解析の専門家です。
画像から、商品行を抽出し、以下のJSON形式で出力してください。
商品名と思われる文字列と、価格と思われる数値を抽出してください。
行全体のテキストも「rawLine」として残してください。

【出力形式】
{
  "storeName": "店舗名（不明ならnull）",
  "items": [
    {
      "rawLine": "行全体のテキスト",
      "rawProductName": "抽出した商品名",
      "rawPrice": 123,
      "rawQty": "数量（あれば）"
    }
  ]
}
`

const normalizationPrompt = `
あなたは商品データ正規化の専門家です。
提供された生のレシート抽出データ（rawItems）を、検索に適した「正規形式」に変換してください。

【ルール】
1. 誤字脱字や表記ゆれを修正してください（例：ピーモン→ピーマン、ﾎｳﾚﾝｿｳ→ほうれん草）。
2. 略語を補完してください。
3. 商品名を「正規名称（normalizedName）」と「属性（attributes）」に分解してください。
   - normalizedName: 検索キーワードになる一般的で短い名称（例：キャベツ、牛乳）
   - attributes: 産地、内容量、サイズ、等級など（例：群馬県産、1L、国産）
4. 信頼度（confidence: 0.0〜1.0）と、その変換を行った理由（reason）を添えてください。

【入力コンテキスト】
店舗名: {{storeName}}
地域: {{region}}

【出力形式】
{
  "normalizedItems": [
    {
      "rawIndex": 0,
      "normalizedName": "正規名称",
      "attributes": ["属性1", "属性2"],
      "price": 123,
      "confidence": 0.95,
      "reason": "理由"
    }
  ]
}
`

// IsPlaceholderKey reports whether an API key value must be treated as "not
// configured": empty, the AI Studio free-tier placeholder, or a template
// value that was never replaced.
func IsPlaceholderKey(key string) bool {
	return key == "" || key == "AI Studio Free Tier" || strings.Contains(key, "YOUR_API_KEY")
}

// Client calls the Gemini REST API. The zero value is not usable; construct
// with NewClient. Fields are exported so tests can point the client at a
// stub server and zero out the backoffs.
type Client struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client

	// Retry policy. RateLimitRetries applies to 429s, TransientRetries to
	// everything else retryable. Normalization retries on a shorter backoff
	// than extraction because its failures degrade instead of surfacing.
	RateLimitRetries int
	TransientRetries int
	RateLimitBackoff time.Duration
	TransientBackoff time.Duration
	NormalizeBackoff time.Duration

	// Sleep is swappable for tests; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// NewClient constructs a Client with the production retry policy.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		APIKey:           apiKey,
		Model:            model,
		BaseURL:          DefaultBaseURL,
		HTTPClient:       &http.Client{Timeout: 60 * time.Second},
		RateLimitRetries: 2,
		TransientRetries: 1,
		RateLimitBackoff: 3 * time.Second,
		TransientBackoff: 2 * time.Second,
		NormalizeBackoff: time.Second,
		Sleep:            time.Sleep,
	}
}

// ExtractedItem is one line-level result of receipt extraction.
type ExtractedItem struct {
	RawLine        string `json:"rawLine"`
	RawProductName string `json:"rawProductName,omitempty"`
	RawPrice       *int64 `json:"rawPrice,omitempty"`
	RawQty         string `json:"rawQty,omitempty"`
}

// ExtractResult is the parsed extraction response for one receipt image.
type ExtractResult struct {
	StoreName string          `json:"storeName"`
	Date      string          `json:"date,omitempty"`
	Items     []ExtractedItem `json:"items"`
}

// StoreContext gives the normalizer hints about where a receipt came from.
type StoreContext struct {
	StoreName string
	Region    string
}

// NormalizedItem is one canonicalized line item.
type NormalizedItem struct {
	RawIndex       int      `json:"rawIndex"`
	NormalizedName string   `json:"normalizedName"`
	Attributes     []string `json:"attributes"`
	Price          int64    `json:"price"`
	Confidence     float64  `json:"confidence"`
	Reason         string   `json:"reason"`
}

// NormalizeResult is the parsed normalization response.
type NormalizeResult struct {
	NormalizedItems []NormalizedItem `json:"normalizedItems"`
}

// ExtractRawItems sends a receipt image (base64 JPEG) for line-item
// extraction and parses the model's JSON reply.
func (c *Client) ExtractRawItems(ctx context.Context, imageBase64 string) (*ExtractResult, error) {
	if IsPlaceholderKey(c.APIKey) {
		return nil, ErrAuthRequired
	}

	parts := []part{
		{Text: extractionPrompt},
		{InlineData: &inlineData{MimeType: "image/jpeg", Data: imageBase64}},
	}
	text, err := c.generate(ctx, "extract", c.TransientBackoff, parts)
	if err != nil {
		return nil, err
	}

	var out ExtractResult
	if err := json.Unmarshal(extractJSON(text), &out); err != nil {
		aiRequests.WithLabelValues("extract", "bad_json").Inc()
		return nil, fmt.Errorf("malformed extraction response: %w", err)
	}
	return &out, nil
}

// NormalizeItems converts raw extraction results into canonical names and
// attributes. An empty input short-circuits without a network call, and any
// failure degrades to an empty result: normalization is best-effort by
// contract, the raw items are already safe in the RawImport record.
func (c *Client) NormalizeItems(ctx context.Context, rawItems []domain.RawItem, storeCtx StoreContext) *NormalizeResult {
	if len(rawItems) == 0 {
		return &NormalizeResult{NormalizedItems: []NormalizedItem{}}
	}
	if IsPlaceholderKey(c.APIKey) {
		return &NormalizeResult{NormalizedItems: []NormalizedItem{}}
	}

	prompt := strings.NewReplacer(
		"{{storeName}}", orUnknown(storeCtx.StoreName),
		"{{region}}", orUnknown(storeCtx.Region),
	).Replace(normalizationPrompt)

	payload, err := json.Marshal(rawItems)
	if err != nil {
		return &NormalizeResult{NormalizedItems: []NormalizedItem{}}
	}

	parts := []part{{Text: prompt}, {Text: string(payload)}}
	text, err := c.generate(ctx, "normalize", c.NormalizeBackoff, parts)
	if err != nil {
		log.Warn().Err(err).Msg("normalizeItems degraded to empty result")
		return &NormalizeResult{NormalizedItems: []NormalizedItem{}}
	}

	var out NormalizeResult
	if err := json.Unmarshal(extractJSON(text), &out); err != nil {
		aiRequests.WithLabelValues("normalize", "bad_json").Inc()
		log.Warn().Err(err).Msg("normalizeItems returned malformed JSON")
		return &NormalizeResult{NormalizedItems: []NormalizedItem{}}
	}
	if out.NormalizedItems == nil {
		out.NormalizedItems = []NormalizedItem{}
	}
	return &out
}

//
// Wire types (Gemini generateContent)
//

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"response_mime_type,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// generate performs one instrumented generateContent call with the bounded
// retry policy described in the package comment.
func (c *Client) generate(ctx context.Context, op string, transientBackoff time.Duration, parts []part) (string, error) {
	rateLeft := c.RateLimitRetries
	transientLeft := c.TransientRetries

	for {
		text, retryable, err := c.once(ctx, parts)
		if err == nil {
			aiRequests.WithLabelValues(op, "ok").Inc()
			return text, nil
		}
		if errors.Is(err, ErrAuthRequired) {
			aiRequests.WithLabelValues(op, "auth").Inc()
			return "", err
		}
		if errors.Is(err, ErrRateLimited) {
			if rateLeft > 0 {
				rateLeft--
				c.sleep(c.RateLimitBackoff)
				continue
			}
			aiRequests.WithLabelValues(op, "rate_limited").Inc()
			return "", err
		}
		if retryable && transientLeft > 0 {
			transientLeft--
			c.sleep(transientBackoff)
			continue
		}
		aiRequests.WithLabelValues(op, "error").Inc()
		return "", err
	}
}

// once performs a single HTTP round trip. The bool result reports whether the
// failure is transient and eligible for the shorter retry path.
func (c *Client) once(ctx context.Context, parts []part) (string, bool, error) {
	reqBody := generateRequest{
		Contents:         []content{{Parts: parts}},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	}
	buf, err := json.Marshal(reqBody)
	if err != nil {
		return "", false, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.BaseURL, "/"), c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", true, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", false, ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusUnauthorized:
		return "", false, fmt.Errorf("%w: %s", ErrAuthRequired, truncateErr(body))
	case resp.StatusCode != http.StatusOK:
		return "", true, fmt.Errorf("ai call failed with status %d: %s", resp.StatusCode, truncateErr(body))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, fmt.Errorf("malformed ai response: %w", err)
	}
	if parsed.Error != nil {
		if strings.Contains(parsed.Error.Message, "API key not valid") {
			return "", false, fmt.Errorf("%w: %s", ErrAuthRequired, parsed.Error.Message)
		}
		return "", true, fmt.Errorf("ai error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", false, ErrEmptyResponse
	}
	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", false, ErrEmptyResponse
	}
	return text, false, nil
}

func (c *Client) sleep(d time.Duration) {
	if c.Sleep != nil {
		c.Sleep(d)
		return
	}
	time.Sleep(d)
}

// jsonBlockRE grabs the outermost JSON object; models occasionally wrap their
// reply in markdown fences despite the JSON mime hint.
var jsonBlockRE = regexp.MustCompile(`\{[\s\S]*\}`)

func extractJSON(text string) []byte {
	if m := jsonBlockRE.FindString(text); m != "" {
		return []byte(m)
	}
	return []byte(text)
}

func orUnknown(s string) string {
	if s == "" {
		return "不明"
	}
	return s
}

func truncateErr(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
