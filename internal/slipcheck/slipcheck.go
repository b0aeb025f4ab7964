// Package slipcheck asks a vision model whether an image is a bank transfer
// slip for the expected amount.
package slipcheck

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"cafe-pos-backend/internal/models"
)

var ErrNoImage = errors.New("slip image is required")

type Result struct {
	IsValid        bool    `json:"isValid"`
	DetectedAmount float64 `json:"detectedAmount"`
	Reason         string  `json:"reason"`
}

// Unverified is reported when the model cannot be reached or answers
// garbage. The slip is then treated as not verified.
var Unverified = Result{IsValid: false, DetectedAmount: 0, Reason: "Could not verify the slip (AI error)"}

const prompt = `Analyze this image. It is supposed to be a Thai bank transfer slip.
Task:
1. Verify if this is a valid banking slip (looks like a transaction slip, contains date/time, bank logo).
2. Extract the transferred amount.
3. Compare the extracted amount with the expected amount: %s.

Rules:
- The amount in the slip must be exactly %s (allow for commas or decimals).
- If the image is not a slip, isValid is false.
- If the amount does not match, isValid is false.

Answer with a JSON object only: {"isValid": boolean, "detectedAmount": number, "reason": "short explanation in Thai"}.`

type Verifier struct {
	client *openai.Client
	model  string
}

// New returns nil when apiKey is empty; callers treat a nil verifier as
// "verification unavailable".
func New(apiKey, model, baseURL string) *Verifier {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Verifier{client: openai.NewClientWithConfig(cfg), model: model}
}

func imageURL(a models.Asset) string {
	if a.IsInline() {
		return "data:" + a.Inline.ContentType + ";base64," + base64.StdEncoding.EncodeToString(a.Inline.Data)
	}
	return a.URL
}

func (v *Verifier) Verify(ctx context.Context, slip models.Asset, expected float64) (Result, error) {
	if slip.IsZero() {
		return Result{}, ErrNoImage
	}
	amount := models.FormatAmount(expected)

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageURL(slip), Detail: openai.ImageURLDetailAuto}},
				{Type: openai.ChatMessagePartTypeText, Text: fmt.Sprintf(prompt, amount, amount)},
			},
		}},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return Result{}, fmt.Errorf("slip verification call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, errors.New("slip verification: no choices returned")
	}

	var r Result
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return Result{}, fmt.Errorf("slip verification: decode answer: %w", err)
	}

	// The model's verdict never overrides an amount mismatch.
	if r.IsValid && !decimal.NewFromFloat(r.DetectedAmount).Equal(decimal.NewFromFloat(expected)) {
		r.IsValid = false
	}
	return r, nil
}
