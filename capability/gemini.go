package capability

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/httpclient"
)

// GeminiClient generates images with Gemini's generateContent API. Inline
// image data is stored through an ArtifactSaver when one is configured and
// returned as a data: URL otherwise.
type GeminiClient struct {
	client    *httpclient.Client
	key       string
	artifacts ArtifactSaver
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string           `json:"responseModalities"`
	ImageConfig        *geminiImageConfig `json:"imageConfig,omitempty"`
}

type geminiImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// NewGeminiClient creates a Gemini image client. artifacts may be nil.
func NewGeminiClient(cfg Config, artifacts ArtifactSaver) (*GeminiClient, error) {
	cfg.ApplyDefaults()
	client, err := httpclient.New(httpclient.Config{
		Name:    "gemini",
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.RequestTimeout,
		Auth:    httpclient.QueryAuth("key", cfg.GeminiKey),
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client, key: cfg.GeminiKey, artifacts: artifacts}, nil
}

func (g *GeminiClient) Name() string { return "gemini" }

func (g *GeminiClient) IsAvailable(_ context.Context) bool { return g.key != "" }

// Execute calls the model named by req.ID with the prompt in req.Input.
func (g *GeminiClient) Execute(ctx context.Context, req Request) (*Output, error) {
	if g.key == "" {
		return nil, apperrors.New(apperrors.ErrCodeServiceUnavailable, "GEMINI_API_KEY is not configured", http.StatusServiceUnavailable)
	}

	prompt, _ := req.Input["prompt"].(string)
	parts := []geminiPart{{Text: prompt}}
	if ref, _ := req.Input["reference_image"].(string); ref != "" {
		inline, err := parseDataURL(ref)
		if err != nil {
			return nil, apperrors.InvalidInput("reference_image", err.Error())
		}
		parts = append(parts, geminiPart{InlineData: inline})
	}

	body := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}
	if aspect, _ := req.Input["aspect_ratio"].(string); aspect != "" {
		body.GenerationConfig.ImageConfig = &geminiImageConfig{AspectRatio: aspect}
	}

	var resp geminiResponse
	err := g.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "models/" + req.ID + ":generateContent",
		Body:   body,
	}, &resp)
	if err != nil {
		return nil, err
	}

	inline := firstInlineData(resp)
	if inline == nil {
		return &Output{Raw: map[string]any{}}, nil
	}
	url, err := g.store(ctx, inline)
	if err != nil {
		return nil, err
	}
	return &Output{
		PrimaryResultURL: url,
		Raw: map[string]any{
			"images": []any{map[string]any{"url": url, "content_type": inline.MimeType}},
		},
	}, nil
}

func (g *GeminiClient) store(ctx context.Context, inline *geminiInlineData) (string, error) {
	if g.artifacts == nil {
		return "data:" + inline.MimeType + ";base64," + inline.Data, nil
	}
	data, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return "", apperrors.ExternalServiceError("gemini", fmt.Errorf("decode inline image: %w", err))
	}
	name := fmt.Sprintf("generated/%s-%s%s", time.Now().UTC().Format("20060102"), uuid.NewString(), extensionFor(inline.MimeType))
	return g.artifacts.Save(ctx, name, inline.MimeType, data)
}

func firstInlineData(resp geminiResponse) *geminiInlineData {
	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				return p.InlineData
			}
		}
	}
	return nil
}

// parseDataURL splits "data:<mime>;base64,<payload>".
func parseDataURL(s string) (*geminiInlineData, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, fmt.Errorf("reference image must be a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("reference image must be base64 encoded")
	}
	return &geminiInlineData{MimeType: strings.TrimSuffix(meta, ";base64"), Data: payload}, nil
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
