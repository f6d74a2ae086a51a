package adapters

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shouni/gemini-image-studio/pkg/generator"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GenAIClient は google.golang.org/genai の Client を generator.Backend として
// 使えるようにするアダプターなのだ。
// 呼び出しは常に1回だけで、リトライは generator.Controller に任せるのだ。
type GenAIClient struct {
	client *genai.Client
}

// ClientOption は GenAIClient の接続設定を変更します。
type ClientOption func(*genai.ClientConfig)

// WithBaseURL は API のエンドポイントを差し替えます。
func WithBaseURL(baseURL string) ClientOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = baseURL
	}
}

// WithHTTPClient は通信に使う *http.Client を指定します。
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPClient = hc
	}
}

// NewGenAIClient は API キーから Gemini API 用のクライアントを作成します。
func NewGenAIClient(ctx context.Context, apiKey string, opts ...ClientOption) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai クライアントの作成に失敗しました: %w", err)
	}
	return &GenAIClient{client: client}, nil
}

// GenerateWithParts はパーツ列と生成設定で generateContent を1回呼び出します。
// SDK のエラーはラップせずに返すので、呼び出し側で genai.APIError を判別できます。
func (c *GenAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*gemini.Response, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

// NewBackendFactory は呼び出しごとに GenAIClient を作る generator.BackendFactory を返します。
func NewBackendFactory(opts ...ClientOption) generator.BackendFactory {
	return func(ctx context.Context, apiKey string) (generator.Backend, error) {
		c, err := NewGenAIClient(ctx, apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// NewTextGeneratorFactory はプロンプト改善用の generator.TextGeneratorFactory を返します。
// テキスト生成は go-gemini-client の gemini.Client に任せるので、base の APIKey 以外の
// 設定（リトライ回数や待機時間）はそのまま使われるのだ。
func NewTextGeneratorFactory(base gemini.Config) generator.TextGeneratorFactory {
	return func(ctx context.Context, apiKey string) (generator.TextGenerator, error) {
		cfg := base
		cfg.APIKey = apiKey

		c, err := gemini.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
