package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/prompt"
	"github.com/shouni/go-gemini-client/pkg/gemini"
)

const enhancePromptTemplate = `You are an expert prompt engineer for high-end AI image generators. Rewrite the following user prompt to be extremely descriptive, visual, and detailed to achieve a photorealistic result. Keep it under 100 words. Do not add conversational text, just the prompt. User Prompt: "%s"`

// Options は GeminiGenerator の依存関係と設定です。
type Options struct {
	Credentials      CredentialProvider
	NewBackend       BackendFactory
	NewTextGenerator TextGeneratorFactory // nil の場合 EnhancePrompt は入力をそのまま返す
	Models           Models
	Catalog          *prompt.Catalog // nil の場合は prompt.DefaultCatalog()

	MaxRetries  *int
	BackoffUnit time.Duration
	Jitter      func() time.Duration
	Sleep       Sleeper
	Observer    Observer
	Logger      *slog.Logger
}

// GeminiGenerator は画像生成とプロンプト改善の統合窓口なのだ。
// リクエスト間で共有する可変状態は持たないので、並行に呼び出しても安全なのだ。
type GeminiGenerator struct {
	credentials CredentialProvider
	newBackend  BackendFactory
	newText     TextGeneratorFactory
	models      Models
	catalog     prompt.Catalog
	controller  *Controller
	logger      *slog.Logger
}

// NewGeminiGenerator は GeminiGenerator を初期化するのだ。
func NewGeminiGenerator(opts Options) (*GeminiGenerator, error) {
	if opts.Credentials == nil {
		return nil, fmt.Errorf("credentials (CredentialProvider) is required")
	}
	if opts.NewBackend == nil {
		return nil, fmt.Errorf("backend factory (BackendFactory) is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	catalog := prompt.DefaultCatalog()
	if opts.Catalog != nil {
		catalog = *opts.Catalog
	}
	models := opts.Models.withDefaults()

	return &GeminiGenerator{
		credentials: opts.Credentials,
		newBackend:  opts.NewBackend,
		newText:     opts.NewTextGenerator,
		models:      models,
		catalog:     catalog,
		controller: NewController(ControllerConfig{
			FallbackModel: models.Standard,
			MaxRetries:    opts.MaxRetries,
			BackoffUnit:   opts.BackoffUnit,
			Jitter:        opts.Jitter,
			Sleep:         opts.Sleep,
			Observer:      opts.Observer,
			Logger:        logger,
		}),
		logger: logger,
	}, nil
}

// ComposePrompt は設定済みカタログでプロンプトを合成するのだ。
func (g *GeminiGenerator) ComposePrompt(req domain.GenerationRequest) string {
	return prompt.Compose(req, g.catalog)
}

// GenerateImage は1件の画像生成を最後まで実行し、data URI を含む結果か
// *GenerationError のどちらか1つを返すのだ。
func (g *GeminiGenerator) GenerateImage(ctx context.Context, req domain.GenerationRequest) (*domain.ImageResponse, error) {
	logger := g.logger.With("request_id", uuid.NewString())

	apiKey, ok := g.credentials.APIKey(ctx)
	if !ok {
		return nil, newError(KindMissingCredential, msgMissingCredential, nil)
	}

	plan, err := BuildPlan(req, g.catalog)
	if err != nil {
		logger.WarnContext(ctx, "リクエストの検証に失敗しました", "error", err)
		return nil, err
	}

	backend, err := g.newBackend(ctx, apiKey)
	if err != nil {
		return nil, Classify(fmt.Errorf("クライアントの初期化に失敗しました: %w", err))
	}

	tier := SelectTier(req.Resolution, req.AspectRatio, g.models)
	logger.InfoContext(ctx, "画像生成リクエストを送信します",
		"mode", plan.Mode, "model", tier.ModelName(), "tier", tier.Tier(), "parts", len(plan.Parts))

	res, err := g.controller.Run(ctx, backend, plan, tier, logger)
	if err != nil {
		return nil, err
	}

	return &domain.ImageResponse{
		DataURI:  res.DataURI,
		MimeType: res.MimeType,
		Data:     res.Data,
		Model:    res.Model,
		UsedSeed: dereferenceSeed(req.Seed),
		Attempts: len(res.Attempts),
		FellBack: res.FellBack,
	}, nil
}

// EnhancePrompt は軽量モデルでプロンプトをより描写的に書き換えるのだ。
// どんな失敗でもエラーは返さず、元のテキストをそのまま返すのだ。
func (g *GeminiGenerator) EnhancePrompt(ctx context.Context, original string) string {
	if g.newText == nil {
		return original
	}
	apiKey, ok := g.credentials.APIKey(ctx)
	if !ok {
		g.logger.WarnContext(ctx, "APIキーがないためプロンプト改善をスキップします")
		return original
	}

	client, err := g.newText(ctx, apiKey)
	if err != nil {
		g.logger.WarnContext(ctx, "プロンプト改善用クライアントの初期化に失敗しました", "error", err)
		return original
	}

	resp, err := client.GenerateContent(ctx, g.models.Enhance, fmt.Sprintf(enhancePromptTemplate, original))
	if err != nil {
		g.logger.WarnContext(ctx, "プロンプト改善に失敗しました", "model", g.models.Enhance, "error", err)
		return original
	}

	if text := strings.TrimSpace(responseText(resp)); text != "" {
		return text
	}
	return original
}

func responseText(resp *gemini.Response) string {
	switch {
	case resp == nil:
		return ""
	case resp.Text != "":
		return resp.Text
	case resp.RawResponse != nil:
		return resp.RawResponse.Text()
	}
	return ""
}
