package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/prompt"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, backend Backend, text *mockTextGenerator, creds CredentialProvider) *GeminiGenerator {
	t.Helper()
	opts := Options{
		Credentials: creds,
		NewBackend: func(ctx context.Context, apiKey string) (Backend, error) {
			return backend, nil
		},
		Models: Models{High: testHigh, Standard: testStandard, Enhance: "enhance-model"},
		Jitter: func() time.Duration { return 0 },
		Sleep:  (&fakeSleeper{}).Sleep,
		Logger: discardLogger(),
	}
	if text != nil {
		opts.NewTextGenerator = func(ctx context.Context, apiKey string) (TextGenerator, error) {
			return text, nil
		}
	}
	g, err := NewGeminiGenerator(opts)
	require.NoError(t, err)
	return g
}

func TestNewGeminiGenerator(t *testing.T) {
	factory := func(ctx context.Context, apiKey string) (Backend, error) { return nil, nil }

	t.Run("Credentials が nil", func(t *testing.T) {
		_, err := NewGeminiGenerator(Options{NewBackend: factory})
		assert.Error(t, err)
	})

	t.Run("BackendFactory が nil", func(t *testing.T) {
		_, err := NewGeminiGenerator(Options{Credentials: StaticCredentials("k")})
		assert.Error(t, err)
	})

	t.Run("モデル名は既定値で補われる", func(t *testing.T) {
		g, err := NewGeminiGenerator(Options{Credentials: StaticCredentials("k"), NewBackend: factory})
		require.NoError(t, err)
		assert.Equal(t, DefaultHighTierModel, g.models.High)
		assert.Equal(t, DefaultStandardTierModel, g.models.Standard)
		assert.Equal(t, DefaultEnhanceModel, g.models.Enhance)
		assert.Equal(t, DefaultStandardTierModel, g.controller.fallbackModel)
	})
}

func TestGeminiGenerator_GenerateImage(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 2K は上位モデルで生成するのだ", func(t *testing.T) {
		backend := newScriptedBackend(map[string][]outcome{
			testHigh: {okOutcome(imageResponse("image/png", pngBytes))},
		})
		g := newTestGenerator(t, backend, nil, StaticCredentials("secret"))
		seed := int64(7)

		res, err := g.GenerateImage(ctx, domain.GenerationRequest{
			Prompt:      "castle",
			AspectRatio: domain.AspectPortrait,
			Resolution:  domain.Resolution2K,
			Seed:        &seed,
		})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(res.DataURI, "data:image/png;base64,"))
		assert.Equal(t, testHigh, res.Model)
		assert.Equal(t, int64(7), res.UsedSeed)
		assert.Equal(t, 1, res.Attempts)
		assert.False(t, res.FellBack)

		cfg := backend.calls[0].config
		assert.Equal(t, int32(7), *cfg.Seed)
		assert.Equal(t, "9:16", cfg.ImageConfig.AspectRatio)
	})

	t.Run("APIキーがなければ呼び出さずに MissingCredential", func(t *testing.T) {
		backend := newScriptedBackend(nil)
		g := newTestGenerator(t, backend, nil, StaticCredentials(""))

		_, err := g.GenerateImage(ctx, domain.GenerationRequest{Prompt: "x", AspectRatio: domain.AspectSquare, Resolution: domain.Resolution1K})
		require.Error(t, err)
		assert.Equal(t, KindMissingCredential, KindOf(err))
		assert.Equal(t, msgMissingCredential, err.Error())
		assert.Empty(t, backend.calls)
	})

	t.Run("検証エラーでは呼び出さない", func(t *testing.T) {
		backend := newScriptedBackend(nil)
		g := newTestGenerator(t, backend, nil, StaticCredentials("secret"))

		_, err := g.GenerateImage(ctx, domain.GenerationRequest{
			AspectRatio:  domain.AspectSquare,
			Resolution:   domain.Resolution1K,
			ContentImage: &domain.ImageBlob{Data: "QUJD"},
		})
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Empty(t, backend.calls)
	})

	t.Run("32bit を超えるシードは送信前に拒否する", func(t *testing.T) {
		backend := newScriptedBackend(nil)
		g := newTestGenerator(t, backend, nil, StaticCredentials("secret"))
		seed := int64(1)<<32 + 5

		res, err := g.GenerateImage(ctx, domain.GenerationRequest{
			Prompt:      "castle",
			AspectRatio: domain.AspectSquare,
			Resolution:  domain.Resolution1K,
			Seed:        &seed,
		})
		assert.Nil(t, res)
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Empty(t, backend.calls)
	})

	t.Run("クライアント初期化の失敗は分類して返す", func(t *testing.T) {
		g, err := NewGeminiGenerator(Options{
			Credentials: StaticCredentials("secret"),
			NewBackend: func(ctx context.Context, apiKey string) (Backend, error) {
				return nil, errors.New("dial failed")
			},
			Logger: discardLogger(),
		})
		require.NoError(t, err)

		_, err = g.GenerateImage(ctx, domain.GenerationRequest{Prompt: "x", AspectRatio: domain.AspectSquare, Resolution: domain.Resolution1K})
		require.Error(t, err)
		assert.Equal(t, KindUnknown, KindOf(err))
		assert.Contains(t, err.Error(), "dial failed")
	})

	t.Run("フォールバック結果が反映される", func(t *testing.T) {
		backend := newScriptedBackend(map[string][]outcome{
			testHigh:     {failOutcome(errPermission)},
			testStandard: {okOutcome(imageResponse("image/webp", []byte("ABC")))},
		})
		g := newTestGenerator(t, backend, nil, StaticCredentials("secret"))

		res, err := g.GenerateImage(ctx, domain.GenerationRequest{Prompt: "x", AspectRatio: domain.AspectSquare, Resolution: domain.Resolution4K})
		require.NoError(t, err)
		assert.True(t, res.FellBack)
		assert.Equal(t, 2, res.Attempts)
		assert.Equal(t, "data:image/webp;base64,QUJD", res.DataURI)
	})
}

func TestGeminiGenerator_ComposePrompt(t *testing.T) {
	catalog := prompt.DefaultCatalog()
	g, err := NewGeminiGenerator(Options{
		Credentials: StaticCredentials("k"),
		NewBackend:  func(ctx context.Context, apiKey string) (Backend, error) { return nil, nil },
		Catalog:     &catalog,
	})
	require.NoError(t, err)

	req := domain.GenerationRequest{Prompt: "cat", NegativePrompt: "dog"}
	assert.Equal(t, prompt.Compose(req, catalog), g.ComposePrompt(req))
}

func TestGeminiGenerator_EnhancePrompt(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 前後の空白を除いた結果を返す", func(t *testing.T) {
		text := &mockTextGenerator{text: "  A cinematic shot of a cat  \n"}
		g := newTestGenerator(t, nil, text, StaticCredentials("k"))

		assert.Equal(t, "A cinematic shot of a cat", g.EnhancePrompt(ctx, "cat"))
		assert.Equal(t, "enhance-model", text.model)
		assert.Contains(t, text.prompt, `User Prompt: "cat"`)
	})

	t.Run("失敗時は元のテキストを返すのだ", func(t *testing.T) {
		text := &mockTextGenerator{err: errors.New("boom")}
		g := newTestGenerator(t, nil, text, StaticCredentials("k"))
		assert.Equal(t, "cat", g.EnhancePrompt(ctx, "cat"))
	})

	t.Run("空の応答は元のテキスト", func(t *testing.T) {
		g := newTestGenerator(t, nil, &mockTextGenerator{text: "   "}, StaticCredentials("k"))
		assert.Equal(t, "cat", g.EnhancePrompt(ctx, "cat"))
	})

	t.Run("APIキーがなければ呼び出さない", func(t *testing.T) {
		text := &mockTextGenerator{text: "never"}
		g := newTestGenerator(t, nil, text, StaticCredentials(""))
		assert.Equal(t, "cat", g.EnhancePrompt(ctx, "cat"))
		assert.Empty(t, text.prompt)
	})

	t.Run("TextGeneratorFactory が未設定", func(t *testing.T) {
		g := newTestGenerator(t, nil, nil, StaticCredentials("k"))
		assert.Equal(t, "cat", g.EnhancePrompt(ctx, "cat"))
	})
}

func TestResponseText(t *testing.T) {
	assert.Empty(t, responseText(nil))
	assert.Equal(t, "from client", responseText(&gemini.Response{Text: "from client"}))
	assert.Equal(t, "from raw", responseText(textResponse("from raw")))
	assert.Empty(t, responseText(&gemini.Response{}))
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("StaticCredentials", func(t *testing.T) {
		key, ok := StaticCredentials(" abc ").APIKey(ctx)
		assert.True(t, ok)
		assert.Equal(t, "abc", key)

		_, ok = StaticCredentials("undefined").APIKey(ctx)
		assert.False(t, ok)
	})

	t.Run("EnvCredentials は先頭から順に探す", func(t *testing.T) {
		t.Setenv("TEST_KEY_A", "")
		t.Setenv("TEST_KEY_B", "from-b")

		key, ok := EnvCredentials{Vars: []string{"TEST_KEY_A", "TEST_KEY_B"}}.APIKey(ctx)
		assert.True(t, ok)
		assert.Equal(t, "from-b", key)
	})

	t.Run("既定の環境変数", func(t *testing.T) {
		for _, v := range DefaultCredentialEnvVars {
			t.Setenv(v, "")
		}
		_, ok := EnvCredentials{}.APIKey(ctx)
		assert.False(t, ok)

		t.Setenv("GEMINI_API_KEY", "gk")
		key, ok := EnvCredentials{}.APIKey(ctx)
		assert.True(t, ok)
		assert.Equal(t, "gk", key)
	})
}
