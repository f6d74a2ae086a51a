package generator

import (
	"context"
	"time"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// Backend は画像生成バックエンドへの単発呼び出しを抽象化するインターフェースです。
// リトライやフォールバックは Controller 側が担当するため、実装は1回だけ呼び出します。
type Backend interface {
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*gemini.Response, error)
}

// TextGenerator はプロンプト改善に使う軽量なテキスト生成を抽象化します。
type TextGenerator interface {
	GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error)
}

// BackendFactory は API キーから Backend を生成します。
type BackendFactory func(ctx context.Context, apiKey string) (Backend, error)

// TextGeneratorFactory は API キーから TextGenerator を生成します。
type TextGeneratorFactory func(ctx context.Context, apiKey string) (TextGenerator, error)

// CredentialProvider は API キーを供給します。キーがない場合は false を返します。
type CredentialProvider interface {
	APIKey(ctx context.Context) (string, bool)
}

// Sleeper はバックオフ待機を行います。ctx がキャンセルされた場合はそのエラーを返します。
type Sleeper func(ctx context.Context, d time.Duration) error

// Observer は Controller の状態遷移を外部（メトリクス等）へ通知するためのインターフェースです。
type Observer interface {
	// ObserveAttempt は1回のバックエンド呼び出しが終わるたびに呼ばれます。
	ObserveAttempt(a Attempt)
	// ObserveRetry はレート制限によるバックオフの直前に呼ばれます。
	ObserveRetry(model string, retry int, delay time.Duration)
	// ObserveFallback は上位モデルから標準モデルへ切り替える直前に呼ばれます。
	ObserveFallback(from, to string)
	// ObserveOutcome は1リクエストの最終結果で呼ばれます。成功時の kind は空です。
	ObserveOutcome(model string, kind ErrorKind)
}

type nopObserver struct{}

func (nopObserver) ObserveAttempt(Attempt)                  {}
func (nopObserver) ObserveRetry(string, int, time.Duration) {}
func (nopObserver) ObserveFallback(string, string)          {}
func (nopObserver) ObserveOutcome(string, ErrorKind)        {}
