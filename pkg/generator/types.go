package generator

import (
	"time"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"google.golang.org/genai"
)

const (
	DefaultHighTierModel     = "gemini-3-pro-image-preview"
	DefaultStandardTierModel = "gemini-2.5-flash-image"
	DefaultEnhanceModel      = "gemini-2.5-flash"

	DefaultMaxRetries  = 3
	DefaultBackoffUnit = time.Second
	DefaultMaxJitter   = 500 * time.Millisecond
)

// Models は利用するモデル名の組です。空のフィールドは既定値で補われます。
type Models struct {
	High     string
	Standard string
	Enhance  string
}

func (m Models) withDefaults() Models {
	if m.High == "" {
		m.High = DefaultHighTierModel
	}
	if m.Standard == "" {
		m.Standard = DefaultStandardTierModel
	}
	if m.Enhance == "" {
		m.Enhance = DefaultEnhanceModel
	}
	return m
}

// ModelTier はモデルの能力区分です。
type ModelTier int

const (
	TierStandard ModelTier = iota
	TierHigh
)

func (t ModelTier) String() string {
	if t == TierHigh {
		return "high"
	}
	return "standard"
}

// TierConfig はモデル区分ごとの生成設定です。
// 実装は StandardTierConfig と HighTierConfig のみで、パッケージ外からは追加できません。
type TierConfig interface {
	Tier() ModelTier
	ModelName() string
	imageConfig() *genai.ImageConfig
}

// StandardTierConfig は標準モデル用の設定です。画像サイズ指定は持ちません。
type StandardTierConfig struct {
	Model       string
	AspectRatio domain.AspectRatio
}

func (c StandardTierConfig) Tier() ModelTier   { return TierStandard }
func (c StandardTierConfig) ModelName() string { return c.Model }

func (c StandardTierConfig) imageConfig() *genai.ImageConfig {
	return &genai.ImageConfig{AspectRatio: string(c.AspectRatio)}
}

// HighTierConfig は上位モデル用の設定で、明示的な画像サイズを指定します。
type HighTierConfig struct {
	Model       string
	AspectRatio domain.AspectRatio
	ImageSize   domain.Resolution
}

func (c HighTierConfig) Tier() ModelTier   { return TierHigh }
func (c HighTierConfig) ModelName() string { return c.Model }

func (c HighTierConfig) imageConfig() *genai.ImageConfig {
	return &genai.ImageConfig{
		AspectRatio: string(c.AspectRatio),
		ImageSize:   string(c.ImageSize),
	}
}

// Downgrade はフォールバック用に画像サイズを外した標準モデル設定を返します。
func (c HighTierConfig) Downgrade(model string) StandardTierConfig {
	return StandardTierConfig{Model: model, AspectRatio: c.AspectRatio}
}

// Attempt は1回のバックエンド呼び出しの記録です。Controller の1実行の間だけ存在します。
type Attempt struct {
	Model  string
	Tier   ModelTier
	Config *genai.GenerateContentConfig
	Kind   ErrorKind // 成功時は空
}

// imageOutput は Response Extractor の解析結果です。
type imageOutput struct {
	DataURI  string
	MimeType string
	Data     []byte
}
