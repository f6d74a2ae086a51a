package generator

import "github.com/shouni/gemini-image-studio/pkg/domain"

// SelectTier は要求解像度からモデル区分を決めます。
// 2K/4K は上位モデル（画像サイズ指定あり）、それ以外は標準モデルです。
func SelectTier(res domain.Resolution, aspect domain.AspectRatio, models Models) TierConfig {
	models = models.withDefaults()
	switch res {
	case domain.Resolution2K, domain.Resolution4K:
		return HighTierConfig{Model: models.High, AspectRatio: aspect, ImageSize: res}
	default:
		return StandardTierConfig{Model: models.Standard, AspectRatio: aspect}
	}
}
