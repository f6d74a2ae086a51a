package prompt

import (
	"strings"
	"testing"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func allFilters() domain.FilterSelection {
	return domain.FilterSelection{
		Environment:    "cyberpunk",
		Character:      "heroic",
		Camera:         "drone",
		Mood:           "dreamy",
		TechnicalStyle: "anime",
	}
}

func TestCompose(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		name string
		req  domain.GenerationRequest
		want string
	}{
		{
			name: "フィルタなしはプロンプトそのまま",
			req:  domain.GenerationRequest{Prompt: "a red fox"},
			want: "a red fox",
		},
		{
			name: "none 指定も何も付与しない",
			req: domain.GenerationRequest{
				Prompt: "a red fox",
				Filters: domain.FilterSelection{
					Environment: NoneID, Character: NoneID, Camera: NoneID, Mood: NoneID, TechnicalStyle: NoneID,
				},
			},
			want: "a red fox",
		},
		{
			name: "固定順序でラベル付きフレーズを付与する",
			req:  domain.GenerationRequest{Prompt: "a red fox", Filters: allFilters()},
			want: "a red fox" +
				", Style: high quality anime art style, cel shading, vibrant colors, Studio Ghibli inspired" +
				", Environment: in a futuristic cyberpunk city with neon lights, rain-slicked streets, night time" +
				", Subject Detail: standing in a dynamic heroic pose, looking confident and powerful, low angle shot" +
				", Camera/Shot: aerial view shot from a drone, high altitude, bird's eye perspective" +
				", Mood/Atmosphere: soft, dreamy atmosphere, pastel colors, bloom effect, romantic",
		},
		{
			name: "プリセットとネガティブプロンプト",
			req: domain.GenerationRequest{
				Prompt:            "a red fox",
				StylePresetSuffix: "cinematic shot",
				NegativePrompt:    "blur, text",
			},
			want: "a red fox, cinematic shot --no blur, text",
		},
		{
			name: "Rawモードはフィルタとプリセットを無視する",
			req: domain.GenerationRequest{
				Prompt:            "a red fox",
				RawMode:           true,
				Filters:           allFilters(),
				StylePresetSuffix: "cinematic shot",
				NegativePrompt:    "blur",
			},
			want: "a red fox, High fidelity, raw, exact adherence to prompt. --no blur",
		},
		{
			name: "未登録の ID は無視する",
			req:  domain.GenerationRequest{Prompt: "p", Filters: domain.FilterSelection{Mood: "unknown"}},
			want: "p",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compose(tt.req, catalog))
		})
	}
}

func TestCompose_RawModeNeverLeaksCatalogPhrases(t *testing.T) {
	catalog := DefaultCatalog()
	cats := []Category{CategoryEnvironment, CategoryCharacter, CategoryCamera, CategoryMood, CategoryTechnical}

	// 各カテゴリの全 ID を総当たりで試すのだ
	for _, cat := range cats {
		for _, opt := range catalog.Options(cat) {
			sel := domain.FilterSelection{}
			switch cat {
			case CategoryEnvironment:
				sel.Environment = opt.ID
			case CategoryCharacter:
				sel.Character = opt.ID
			case CategoryCamera:
				sel.Camera = opt.ID
			case CategoryMood:
				sel.Mood = opt.ID
			case CategoryTechnical:
				sel.TechnicalStyle = opt.ID
			}
			got := Compose(domain.GenerationRequest{Prompt: "subject", RawMode: true, Filters: sel}, catalog)
			if opt.Prompt != "" && strings.Contains(got, opt.Prompt) {
				t.Errorf("raw mode leaked %s/%s phrase: %q", cat, opt.ID, got)
			}
			assert.Equal(t, "subject, "+RawModeDirective, got)
		}
	}
}

func TestCompose_IsDeterministic(t *testing.T) {
	catalog := DefaultCatalog()
	req := domain.GenerationRequest{
		Prompt:            "castle",
		Filters:           allFilters(),
		StylePresetSuffix: "macro photography",
		NegativePrompt:    "people",
	}

	first := Compose(req, catalog)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compose(req, catalog))
	}
}

func TestCatalog_Phrase(t *testing.T) {
	catalog := DefaultCatalog()

	assert.Equal(t, "", catalog.Phrase(CategoryCamera, ""))
	assert.Equal(t, "", catalog.Phrase(CategoryCamera, NoneID))
	assert.Equal(t, "", catalog.Phrase(Category("unknown"), "dslr"))
	assert.Equal(t, "shot on a high-end DSLR, sharp focus, 85mm lens, f/1.8 aperture", catalog.Phrase(CategoryCamera, "dslr"))
}

func TestStylePresetSuffix(t *testing.T) {
	suffix, ok := StylePresetSuffix("studio")
	assert.True(t, ok)
	assert.Equal(t, "studio lighting, professional photography, bokeh, sharp focus", suffix)

	suffix, ok = StylePresetSuffix(NoneID)
	assert.True(t, ok)
	assert.Empty(t, suffix)

	_, ok = StylePresetSuffix("nope")
	assert.False(t, ok)
}

func TestCompose_PresetSingleSeparator(t *testing.T) {
	for _, p := range StylePresets {
		assert.False(t, strings.HasPrefix(p.Suffix, ","), p.ID)
	}

	suffix, _ := StylePresetSuffix("studio")
	got := Compose(domain.GenerationRequest{Prompt: "fox", StylePresetSuffix: suffix}, DefaultCatalog())
	assert.Equal(t, "fox, "+suffix, got)
	assert.NotContains(t, got, ", ,")
}
