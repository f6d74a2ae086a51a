package prompt

import (
	"strings"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

// RawModeDirective は Raw モードでフィルタの代わりに付与される固定文です。
const RawModeDirective = "High fidelity, raw, exact adherence to prompt."

const partSeparator = ", "

// labeledFilters はフィルタを付与する順序とラベルです。
// バックエンド側はこの並びで調整されているため、順序を変えてはいけません。
var labeledFilters = []struct {
	category Category
	label    string
	pick     func(domain.FilterSelection) string
}{
	{CategoryTechnical, "Style", func(f domain.FilterSelection) string { return f.TechnicalStyle }},
	{CategoryEnvironment, "Environment", func(f domain.FilterSelection) string { return f.Environment }},
	{CategoryCharacter, "Subject Detail", func(f domain.FilterSelection) string { return f.Character }},
	{CategoryCamera, "Camera/Shot", func(f domain.FilterSelection) string { return f.Camera }},
	{CategoryMood, "Mood/Atmosphere", func(f domain.FilterSelection) string { return f.Mood }},
}

// Compose はリクエストとカタログから最終的なプロンプト文字列を組み立てます。
// 副作用のない純粋関数で、同じ入力には常に同じ出力を返します。
func Compose(req domain.GenerationRequest, catalog Catalog) string {
	parts := []string{req.Prompt}

	if req.RawMode {
		parts = append(parts, RawModeDirective)
	} else {
		for _, f := range labeledFilters {
			if phrase := catalog.Phrase(f.category, f.pick(req.Filters)); phrase != "" {
				parts = append(parts, f.label+": "+phrase)
			}
		}
		if req.StylePresetSuffix != "" {
			parts = append(parts, req.StylePresetSuffix)
		}
	}

	final := strings.Join(parts, partSeparator)
	if req.NegativePrompt != "" {
		final += " --no " + req.NegativePrompt
	}
	return final
}
