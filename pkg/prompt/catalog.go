package prompt

// Category はフィルタカタログのカテゴリです。
type Category string

const (
	CategoryEnvironment Category = "environment"
	CategoryCharacter   Category = "character"
	CategoryCamera      Category = "camera"
	CategoryMood        Category = "mood"
	CategoryTechnical   Category = "technical"
)

// NoneID はフィルタを適用しないことを示す ID です。
const NoneID = "none"

// Option はカタログの1項目です。
type Option struct {
	ID     string
	Label  string
	Prompt string
}

// Catalog はカテゴリごとのフィルタ定義です。読み取り専用として扱います。
type Catalog struct {
	Environment []Option
	Character   []Option
	Camera      []Option
	Mood        []Option
	Technical   []Option
}

// Options は指定カテゴリの項目一覧を返します。
func (c Catalog) Options(cat Category) []Option {
	switch cat {
	case CategoryEnvironment:
		return c.Environment
	case CategoryCharacter:
		return c.Character
	case CategoryCamera:
		return c.Camera
	case CategoryMood:
		return c.Mood
	case CategoryTechnical:
		return c.Technical
	}
	return nil
}

// Phrase は ID に対応するフレーズを返します。
// 空、"none"、未登録の ID はすべて空文字になります。
func (c Catalog) Phrase(cat Category, id string) string {
	if id == "" || id == NoneID {
		return ""
	}
	for _, opt := range c.Options(cat) {
		if opt.ID == id {
			return opt.Prompt
		}
	}
	return ""
}

// DefaultCatalog は標準のフィルタカタログを返します。
// 呼び出しごとに新しい値を返すため、呼び出し側で変更しても共有状態は壊れません。
func DefaultCatalog() Catalog {
	return Catalog{
		Environment: []Option{
			{NoneID, "None", ""},
			{"studio", "Studio Lighting", "in a professional studio setting with 3-point lighting, clean backdrop"},
			{"golden_hour", "Golden Hour", "during golden hour with warm, soft sunlight, outdoor setting"},
			{"cyberpunk", "Cyberpunk City", "in a futuristic cyberpunk city with neon lights, rain-slicked streets, night time"},
			{"deep_space", "Deep Space", "in deep space with nebulae, stars, and cosmic dust in the background"},
			{"mystical_forest", "Mystical Forest", "in a dense, foggy forest with bioluminescent plants and ethereal atmosphere"},
			{"luxury_interior", "Luxury Interior", "inside a modern luxury penthouse with floor-to-ceiling windows and architectural details"},
			{"post_apoc", "Post-Apocalyptic", "in a gritty post-apocalyptic wasteland with ruins and overgrowth"},
		},
		Character: []Option{
			{NoneID, "None", ""},
			{"candid", "Candid Moment", "caught in a candid moment, natural pose, unposed look"},
			{"heroic", "Heroic Pose", "standing in a dynamic heroic pose, looking confident and powerful, low angle shot"},
			{"silhouette", "Silhouette", "as a dramatic silhouette against a bright background, high contrast"},
			{"double_exposure", "Double Exposure", "artistic double exposure effect blending the subject with nature elements"},
			{"detailed_portrait", "Detailed Portrait", "extreme close-up portrait focusing on eyes and skin texture, pore-level detail"},
			{"ethereal", "Ethereal", "glowing with an ethereal aura, floating hair, magical presence"},
		},
		Camera: []Option{
			{NoneID, "None", ""},
			{"dslr", "DSLR", "shot on a high-end DSLR, sharp focus, 85mm lens, f/1.8 aperture"},
			{"macro", "Macro Lens", "shot with a macro lens, extreme close-up, shallow depth of field, bokeh"},
			{"wide", "Wide Angle", "shot with a wide-angle 16mm lens, expansive view, slight distortion"},
			{"drone", "Drone View", "aerial view shot from a drone, high altitude, bird's eye perspective"},
			{"polaroid", "Polaroid", "vintage polaroid style, soft focus, film grain, nostalgic color grading"},
			{"fisheye", "Fisheye", "artistic fisheye lens effect, heavy distortion, circular framing"},
		},
		Mood: []Option{
			{NoneID, "None", ""},
			{"cinematic", "Cinematic", "dramatic cinematic atmosphere, teal and orange color grading, movie-like"},
			{"dreamy", "Dreamy", "soft, dreamy atmosphere, pastel colors, bloom effect, romantic"},
			{"dark_gritty", "Dark & Gritty", "dark, gritty, noir-style atmosphere, high contrast, desaturated colors"},
			{"vibrant", "Vibrant", "explosive vibrant colors, high saturation, energetic atmosphere"},
			{"melancholic", "Melancholic", "sad, melancholic atmosphere, cool blue tones, rainy mood"},
			{"euphoric", "Euphoric", "bright, euphoric atmosphere, god rays, uplifting lighting"},
		},
		Technical: []Option{
			{NoneID, "None", ""},
			{"photoreal", "Photorealistic", "hyper-realistic photography, 8k resolution, raw photo"},
			{"3d_render", "3D Render", "high-end 3D render, Octane render, Unreal Engine 5, ray tracing, global illumination"},
			{"oil_painting", "Oil Painting", "classic oil painting style, visible brush strokes, textured canvas"},
			{"anime", "Anime/Manga", "high quality anime art style, cel shading, vibrant colors, Studio Ghibli inspired"},
			{"line_art", "Line Art", "minimalist line art, clean strokes, black and white, ink drawing"},
			{"pixel_art", "Pixel Art", "retro 16-bit pixel art style, dithering, limited color palette"},
		},
	}
}

// StylePreset は画風プリセットです。Suffix はプロンプト末尾にそのまま付与されます。
type StylePreset struct {
	ID     string
	Label  string
	Suffix string
}

// StylePresets は標準の画風プリセット一覧です。
var StylePresets = []StylePreset{
	{NoneID, "Raw / Natural", ""},
	{"photorealistic", "Photorealistic", "highly detailed, 8k resolution, photorealistic, cinematic lighting, photography"},
	{"cinematic", "Cinematic", "cinematic shot, movie scene, color graded, dramatic lighting, depth of field"},
	{"studio", "Studio Headshot", "studio lighting, professional photography, bokeh, sharp focus"},
	{"macro", "Macro Nature", "macro photography, extreme detail, soft focus background, organic textures"},
}

// StylePresetSuffix はプリセット ID に対応するサフィックスを返します。
func StylePresetSuffix(id string) (string, bool) {
	for _, p := range StylePresets {
		if p.ID == id {
			return p.Suffix, true
		}
	}
	return "", false
}
