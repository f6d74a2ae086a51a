package domain

// AspectRatio は生成画像の縦横比です。
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectClassic   AspectRatio = "4:3"
	AspectMobile    AspectRatio = "3:4"
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
)

// Valid はサポート対象の縦横比かどうかを返します。
func (a AspectRatio) Valid() bool {
	switch a {
	case AspectSquare, AspectClassic, AspectMobile, AspectLandscape, AspectPortrait:
		return true
	}
	return false
}

// Resolution は要求された出力解像度です。モデルの選択に使われます。
type Resolution string

const (
	Resolution1K Resolution = "1K"
	Resolution2K Resolution = "2K"
	Resolution4K Resolution = "4K"
)

// Valid はサポート対象の解像度かどうかを返します。
func (r Resolution) Valid() bool {
	switch r {
	case Resolution1K, Resolution2K, Resolution4K:
		return true
	}
	return false
}

// ImageBlob は呼び出し元が所有する画像データです。
// Data はプレフィックスなしの base64 文字列で、このパッケージの利用側は書き換えません。
type ImageBlob struct {
	Data     string
	MimeType string
}

// FilterSelection は各カテゴリのフィルタ ID です。未指定や "none" は何も付与しません。
type FilterSelection struct {
	Environment    string
	Character      string
	Camera         string
	Mood           string
	TechnicalStyle string
}

// GenerationRequest は単一の画像生成要求です。
// ContentImage と StyleImage は両方指定か両方未指定のどちらかで、
// 両方ある場合は ReferenceImage より優先されます。
type GenerationRequest struct {
	Prompt            string
	NegativePrompt    string
	AspectRatio       AspectRatio
	Resolution        Resolution
	StylePresetSuffix string
	Filters           FilterSelection
	Seed              *int64   // nil でランダム
	Creativity        *float64 // 0.0〜1.0、temperature としてそのまま渡す
	RawMode           bool

	ReferenceImage *ImageBlob
	ContentImage   *ImageBlob
	StyleImage     *ImageBlob
}

// ImageResponse は生成された画像データとそのメタデータです。
type ImageResponse struct {
	DataURI  string
	MimeType string
	Data     []byte
	Model    string
	UsedSeed int64 // 戻り値は情報欠落を防ぐため int64
	Attempts int
	FellBack bool
}
