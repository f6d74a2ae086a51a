package generator

import (
	"encoding/base64"
	"math"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"
	"github.com/shouni/gemini-image-studio/pkg/prompt"
	"google.golang.org/genai"
)

// Mode はリクエストの内容構成です。
type Mode string

const (
	ModeTextToImage   Mode = "text-to-image"
	ModeReference     Mode = "reference"
	ModeStyleTransfer Mode = "style-transfer"
)

const (
	baseSystemInstruction = "You are a world-class AI artist capable of generating hyper-realistic and stylistically complex imagery."
	rawModeInstruction    = " STRICTLY ADHERE to the user's prompt. Do not add unrequested elements."
	enhanceInstruction    = " Pay close attention to lighting, composition, and texture. Enhance the visual quality."
	referenceInstruction  = " Use the provided image as a strong reference for composition, color, and subject matter."

	styleTransferInstruction = "Instruction: Generate a new high-fidelity image that strictly preserves the structural content of the first image, but applies the artistic style of the second image."
)

// Plan は送信内容（パーツ列とシステム指示など）を組み立てた結果です。
// プライマリ呼び出しとフォールバック呼び出しで同じ Plan を使い回します。
type Plan struct {
	Mode              Mode
	Prompt            string // 合成済みプロンプト（スタイル転写時は指示文）
	Parts             []*genai.Part
	SystemInstruction string
	Seed              *int32
	Temperature       *float32
}

// GenerateConfig は区分設定を反映した生成設定を新しく作ります。
// 呼び出しごとに別インスタンスを返すので、試行間で設定が共有されることはありません。
func (p *Plan) GenerateConfig(tier TierConfig) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.SystemInstruction, genai.RoleUser),
		ImageConfig:       tier.imageConfig(),
		Seed:              p.Seed,
		Temperature:       p.Temperature,
	}
}

// BuildPlan はリクエストを検証し、モードに応じたパーツ列を組み立てます。
// 検証エラーはネットワーク呼び出し前に KindValidation で返します。
func BuildPlan(req domain.GenerationRequest, catalog prompt.Catalog) (*Plan, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	plan := &Plan{
		SystemInstruction: baseSystemInstruction,
		Seed:              seedToPtrInt32(req.Seed),
		Temperature:       creativityToPtrFloat32(req.Creativity),
	}
	if req.RawMode {
		plan.SystemInstruction += rawModeInstruction
	} else {
		plan.SystemInstruction += enhanceInstruction
	}

	switch {
	case req.ContentImage != nil && req.StyleImage != nil:
		// 参照画像が同時に指定されていてもスタイル転写を優先する
		content, err := blobToPart("contentImage", req.ContentImage)
		if err != nil {
			return nil, err
		}
		style, err := blobToPart("styleImage", req.StyleImage)
		if err != nil {
			return nil, err
		}
		plan.Mode = ModeStyleTransfer
		plan.Prompt = styleTransferText(req)
		plan.Parts = []*genai.Part{content, style, genai.NewPartFromText(plan.Prompt)}

	case req.ReferenceImage != nil:
		ref, err := blobToPart("referenceImage", req.ReferenceImage)
		if err != nil {
			return nil, err
		}
		plan.Mode = ModeReference
		plan.Prompt = prompt.Compose(req, catalog)
		plan.SystemInstruction += referenceInstruction
		plan.Parts = []*genai.Part{ref, genai.NewPartFromText(plan.Prompt)}

	default:
		plan.Mode = ModeTextToImage
		plan.Prompt = prompt.Compose(req, catalog)
		plan.Parts = []*genai.Part{genai.NewPartFromText(plan.Prompt)}
	}

	return plan, nil
}

func validateRequest(req domain.GenerationRequest) error {
	if (req.ContentImage == nil) != (req.StyleImage == nil) {
		return validationError("Style transfer requires both a content image and a style image.")
	}
	if req.ContentImage == nil && req.ReferenceImage == nil && req.Prompt == "" {
		return validationError("A prompt or a reference image is required.")
	}
	if !req.AspectRatio.Valid() {
		return validationError("Unsupported aspect ratio: %q", req.AspectRatio)
	}
	if !req.Resolution.Valid() {
		return validationError("Unsupported resolution: %q", req.Resolution)
	}
	// NaN も範囲外として扱うのだ。
	if req.Creativity != nil && !(*req.Creativity >= 0 && *req.Creativity <= 1) {
		return validationError("Creativity must be between 0 and 1, got %v", *req.Creativity)
	}
	if req.Seed != nil && (*req.Seed < math.MinInt32 || *req.Seed > math.MaxInt32) {
		return validationError("Seed must fit in a 32-bit integer, got %d", *req.Seed)
	}
	return nil
}

// styleTransferText はスタイル転写用の指示文を作ります。
func styleTransferText(req domain.GenerationRequest) string {
	text := styleTransferInstruction
	if req.Prompt != "" {
		text += " Additional User Instruction: " + req.Prompt
	}
	if req.NegativePrompt != "" {
		text += " Exclude: " + req.NegativePrompt + "."
	}
	return text
}

// blobToPart は base64 の ImageBlob をデコードして InlineData パーツにします。
// 元の Blob には手を触れず、デコード済みのコピーを渡します。
func blobToPart(field string, blob *domain.ImageBlob) (*genai.Part, error) {
	if blob.Data == "" {
		return nil, validationError("%s is empty.", field)
	}
	data, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		return nil, newError(KindValidation, field+" is not valid base64 data.", err)
	}
	mimeType := blob.MimeType
	if mimeType == "" {
		mimeType = imgutil.DefaultMimeType
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}, nil
}
