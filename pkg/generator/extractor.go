package generator

import (
	"fmt"

	"github.com/shouni/gemini-image-studio/pkg/imgutil"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// parseToResponse はレスポンスから最初の画像パーツを取り出して data URI に変換します。
// 形式が想定外の場合はすべて KindMalformed です。
func parseToResponse(resp *gemini.Response) (*imageOutput, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, newError(KindMalformed, "No candidates returned.", nil)
	}

	// 現在は最初の候補 (Candidate) のみを利用する
	candidate := resp.RawResponse.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, newError(KindMalformed, "No content parts returned.", nil)
	}

	for _, part := range candidate.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = imgutil.DefaultMimeType
		}
		return &imageOutput{
			DataURI:  imgutil.DataURIFromBytes(mimeType, part.InlineData.Data),
			MimeType: mimeType,
			Data:     part.InlineData.Data,
		}, nil
	}

	// 安全フィルター等によるブロックの確認
	if reason := candidate.FinishReason; reason != "" && reason != genai.FinishReasonUnspecified && reason != genai.FinishReasonStop {
		return nil, newError(KindMalformed, fmt.Sprintf("No image data found in the response (finish reason: %s).", reason), nil)
	}
	return nil, newError(KindMalformed, "No image data found in the response.", nil)
}
