package generator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

// ErrorKind は呼び出し元へ返す失敗の分類です。
type ErrorKind string

const (
	KindMissingCredential ErrorKind = "MissingCredential"
	KindValidation        ErrorKind = "Validation"
	KindRateLimited       ErrorKind = "RateLimited"
	KindPermissionDenied  ErrorKind = "PermissionDenied"
	KindNotFound          ErrorKind = "NotFound"
	KindFallbackFailed    ErrorKind = "FallbackFailed"
	KindMalformed         ErrorKind = "Malformed"
	KindUnknown           ErrorKind = "Unknown"
	KindCancelled         ErrorKind = "Cancelled"
)

const (
	msgMissingCredential = "API Key not found. Please ensure the 'API_KEY' environment variable is set."
	msgRateLimited       = "High Traffic: You exceeded the free tier rate limit. Please wait 1 minute before trying again."
	msgPermissionDenied  = "Permission Denied: Your API key cannot access this model. Ensure the Google Generative AI API is enabled in Cloud Console."
	msgFallbackFailed    = "Failed to generate image (Fallback also failed). Please check your API key permissions."
	msgCancelled         = "Image generation was cancelled."
	msgUnknown           = "An unknown error occurred."
)

// GenerationError は種別とユーザー向けメッセージを持つ終端エラーです。
type GenerationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, cause error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Err: cause}
}

func validationError(format string, args ...any) *GenerationError {
	return newError(KindValidation, fmt.Sprintf(format, args...), nil)
}

// KindOf はエラーの種別を返します。GenerationError 以外は Unknown、nil は空文字です。
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// Failure はバックエンドから得た生の失敗情報です。
type Failure struct {
	Status  int    // HTTP ステータス。不明なら 0
	Reason  string // RESOURCE_EXHAUSTED などの構造化ステータス
	Message string
}

// FailureFromError はエラーから Failure を取り出します。
// genai.APIError であればコードとステータスを、それ以外はメッセージのみを使います。
func FailureFromError(err error) Failure {
	if err == nil {
		return Failure{}
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return failureFromAPIError(apiErr, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return failureFromAPIError(*apiErrPtr, err)
	}
	return Failure{Message: err.Error()}
}

func failureFromAPIError(apiErr genai.APIError, err error) Failure {
	msg := apiErr.Message
	if msg == "" {
		msg = err.Error()
	}
	return Failure{Status: apiErr.Code, Reason: apiErr.Status, Message: msg}
}

// Kind は Failure を分類します。判定はレート制限、権限、未検出の順です。
func (f Failure) Kind() ErrorKind {
	text := f.Message + " " + f.Reason
	switch {
	case f.Status == http.StatusTooManyRequests ||
		strings.Contains(text, "429") ||
		strings.Contains(text, "quota") ||
		strings.Contains(text, "RESOURCE_EXHAUSTED"):
		return KindRateLimited
	case f.Status == http.StatusForbidden || strings.Contains(text, "PERMISSION_DENIED"):
		return KindPermissionDenied
	case f.Status == http.StatusNotFound || strings.Contains(text, "not found"):
		return KindNotFound
	}
	return KindUnknown
}

// Classify はバックエンドのエラーを GenerationError に変換します。
func Classify(err error) *GenerationError {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge
	}

	f := FailureFromError(err)
	switch kind := f.Kind(); kind {
	case KindRateLimited:
		return newError(kind, msgRateLimited, err)
	case KindPermissionDenied:
		return newError(kind, msgPermissionDenied, err)
	default:
		return newError(kind, cleanMessage(f.Message), err)
	}
}

// cleanMessage は JSON 形式のエラーメッセージから表示用の文言を取り出します。
func cleanMessage(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") || !gjson.Valid(trimmed) {
		return raw
	}
	if m := gjson.Get(trimmed, "error.message"); m.Type == gjson.String && m.String() != "" {
		return m.String()
	}
	if m := gjson.Get(trimmed, "message"); m.Type == gjson.String && m.String() != "" {
		return m.String()
	}
	return msgUnknown
}
