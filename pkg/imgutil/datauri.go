package imgutil

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DefaultMimeType は MIME タイプが不明な画像に使う既定値です。
const DefaultMimeType = "image/png"

const (
	dataURIPrefix = "data:"
	base64Marker  = ";base64,"
)

// DataURIFromBase64 は base64 済みのペイロードから data URI を組み立てます。
// 形式は data:<mime>;base64,<payload> で固定です。
func DataURIFromBase64(mimeType, payload string) string {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return dataURIPrefix + mimeType + base64Marker + payload
}

// DataURIFromBytes はバイト列を標準 base64 でエンコードして data URI にします。
func DataURIFromBytes(mimeType string, data []byte) string {
	return DataURIFromBase64(mimeType, base64.StdEncoding.EncodeToString(data))
}

// ParseDataURI は data URI を MIME タイプと base64 ペイロードに分解します。
// ペイロードは検証のみ行い、デコードはしません。
func ParseDataURI(uri string) (mimeType, payload string, err error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return "", "", fmt.Errorf("data URI ではありません")
	}
	rest := strings.TrimPrefix(uri, dataURIPrefix)
	idx := strings.Index(rest, base64Marker)
	if idx < 0 {
		return "", "", fmt.Errorf("base64 形式の data URI のみ対応しています")
	}
	mimeType = rest[:idx]
	payload = rest[idx+len(base64Marker):]
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return "", "", fmt.Errorf("data URI のペイロードが不正です: %w", err)
	}
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return mimeType, payload, nil
}

// DecodeDataURI は data URI をデコードしてバイト列を返します。
func DecodeDataURI(uri string) (mimeType string, data []byte, err error) {
	mimeType, payload, err := ParseDataURI(uri)
	if err != nil {
		return "", nil, err
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mimeType, data, nil
}
