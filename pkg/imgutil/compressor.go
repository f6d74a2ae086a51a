package imgutil

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
)

// JPEGMimeType は CompressToJPEG の出力 MIME タイプです。
const JPEGMimeType = "image/jpeg"

// CompressToJPEG は画像データ（PNG, GIF, JPEG等）をJPEG形式に圧縮します。
// image.Decodeがサポートするフォーマットに対応しています。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DetectImageMIME はバイト列の先頭から MIME タイプを推定し、画像であれば true を返します。
func DetectImageMIME(data []byte) (string, bool) {
	mimeType := http.DetectContentType(data)
	return mimeType, strings.HasPrefix(mimeType, "image/")
}

// CompressIfSmaller は JPEG に再圧縮し、元より小さくなった場合だけ採用します。
// デコードできない形式（WebP 等）や圧縮で大きくなる場合は元データをそのまま返します。
func CompressIfSmaller(data []byte, mimeType string, quality int) ([]byte, string) {
	compressed, err := CompressToJPEG(data, quality)
	if err != nil || len(compressed) >= len(data) {
		return data, mimeType
	}
	return compressed, JPEGMimeType
}
