package adapters

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// DefaultCompressQuality は再圧縮時の JPEG 品質の既定値です。
const DefaultCompressQuality = 75

// HTTPFetcher は URL からバイト列を取得するクライアントです。
// go-http-kit のクライアントがこれを満たします。
type HTTPFetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// ImageCacher は画像データのキャッシュ操作を抽象化するインターフェースです。
type ImageCacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// AssetLoaderConfig は AssetLoader の依存関係と設定です。
type AssetLoaderConfig struct {
	HTTPClient HTTPFetcher          // http(s):// 用。nil ならその形式は読み込めない
	Reader     remoteio.InputReader // gs:// 用。nil ならその形式は読み込めない
	Cache      ImageCacher          // nil ならキャッシュしない
	CacheTTL   time.Duration

	Compress        bool
	CompressQuality int

	// URLValidator は http(s) の取得前に呼ばれます。nil の場合は IsSafeURL です。
	URLValidator func(rawURL string) (bool, error)
	Logger       *slog.Logger
}

// AssetLoader は参照画像・コンテンツ画像・スタイル画像を読み込み、
// リクエストに載せられる domain.ImageBlob に変換するのだ。
type AssetLoader struct {
	httpClient HTTPFetcher
	reader     remoteio.InputReader
	cache      ImageCacher
	cacheTTL   time.Duration
	compress   bool
	quality    int
	validate   func(string) (bool, error)
	logger     *slog.Logger
}

// NewAssetLoader は既定値を補って AssetLoader を作成します。
func NewAssetLoader(cfg AssetLoaderConfig) *AssetLoader {
	l := &AssetLoader{
		httpClient: cfg.HTTPClient,
		reader:     cfg.Reader,
		cache:      cfg.Cache,
		cacheTTL:   cfg.CacheTTL,
		compress:   cfg.Compress,
		quality:    cfg.CompressQuality,
		validate:   cfg.URLValidator,
		logger:     cfg.Logger,
	}
	if l.quality <= 0 || l.quality > 100 {
		l.quality = DefaultCompressQuality
	}
	if l.validate == nil {
		l.validate = IsSafeURL
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Load は source を読み込んで画像の Blob を返します。
// source は data URI、gs:// の URI、http(s) の URL、ローカルファイルのパスのいずれかです。
func (l *AssetLoader) Load(ctx context.Context, source string) (*domain.ImageBlob, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("画像のソースが指定されていません")
	}

	data, err := l.loadBytes(ctx, source)
	if err != nil {
		return nil, err
	}

	mimeType, ok := imgutil.DetectImageMIME(data)
	if !ok {
		return nil, fmt.Errorf("画像ではないデータです (detected: %s): %s", mimeType, redact(source))
	}
	if l.compress {
		before := len(data)
		data, mimeType = imgutil.CompressIfSmaller(data, mimeType, l.quality)
		l.logger.DebugContext(ctx, "画像を再圧縮しました", "source", redact(source), "before", before, "after", len(data))
	}

	return &domain.ImageBlob{
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}, nil
}

func (l *AssetLoader) loadBytes(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "data:") {
		_, data, err := imgutil.DecodeDataURI(source)
		if err != nil {
			return nil, fmt.Errorf("data URI のデコードに失敗しました: %w", err)
		}
		return data, nil
	}

	if l.cache != nil {
		if cached, found := l.cache.Get(source); found {
			if data, ok := cached.([]byte); ok {
				return data, nil
			}
			l.logger.WarnContext(ctx, "キャッシュデータが不正な型です", "source", source, "type", fmt.Sprintf("%T", cached))
		}
	}

	data, err := l.fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		l.cache.Set(source, data, l.cacheTTL)
	}
	return data, nil
}

func (l *AssetLoader) fetch(ctx context.Context, source string) ([]byte, error) {
	switch {
	case remoteio.IsGCSURI(source):
		if l.reader == nil {
			return nil, fmt.Errorf("gs:// を読み込むリーダーが設定されていません: %s", source)
		}
		rc, err := l.reader.Open(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("GCS オブジェクトのオープンに失敗しました: %w", err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("GCS オブジェクトの読み込みに失敗しました: %w", err)
		}
		return data, nil

	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		if l.httpClient == nil {
			return nil, fmt.Errorf("HTTP クライアントが設定されていません: %s", source)
		}
		if safe, err := l.validate(source); err != nil || !safe {
			l.logger.WarnContext(ctx, "SSRFの可能性がある、または不正なURLをブロックしました", "url", source, "error", err)
			if err == nil {
				return nil, fmt.Errorf("安全ではないURLが指定されました: %s", source)
			}
			return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
		}
		data, err := l.httpClient.FetchBytes(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("画像のダウンロードに失敗しました: %w", err)
		}
		return data, nil

	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("画像ファイルの読み込みに失敗しました: %w", err)
		}
		return data, nil
	}
}

// redact はログやエラーに載せるソースから data URI の本体を取り除きます。
func redact(source string) string {
	if strings.HasPrefix(source, "data:") {
		if i := strings.Index(source, ","); i >= 0 {
			return source[:i+1] + "..."
		}
	}
	return source
}
