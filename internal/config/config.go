package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix は環境変数の接頭辞です（例: IMAGESTUDIO_MAX_RETRIES）。
const Prefix = "imagestudio"

// Settings holds the application configuration.
// envconfig タグを付けたフィールドは接頭辞なしの名前（API_KEY 等）でも読み込まれます。
type Settings struct {
	APIKey string `envconfig:"API_KEY"`

	HighModel     string `envconfig:"HIGH_MODEL" default:"gemini-3-pro-image-preview"`
	StandardModel string `envconfig:"STANDARD_MODEL" default:"gemini-2.5-flash-image"`
	EnhanceModel  string `envconfig:"ENHANCE_MODEL" default:"gemini-2.5-flash"`

	MaxRetries  int           `envconfig:"MAX_RETRIES" default:"3"`
	BackoffUnit time.Duration `envconfig:"BACKOFF_UNIT" default:"1s"`
	MaxJitter   time.Duration `envconfig:"MAX_JITTER" default:"500ms"`

	FetchTimeout    time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"1h"`
	Compress        bool          `envconfig:"COMPRESS" default:"false"`
	CompressQuality int           `envconfig:"COMPRESS_QUALITY" default:"75"`

	MetricsFile string `envconfig:"METRICS_FILE"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load は .env ファイル（存在すれば）と環境変数から設定を読み込みます。
// 既に設定されている環境変数は .env の値で上書きされません。
func Load(envFiles ...string) (*Settings, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env の読み込みに失敗しました: %w", err)
	}

	var s Settings
	if err := envconfig.Process(Prefix, &s); err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate は値の範囲を検証します。
func (s *Settings) Validate() error {
	if s.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES は 0 以上である必要があります: %d", s.MaxRetries)
	}
	if s.BackoffUnit <= 0 {
		return fmt.Errorf("BACKOFF_UNIT は正の値である必要があります: %s", s.BackoffUnit)
	}
	if s.MaxJitter < 0 {
		return fmt.Errorf("MAX_JITTER は 0 以上である必要があります: %s", s.MaxJitter)
	}
	if s.CompressQuality < 1 || s.CompressQuality > 100 {
		return fmt.Errorf("COMPRESS_QUALITY は 1〜100 の範囲で指定してください: %d", s.CompressQuality)
	}
	return nil
}

// SlogLevel は LogLevel を slog.Level に変換します。不明な値は Info です。
func (s *Settings) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
