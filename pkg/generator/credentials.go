package generator

import (
	"context"
	"os"
	"strings"
)

// DefaultCredentialEnvVars は EnvCredentials が既定で参照する環境変数です。
var DefaultCredentialEnvVars = []string{"API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}

// StaticCredentials は固定の API キーを返します。空文字はキーなしとして扱います。
type StaticCredentials string

func (s StaticCredentials) APIKey(_ context.Context) (string, bool) {
	return usableKey(string(s))
}

// EnvCredentials は呼び出しのたびに環境変数から API キーを探します。
type EnvCredentials struct {
	Vars []string
}

func (e EnvCredentials) APIKey(_ context.Context) (string, bool) {
	vars := e.Vars
	if len(vars) == 0 {
		vars = DefaultCredentialEnvVars
	}
	for _, name := range vars {
		if key, ok := usableKey(os.Getenv(name)); ok {
			return key, true
		}
	}
	return "", false
}

// usableKey は空文字やビルド時に埋め込まれた "undefined" を除外します。
func usableKey(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" || key == "undefined" {
		return "", false
	}
	return key, true
}
