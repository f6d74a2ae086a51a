package adapters

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand/v2"
	"time"
)

// --- Mocks ---

// mockHTTPClient は HTTPFetcher を実装するのだ。
type mockHTTPClient struct {
	data  []byte
	err   error
	calls int
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	return m.data, m.err
}

// mockReader は remoteio.InputReader を実装するのだ。
type mockReader struct {
	objects map[string][]byte
	opened  []string
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	m.opened = append(m.opened, uri)
	data, ok := m.objects[uri]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockReader) List(ctx context.Context, uri string, fn func(string) error) error {
	for key := range m.objects {
		if err := fn(key); err != nil {
			return err
		}
	}
	return nil
}

// mockCache は ImageCacher インターフェースを実装するのだ。
type mockCache struct {
	data map[string]any
	ttl  time.Duration
}

func (m *mockCache) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	if m.data == nil {
		m.data = make(map[string]any)
	}
	m.data[key] = value
	m.ttl = d
}

// --- Fixtures ---

// PNGの最小構成バイナリ（シグネチャ含む）
var validPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")

// noisyPNG は JPEG にすると確実に小さくなるノイズ画像を作るのだ。
func noisyPNG() []byte {
	r := rand.New(rand.NewPCG(1, 2))
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	for y := range 128 {
		for x := range 128 {
			img.Set(x, y, color.RGBA{uint8(r.IntN(256)), uint8(r.IntN(256)), uint8(r.IntN(256)), 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func allowAll(string) (bool, error) { return true, nil }
