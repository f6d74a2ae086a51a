package generator

import (
	"context"
	"sync"
	"time"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// --- Mocks ---

// backendCall は scriptedBackend が受け取った呼び出しの記録なのだ。
type backendCall struct {
	model  string
	parts  []*genai.Part
	config *genai.GenerateContentConfig
}

// outcome はモデルごとに返す結果なのだ。
type outcome struct {
	resp *gemini.Response
	err  error
}

// scriptedBackend はモデル名ごとに用意した結果を順番に返すのだ。
// 台本を使い切ったら最後の結果を繰り返すのだ。
type scriptedBackend struct {
	mu     sync.Mutex
	script map[string][]outcome
	calls  []backendCall
}

func newScriptedBackend(script map[string][]outcome) *scriptedBackend {
	return &scriptedBackend{script: script}
}

func (b *scriptedBackend) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*gemini.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, backendCall{model: model, parts: parts, config: config})
	seq := b.script[model]
	if len(seq) == 0 {
		return nil, &genai.APIError{Code: 404, Message: "model " + model + " not found", Status: "NOT_FOUND"}
	}
	o := seq[0]
	if len(seq) > 1 {
		b.script[model] = seq[1:]
	}
	return o.resp, o.err
}

func (b *scriptedBackend) callsFor(model string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.model == model {
			n++
		}
	}
	return n
}

// fakeSleeper は実際には待たずに待機時間だけを記録するのだ。
type fakeSleeper struct {
	delays []time.Duration
	err    error
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return s.err
}

type mockTextGenerator struct {
	text   string
	err    error
	prompt string
	model  string
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error) {
	m.model, m.prompt = model, prompt
	if m.err != nil {
		return nil, m.err
	}
	return textResponse(m.text), nil
}

type recordingObserver struct {
	attempts  []Attempt
	retries   []time.Duration
	fallbacks int
	outcomes  []ErrorKind
}

func (o *recordingObserver) ObserveAttempt(a Attempt) { o.attempts = append(o.attempts, a) }
func (o *recordingObserver) ObserveRetry(model string, retry int, delay time.Duration) {
	o.retries = append(o.retries, delay)
}
func (o *recordingObserver) ObserveFallback(from, to string) { o.fallbacks++ }
func (o *recordingObserver) ObserveOutcome(model string, kind ErrorKind) {
	o.outcomes = append(o.outcomes, kind)
}

// --- Response helpers ---

func imageResponse(mimeType string, data []byte) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
				},
			}},
		},
	}
}

func textResponse(text string) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
			}},
		},
	}
}

func okOutcome(resp *gemini.Response) outcome { return outcome{resp: resp} }
func failOutcome(err error) outcome          { return outcome{err: err} }

var (
	errRateLimited = &genai.APIError{Code: 429, Message: "Resource has been exhausted (e.g. check quota).", Status: "RESOURCE_EXHAUSTED"}
	errPermission  = &genai.APIError{Code: 403, Message: "The caller does not have permission", Status: "PERMISSION_DENIED"}
)
