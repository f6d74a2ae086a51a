package generator

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// state は Controller の状態です。
type state int

const (
	stateAttemptPrimary state = iota
	stateBackoff
	stateAttemptFallback
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateAttemptPrimary:
		return "attempt_primary"
	case stateBackoff:
		return "backoff"
	case stateAttemptFallback:
		return "attempt_fallback"
	case stateDone:
		return "done"
	default:
		return "failed"
	}
}

// ControllerConfig は Controller の動作設定です。ゼロ値のフィールドは既定値になります。
type ControllerConfig struct {
	FallbackModel string
	MaxRetries    *int
	BackoffUnit   time.Duration
	Jitter        func() time.Duration
	Sleep         Sleeper
	Observer      Observer
	Logger        *slog.Logger
}

// Controller はリトライとフォールバックを明示的な状態機械として実行します。
// 1リクエスト内の試行は常に逐次で、並行に走ることはありません。
type Controller struct {
	fallbackModel string
	maxRetries    int
	backoffUnit   time.Duration
	jitter        func() time.Duration
	sleep         Sleeper
	observer      Observer
	logger        *slog.Logger
}

// NewController は既定値を補って Controller を作ります。
func NewController(cfg ControllerConfig) *Controller {
	c := &Controller{
		fallbackModel: cfg.FallbackModel,
		maxRetries:    DefaultMaxRetries,
		backoffUnit:   cfg.BackoffUnit,
		jitter:        cfg.Jitter,
		sleep:         cfg.Sleep,
		observer:      cfg.Observer,
		logger:        cfg.Logger,
	}
	if c.fallbackModel == "" {
		c.fallbackModel = DefaultStandardTierModel
	}
	if cfg.MaxRetries != nil && *cfg.MaxRetries >= 0 {
		c.maxRetries = *cfg.MaxRetries
	}
	if c.backoffUnit <= 0 {
		c.backoffUnit = DefaultBackoffUnit
	}
	if c.jitter == nil {
		c.jitter = UniformJitter(DefaultMaxJitter)
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// execution は1回の Run の状態と試行回数を保持します。
type execution struct {
	state    state
	primary  TierConfig
	retries  int
	attempts []Attempt
	out      *imageOutput
	model    string
	fellBack bool
	err      *GenerationError
	logger   *slog.Logger
}

// Result は Run の成功結果です。
type Result struct {
	DataURI  string
	MimeType string
	Data     []byte
	Model    string
	FellBack bool
	Attempts []Attempt
}

// Run は primary の区分でリクエストを実行し、終端の結果を1つだけ返します。
func (c *Controller) Run(ctx context.Context, backend Backend, plan *Plan, primary TierConfig, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = c.logger
	}
	ex := &execution{state: stateAttemptPrimary, primary: primary, logger: logger}

	for {
		switch ex.state {
		case stateAttemptPrimary:
			ex.state = c.attemptPrimary(ctx, backend, plan, ex)
		case stateBackoff:
			ex.state = c.backoff(ctx, ex)
		case stateAttemptFallback:
			ex.state = c.attemptFallback(ctx, backend, plan, ex)
		case stateDone:
			c.observer.ObserveOutcome(ex.model, "")
			return &Result{
				DataURI:  ex.out.DataURI,
				MimeType: ex.out.MimeType,
				Data:     ex.out.Data,
				Model:    ex.model,
				FellBack: ex.fellBack,
				Attempts: ex.attempts,
			}, nil
		default:
			c.observer.ObserveOutcome(primary.ModelName(), ex.err.Kind)
			ex.logger.ErrorContext(ctx, "画像生成に失敗しました",
				"kind", ex.err.Kind, "attempts", len(ex.attempts), "error", ex.err.Err)
			return nil, ex.err
		}
	}
}

func (c *Controller) attemptPrimary(ctx context.Context, backend Backend, plan *Plan, ex *execution) state {
	out, gerr := c.attempt(ctx, backend, plan, ex.primary, ex)
	if gerr == nil {
		ex.out, ex.model = out, ex.primary.ModelName()
		return stateDone
	}

	switch gerr.Kind {
	case KindRateLimited:
		if ex.retries < c.maxRetries {
			return stateBackoff
		}
		ex.err = newError(KindRateLimited, msgRateLimited, gerr.Err)
		return stateFailed
	case KindPermissionDenied, KindNotFound:
		if ex.primary.Tier() == TierHigh {
			return stateAttemptFallback
		}
	}
	ex.err = gerr
	return stateFailed
}

func (c *Controller) backoff(ctx context.Context, ex *execution) state {
	ex.retries++
	delay := c.backoffDelay(ex.retries)

	ex.logger.WarnContext(ctx, "レート制限に達しました。待機してから再試行します",
		"model", ex.primary.ModelName(), "retry", ex.retries, "max_retries", c.maxRetries, "delay", delay)
	c.observer.ObserveRetry(ex.primary.ModelName(), ex.retries, delay)

	if err := c.sleep(ctx, delay); err != nil {
		ex.err = newError(KindCancelled, msgCancelled, err)
		return stateFailed
	}
	return stateAttemptPrimary
}

// backoffDelay は 2^retry 単位時間にジッターを加えた待機時間です。retry は 1 始まりです。
func (c *Controller) backoffDelay(retry int) time.Duration {
	return time.Duration(1<<retry)*c.backoffUnit + c.jitter()
}

func (c *Controller) attemptFallback(ctx context.Context, backend Backend, plan *Plan, ex *execution) state {
	high, ok := ex.primary.(HighTierConfig)
	if !ok {
		ex.err = newError(KindUnknown, msgUnknown, errors.New("fallback requested from a non high-tier model"))
		return stateFailed
	}
	fallback := high.Downgrade(c.fallbackModel)

	ex.logger.WarnContext(ctx, "上位モデルが利用できないため標準モデルにフォールバックします",
		"from", high.ModelName(), "to", fallback.ModelName())
	c.observer.ObserveFallback(high.ModelName(), fallback.ModelName())

	out, gerr := c.attempt(ctx, backend, plan, fallback, ex)
	if gerr == nil {
		ex.out, ex.model, ex.fellBack = out, fallback.ModelName(), true
		return stateDone
	}
	if gerr.Kind == KindCancelled {
		ex.err = gerr
		return stateFailed
	}
	// フォールバックの失敗は終端。再試行も再フォールバックもしない
	ex.err = newError(KindFallbackFailed, msgFallbackFailed, gerr)
	return stateFailed
}

// attempt はバックエンドを1回呼び出し、結果を分類して記録します。
func (c *Controller) attempt(ctx context.Context, backend Backend, plan *Plan, tier TierConfig, ex *execution) (*imageOutput, *GenerationError) {
	cfg := plan.GenerateConfig(tier)

	var (
		out  *imageOutput
		gerr *GenerationError
	)
	if err := ctx.Err(); err != nil {
		gerr = newError(KindCancelled, msgCancelled, err)
	} else if resp, err := backend.GenerateWithParts(ctx, tier.ModelName(), plan.Parts, cfg); err != nil {
		if ctx.Err() != nil {
			gerr = newError(KindCancelled, msgCancelled, err)
		} else {
			gerr = Classify(err)
		}
	} else {
		var perr error
		if out, perr = parseToResponse(resp); perr != nil {
			gerr = Classify(perr)
		}
	}

	a := Attempt{Model: tier.ModelName(), Tier: tier.Tier(), Config: cfg}
	if gerr != nil {
		a.Kind = gerr.Kind
	}
	ex.attempts = append(ex.attempts, a)
	c.observer.ObserveAttempt(a)

	ex.logger.DebugContext(ctx, "バックエンド呼び出しが完了しました",
		"model", a.Model, "tier", a.Tier, "attempt", len(ex.attempts), "kind", a.Kind)
	return out, gerr
}
