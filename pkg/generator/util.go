package generator

import (
	"context"
	"math/rand/v2"
	"time"
)

// seedToPtrInt32 は domain の *int64 を SDK 用の *int32 に変換するのだ。
// 範囲は validateRequest で検証済みなのだ。
func seedToPtrInt32(s *int64) *int32 {
	if s == nil {
		return nil
	}
	v := int32(*s)
	return &v
}

// creativityToPtrFloat32 は creativity をそのまま temperature として渡すための変換なのだ。
func creativityToPtrFloat32(c *float64) *float32 {
	if c == nil {
		return nil
	}
	v := float32(*c)
	return &v
}

// dereferenceSeed は *int64 を安全に int64 に変換するのだ。
// nil の場合はデフォルト値（0）を返すのだよ。
func dereferenceSeed(s *int64) int64 {
	if s == nil {
		return 0
	}
	return *s
}

// sleepContext は ctx のキャンセルを監視しながら d だけ待機します。
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// UniformJitter は [0, limit) の一様乱数を返す関数を作ります。
func UniformJitter(limit time.Duration) func() time.Duration {
	return func() time.Duration {
		if limit <= 0 {
			return 0
		}
		return rand.N(limit)
	}
}
