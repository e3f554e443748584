package generator

import (
	"math/rand"
	"sync"
	"time"
)

// Source 均匀分布随机数来源，Float64 返回 [0,1)
type Source interface {
	Float64() float64
}

// lockedSource 并发安全的随机数来源
type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSource 创建并发安全的随机数来源，seed为0时按当前时间播种
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

// Uniform 在 [lo, hi) 内均匀取值
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}
