package convo

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 以内存方式保存对话窗口。进程重启即丢失，满足
// "不持久化对话"的默认约定。
type MemoryStore struct {
	mu      sync.RWMutex
	windows map[string]*userWindow
	ttl     time.Duration
}

type userWindow struct {
	turns     []Turn
	touchedAt time.Time
}

// MemoryOption 定义可选配置。
type MemoryOption func(*MemoryStore)

// WithTTL 设置窗口的闲置过期时间。为零表示永不过期。
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	store := &MemoryStore{windows: make(map[string]*userWindow)}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// Get 实现 Store 接口。
func (s *MemoryStore) Get(_ context.Context, userID string) ([]Turn, error) {
	s.mu.RLock()
	window, ok := s.windows[userID]
	s.mu.RUnlock()
	if !ok || s.expired(window) {
		return nil, nil
	}
	out := make([]Turn, len(window.turns))
	copy(out, window.turns)
	return out, nil
}

// Append 实现 Store 接口。窗口超过 WindowCap 时从最旧一侧裁剪。
func (s *MemoryStore) Append(_ context.Context, userID string, turn Turn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	window, ok := s.windows[userID]
	if !ok || s.expired(window) {
		window = &userWindow{}
		s.windows[userID] = window
	}
	window.turns = append(window.turns, turn)
	if excess := len(window.turns) - WindowCap; excess > 0 {
		window.turns = window.turns[excess:]
	}
	window.touchedAt = time.Now()
	return nil
}

// Clear 实现 Store 接口。
func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, userID)
	return nil
}

func (s *MemoryStore) expired(window *userWindow) bool {
	if s.ttl <= 0 || window == nil {
		return false
	}
	return time.Since(window.touchedAt) > s.ttl
}
