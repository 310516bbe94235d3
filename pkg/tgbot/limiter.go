package tgbot

import (
	"sync"
	"time"
)

// Telegram допускает около 30 сообщений в секунду на бота
const defaultSendInterval = 35 * time.Millisecond

// Limiter выдерживает минимальный интервал между отправками
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewLimiter() *Limiter {
	return NewLimiterWithInterval(defaultSendInterval)
}

func NewLimiterWithInterval(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Wait блокирует до момента, когда можно отправлять следующее сообщение
func (l *Limiter) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if wait := l.interval - time.Since(l.last); wait > 0 {
		time.Sleep(wait)
	}
	l.last = time.Now()
}
