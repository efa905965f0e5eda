package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowRateLimiter counts requests per client and forgets the client
// once its window has passed.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*clientWindow
	limit   int
	window  time.Duration
	now     func() time.Time
}

type clientWindow struct {
	start time.Time
	count int
}

func NewFixedWindowLimiter(limit int, w time.Duration) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  w,
		now:     time.Now,
	}
}

func (rl *FixedWindowRateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	rl.evict(now)

	c, ok := rl.clients[ip]
	if !ok {
		c = &clientWindow{start: now}
		rl.clients[ip] = c
	}

	if c.count < rl.limit {
		c.count++
		return true, 0
	}

	return false, c.start.Add(rl.window).Sub(now)
}

func (rl *FixedWindowRateLimiter) evict(now time.Time) {
	for ip, c := range rl.clients {
		if now.Sub(c.start) >= rl.window {
			delete(rl.clients, ip)
		}
	}
}
