package domain

import "time"

// QueueConfig bounds the admission queue.
type QueueConfig struct {
	Capacity int `env:"QUEUE_CAPACITY" envDefault:"64"`
	// WaitTimeout is how long a caller waits for its result, in seconds. Zero waits forever.
	WaitTimeout int `env:"QUEUE_WAIT_TIMEOUT" envDefault:"0"`
}

// WaitDuration returns WaitTimeout as a duration.
func (c QueueConfig) WaitDuration() time.Duration {
	return time.Duration(c.WaitTimeout) * time.Second
}

// CacheConfig bounds the response cache.
type CacheConfig struct {
	Capacity int `env:"CACHE_CAPACITY" envDefault:"1024"`
}
