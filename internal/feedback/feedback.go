// Package feedback counts client-reported completion outcomes.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/davidbz/kiln/internal/domain"
)

const keySeparator = "__"

// Feedback is one client report on whether a completion was useful.
type Feedback struct {
	ClientName    string `json:"client_name"`
	ClientVersion string `json:"client_version"`
	Success       *bool  `json:"success"`
}

// Validate checks that every field is present.
func (f *Feedback) Validate() error {
	if f.ClientName == "" {
		return fmt.Errorf("%w: client_name is required", domain.ErrValidation)
	}
	if f.ClientVersion == "" {
		return fmt.Errorf("%w: client_version is required", domain.ErrValidation)
	}
	if f.Success == nil {
		return fmt.Errorf("%w: success is required", domain.ErrValidation)
	}
	return nil
}

// Key is the counter name, "<client_name>__<client_version>__<True|False>".
func (f *Feedback) Key() string {
	success := "False"
	if f.Success != nil && *f.Success {
		success = "True"
	}
	return strings.Join([]string{f.ClientName, f.ClientVersion, success}, keySeparator)
}

// Store persists feedback counters.
type Store interface {
	// Increment adds one to the counter and returns its new value.
	Increment(ctx context.Context, key string) (int64, error)

	// Counts returns every counter.
	Counts(ctx context.Context) (map[string]int64, error)
}

// Config selects and configures the counter store.
type Config struct {
	RedisAddr     string `env:"FEEDBACK_REDIS_ADDR"`
	RedisPassword string `env:"FEEDBACK_REDIS_PASSWORD"`
	RedisDB       int    `env:"FEEDBACK_REDIS_DB"  envDefault:"0"`
	Key           string `env:"FEEDBACK_REDIS_KEY" envDefault:"feedback:counts"`
}

// UseRedis reports whether counters live in Redis.
func (c Config) UseRedis() bool {
	return c.RedisAddr != ""
}

var errNilStore = errors.New("feedback store cannot be nil")
