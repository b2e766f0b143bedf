package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig holds configuration for login failure delays
type TimingConfig struct {
	BaseDelay   time.Duration
	RandomDelay time.Duration
}

// DefaultTimingConfig is used by the token endpoint.
var DefaultTimingConfig = TimingConfig{
	BaseDelay:   250 * time.Millisecond,
	RandomDelay: 100 * time.Millisecond,
}

// TimingDelay pads failed logins so that an unknown username and a wrong
// password take about the same time.
type TimingDelay struct {
	config TimingConfig
	sleep  func(time.Duration)
}

func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{
		config: config,
		sleep:  time.Sleep,
	}
}

// cryptoRandDuration returns a random duration in [0, max).
func cryptoRandDuration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return time.Duration(binary.BigEndian.Uint64(b[:]) % uint64(max))
}

// Target returns the padded duration for one failed attempt.
func (td *TimingDelay) Target() time.Duration {
	return td.config.BaseDelay + cryptoRandDuration(td.config.RandomDelay)
}

// WaitFrom sleeps until at least Target has elapsed since start. Successful
// attempts are not delayed.
func (td *TimingDelay) WaitFrom(start time.Time, success bool) {
	if success {
		return
	}

	if remaining := td.Target() - time.Since(start); remaining > 0 {
		td.sleep(remaining)
	}
}
