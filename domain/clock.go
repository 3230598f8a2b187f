package domain

import "time"

// Clock abstracts the time source so presence expiry can be exercised in
// tests without real delays.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
