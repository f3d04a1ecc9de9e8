// Package timegetter contains the default [domain.TimeGetter] implementation.
package timegetter

import (
	"time"

	"github.com/leoafarias/firekit-sub000/domain"
)

// TimeGetter implements [domain.TimeGetter].
type TimeGetter struct{}

// NewTimeGetter returns a new implementation of [domain.TimeGetter].
func NewTimeGetter() domain.TimeGetter {
	return &TimeGetter{}
}

// GetTime implements [domain.TimeGetter]. Times are UTC so entries survive
// a JSON round-trip through the file backend unchanged.
func (t *TimeGetter) GetTime() time.Time {
	return time.Now().UTC()
}
