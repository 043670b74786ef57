// Package dump stores encoded debug images of CPU tiles.
package dump

import (
	"errors"
	"fmt"
	"time"

	"github.com/jaennil/guide_helper/backend/terrain/pkg/metrics"
)

var ErrNotFound = errors.New("dumped tile not found")

type Key struct {
	Layer string
	Tree  uint32
	LOD   uint32
	X     uint32
	Y     uint32
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d:%d:%d:%d", k.Layer, k.Tree, k.LOD, k.X, k.Y)
}

type Value []byte

type Store interface {
	Get(Key) (Value, bool, error)
	Set(Key, Value) error
	Close() error
}

// observe records the duration and failure of one store operation.
func observe(backend, operation string, start time.Time, err error) {
	metrics.DumpOperationDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DumpErrors.WithLabelValues(backend, operation).Inc()
	}
}
