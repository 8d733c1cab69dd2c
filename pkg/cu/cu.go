// Package cu meters the compute units spent while applying a vault request.
package cu

import (
	"errors"
	"fmt"

	"k8s.io/klog/v2"
)

var ErrComputeExceeded = errors.New("ErrComputeExceeded")

const (
	DefaultComputeUnitLimit = 200000
	MaxComputeUnitLimit     = 1400000
)

// ComputeMeter tracks the remaining compute budget of one request. Once
// exhausted it stays exhausted.
type ComputeMeter struct {
	limit     uint64
	remaining uint64
	exceeded  bool
}

// NewComputeMeter returns a meter holding limit units, capped at
// MaxComputeUnitLimit.
func NewComputeMeter(limit uint64) ComputeMeter {
	if limit > MaxComputeUnitLimit {
		limit = MaxComputeUnitLimit
	}
	return ComputeMeter{limit: limit, remaining: limit}
}

func NewComputeMeterDefault() ComputeMeter {
	return NewComputeMeter(DefaultComputeUnitLimit)
}

func (cm *ComputeMeter) Consume(cost uint64) error {
	if cm.exceeded {
		return ErrComputeExceeded
	}

	if cost > cm.remaining {
		klog.V(2).Infof("compute budget exhausted: cost %d, remaining %d of %d", cost, cm.remaining, cm.limit)
		cm.remaining = 0
		cm.exceeded = true
		return fmt.Errorf("%w: cost %d exceeds remaining budget", ErrComputeExceeded, cost)
	}

	cm.remaining -= cost
	return nil
}

func (cm *ComputeMeter) Used() uint64 {
	return cm.limit - cm.remaining
}

func (cm *ComputeMeter) Remaining() uint64 {
	return cm.remaining
}

func (cm *ComputeMeter) Limit() uint64 {
	return cm.limit
}

func (cm *ComputeMeter) Exceeded() bool {
	return cm.exceeded
}
