package fees

import (
	"errors"

	"github.com/Overclock-Validator/vault/pkg/safemath"
	"k8s.io/klog/v2"
)

const microLamportsPerLamport = 1000000

const DefaultLamportsPerSignature = 5000

var ErrFeeOverflow = errors.New("ErrFeeOverflow")

// There are currently two aspects of the tx fee cost model
// 1) fee per signature (5k lamports/sig by default)
// 2) prioritization fees: compute unit price (micro-lamports) * compute unit limit
type FeeSchedule struct {
	LamportsPerSignature uint64
	ComputeUnitLimit     uint32
	ComputeUnitPrice     uint64
}

func calculatePriorityFee(computeUnitPrice uint64, computeUnitLimit uint32) uint64 {
	if computeUnitPrice == 0 {
		return 0
	}
	return safemath.MulDivCeilU64(computeUnitPrice, uint64(computeUnitLimit), microLamportsPerLamport)
}

// CalculateFee returns the total fee for a transaction carrying numSignatures
// signatures.
func (fs *FeeSchedule) CalculateFee(numSignatures uint64) (uint64, error) {
	baseTxFee, err := safemath.CheckedMulU64(numSignatures, fs.LamportsPerSignature)
	if err != nil {
		return 0, ErrFeeOverflow
	}

	priorityFee := calculatePriorityFee(fs.ComputeUnitPrice, fs.ComputeUnitLimit)

	totalTxFee, err := safemath.CheckedAddU64(baseTxFee, priorityFee)
	if err != nil {
		return 0, ErrFeeOverflow
	}

	klog.V(2).Infof("tx fee: %d (base %d, priority %d)", totalTxFee, baseTxFee, priorityFee)
	return totalTxFee, nil
}

// SplitFees divides collected fees into the burned share and the share paid
// to the fee collector.
func SplitFees(totalFees uint64, burnPercent byte) (toCollector uint64, burned uint64) {
	if burnPercent > 100 {
		burnPercent = 100
	}
	burned = totalFees / 100 * uint64(burnPercent)
	burned += totalFees % 100 * uint64(burnPercent) / 100
	toCollector = totalFees - burned
	return
}
