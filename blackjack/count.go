package blackjack

// Hi-Lo bin thresholds: the running count is discretized into three buckets
// so the tabular agents see a small, fixed state space.
const (
	LoCountThreshold = -5
	HiCountThreshold = +5
)

// CountBin is the discretized Hi-Lo running count.
type CountBin byte

const (
	CountLow     CountBin = 0
	CountNeutral CountBin = 1
	CountHigh    CountBin = 2
)

var CountBinDictionary = map[CountBin]string{
	CountLow:     "Low",
	CountNeutral: "Neutral",
	CountHigh:    "High",
}

func (b CountBin) String() string {
	if s, ok := CountBinDictionary[b]; ok {
		return s
	}
	return "Unknown"
}

// CountBins lists all bins in ascending order.
var CountBins = []CountBin{CountLow, CountNeutral, CountHigh}

// BinForCount discretizes a running Hi-Lo count.
func BinForCount(count int) CountBin {
	if count <= LoCountThreshold {
		return CountLow
	}
	if count >= HiCountThreshold {
		return CountHigh
	}
	return CountNeutral
}
