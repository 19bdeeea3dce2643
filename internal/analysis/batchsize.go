package analysis

import "ledger-audit/internal/models"

// BatchSizing is the tuned batch geometry for one account family at one data
// volume. Accuracy beats throughput here, so sizes shrink as volume grows.
type BatchSizing struct {
	BatchSize     int
	MaxConcurrent int
}

// OptimalBatchSizing returns the batch geometry for an account family and
// item count. The tiers are small (<=50), medium (<=200), and large (>200).
func OptimalBatchSizing(class models.Classification, itemCount int) BatchSizing {
	tier := 0
	switch {
	case itemCount <= 50:
		tier = 0
	case itemCount <= 200:
		tier = 1
	default:
		tier = 2
	}

	switch class {
	case models.ClassPL:
		return [3]BatchSizing{{3, 2}, {1, 1}, {1, 1}}[tier]
	case models.ClassVAT:
		return [3]BatchSizing{{6, 2}, {3, 2}, {1, 1}}[tier]
	default:
		// BS and unknown accounts use the balance-sheet geometry.
		return [3]BatchSizing{{6, 2}, {3, 2}, {1, 1}}[tier]
	}
}
