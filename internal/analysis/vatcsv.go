package analysis

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"ledger-audit/internal/logging"
)

// LoadVATTransactions reads a VAT review CSV into transaction rows. The file
// is optional input to the verify_vat task; a caller passing a path is
// expected to have checked it exists.
func LoadVATTransactions(path string, logger logging.Logger) ([]VATTransaction, error) {
	logger.Info("Reading VAT transactions",
		logging.Field{Key: logging.FieldFile, Value: path})

	file, err := os.Open(path)
	if err != nil {
		logger.WithError(err).Error("Failed to open VAT transactions file")
		return nil, fmt.Errorf("opening VAT transactions file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	var rows []VATTransaction
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		logger.WithError(err).Error("Failed to parse VAT transactions file")
		return nil, fmt.Errorf("parsing VAT transactions file: %w", err)
	}

	logger.Info("Read VAT transactions",
		logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return rows, nil
}

// GroupVATTransactions buckets transactions for batch submission the way the
// verification service expects them: high-value entries and service fees are
// reviewed apart from the regular flow.
func GroupVATTransactions(rows []VATTransaction, largeThreshold int64) map[string][]VATTransaction {
	groups := map[string][]VATTransaction{
		"large":   nil,
		"small":   nil,
		"service": nil,
		"regular": nil,
	}
	for _, row := range rows {
		abs := row.Amount.Abs()
		switch {
		case abs.IntPart() >= largeThreshold:
			groups["large"] = append(groups["large"], row)
		case strings.Contains(strings.ToLower(row.Description), "fee") ||
			strings.Contains(strings.ToLower(row.Description), "service"):
			groups["service"] = append(groups["service"], row)
		case abs.IntPart() < largeThreshold/100:
			groups["small"] = append(groups["small"], row)
		default:
			groups["regular"] = append(groups["regular"], row)
		}
	}
	return groups
}
