package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"ledger-audit/internal/logging"
	"ledger-audit/internal/models"
)

// RevenueChecker reports whether an account code is a revenue account.
type RevenueChecker interface {
	IsRevenue(code models.AccountCode) bool
}

// ContaminationDetector reconciles the processed figure set against the
// independently extracted source view. It only reads; remediation is the
// caller's problem, and any alert at all means the pipeline must abort.
type ContaminationDetector struct {
	revenue RevenueChecker
	logger  logging.Logger
}

// NewContaminationDetector wires a detector.
func NewContaminationDetector(revenue RevenueChecker, logger logging.Logger) *ContaminationDetector {
	return &ContaminationDetector{revenue: revenue, logger: logger}
}

// Detect compares the two views. Per figure the first matching rule wins:
//
//  1. processed non-zero where the source has no figure: injection, HIGH
//  2. equal magnitude, opposite sign: sign reversal, MEDIUM
//  3. revenue account with a negative processed figure: HIGH
//
// A separate global pass flags the same non-zero amount appearing on several
// accounts in the same year and month, one alert per colliding value.
func (d *ContaminationDetector) Detect(processed, original models.FigureSet) []models.ContaminationAlert {
	var alerts []models.ContaminationAlert

	for _, key := range processed.Keys() {
		procVal := processed[key]
		origVal, origOK := original[key]

		switch {
		case !procVal.IsZero() && (!origOK || origVal.IsZero()):
			alerts = append(alerts, models.ContaminationAlert{
				Kind:      models.ContaminationInjection,
				Risk:      models.RiskHigh,
				Account:   key.Account,
				Year:      key.Year,
				Month:     key.Month,
				Processed: procVal,
				Original:  origVal,
				Detail: fmt.Sprintf("processed figure %s has no counterpart in the source ledger",
					procVal),
			})

		case origOK && !procVal.IsZero() && procVal.Equal(origVal.Neg()):
			alerts = append(alerts, models.ContaminationAlert{
				Kind:      models.ContaminationSignReversal,
				Risk:      models.RiskMedium,
				Account:   key.Account,
				Year:      key.Year,
				Month:     key.Month,
				Processed: procVal,
				Original:  origVal,
				Detail: fmt.Sprintf("processed %s is the sign reversal of source %s",
					procVal, origVal),
			})

		case procVal.IsNegative() && d.revenue.IsRevenue(key.Account):
			alerts = append(alerts, models.ContaminationAlert{
				Kind:      models.ContaminationRevenueNegative,
				Risk:      models.RiskHigh,
				Account:   key.Account,
				Year:      key.Year,
				Month:     key.Month,
				Processed: procVal,
				Original:  origVal,
				Detail: fmt.Sprintf("revenue account carries negative figure %s",
					procVal),
			})
		}
	}

	alerts = append(alerts, d.detectDuplicates(processed)...)

	if len(alerts) > 0 {
		d.logger.Error("Cross contamination detected",
			logging.Field{Key: logging.FieldCount, Value: len(alerts)})
	} else {
		d.logger.Info("Reconciliation clean")
	}
	return alerts
}

// detectDuplicates runs the global duplicate-amount pass: the same non-zero
// figure on two or more distinct accounts in the same year and month.
func (d *ContaminationDetector) detectDuplicates(processed models.FigureSet) []models.ContaminationAlert {
	type bucket struct {
		year, month, amount string
	}
	groups := make(map[bucket][]models.FigureKey)

	for _, key := range processed.Keys() {
		v := processed[key]
		if v.IsZero() {
			continue
		}
		b := bucket{year: key.Year, month: key.Month, amount: v.String()}
		groups[b] = append(groups[b], key)
	}

	var buckets []bucket
	for b, keys := range groups {
		if len(keys) >= 2 {
			buckets = append(buckets, b)
		}
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].year != buckets[j].year {
			return buckets[i].year < buckets[j].year
		}
		if buckets[i].month != buckets[j].month {
			return buckets[i].month < buckets[j].month
		}
		return buckets[i].amount < buckets[j].amount
	})

	var alerts []models.ContaminationAlert
	for _, b := range buckets {
		keys := groups[b]
		accounts := make([]models.AccountCode, len(keys))
		names := make([]string, len(keys))
		for i, k := range keys {
			accounts[i] = k.Account
			names[i] = string(k.Account)
		}
		amount, _ := decimal.NewFromString(b.amount)
		alerts = append(alerts, models.ContaminationAlert{
			Kind:      models.ContaminationDuplicateAmount,
			Risk:      models.RiskHigh,
			Account:   accounts[0],
			Year:      b.year,
			Month:     b.month,
			Processed: amount,
			Accounts:  accounts,
			Detail: fmt.Sprintf("amount %s appears on accounts %s",
				b.amount, strings.Join(names, ", ")),
		})
	}
	return alerts
}
