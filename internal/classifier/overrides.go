package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ledger-audit/internal/logging"
)

// rangeOverrides is the YAML shape of a classification override file. Any
// section left empty keeps the built-in table for that family.
type rangeOverrides struct {
	VATCodes []int `yaml:"vat_codes"`
	BSRanges []struct {
		Low  int `yaml:"low"`
		High int `yaml:"high"`
	} `yaml:"bs_ranges"`
	PLRevenue []struct {
		Low  int `yaml:"low"`
		High int `yaml:"high"`
	} `yaml:"pl_revenue"`
	PLExpense []struct {
		Low  int `yaml:"low"`
		High int `yaml:"high"`
	} `yaml:"pl_expense"`
}

// LoadOverrides replaces parts of the classification table from a YAML file.
// A missing file is not an error; the built-in table stays in effect.
func (c *AccountClassifier) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Warn("Classification override file not found",
				logging.Field{Key: logging.FieldFile, Value: path})
			return nil
		}
		return fmt.Errorf("reading classification overrides: %w", err)
	}

	var o rangeOverrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parsing classification overrides: %w", err)
	}

	if len(o.VATCodes) > 0 {
		c.ranges.VATCodes = o.VATCodes
	}
	if len(o.BSRanges) > 0 {
		c.ranges.BSRanges = nil
		for _, r := range o.BSRanges {
			c.ranges.BSRanges = append(c.ranges.BSRanges, codeRange{r.Low, r.High})
		}
	}
	if len(o.PLRevenue) > 0 {
		c.ranges.PLRevenue = nil
		for _, r := range o.PLRevenue {
			c.ranges.PLRevenue = append(c.ranges.PLRevenue, codeRange{r.Low, r.High})
		}
	}
	if len(o.PLExpense) > 0 {
		c.ranges.PLExpense = nil
		for _, r := range o.PLExpense {
			c.ranges.PLExpense = append(c.ranges.PLExpense, codeRange{r.Low, r.High})
		}
	}

	c.logger.Info("Loaded classification overrides",
		logging.Field{Key: logging.FieldFile, Value: path})
	return nil
}
