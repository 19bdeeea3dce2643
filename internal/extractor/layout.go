package extractor

// Layout describes where a ledger sheet keeps its pieces. All coordinates are
// 1-based; columns are letters. The defaults match the standard general
// ledger export this tool was built for.
type Layout struct {
	HeaderRow         int
	CarryForwardRow   int
	DataStartRow      int
	DateColumn        string
	DescriptionColumn string
	DebitColumn       string
	CreditColumn      string
	BalanceColumn     string
	CarryForwardLabel string
	MonthTotalMarker  string
	RequiredHeaders   []string
}

// DefaultLayout returns the standard ledger layout: headers in row 1,
// carry-forward in row 5, data from row 6.
func DefaultLayout() Layout {
	return Layout{
		HeaderRow:         1,
		CarryForwardRow:   5,
		DataStartRow:      6,
		DateColumn:        "A",
		DescriptionColumn: "B",
		DebitColumn:       "E",
		CreditColumn:      "F",
		BalanceColumn:     "G",
		CarryForwardLabel: "prior-period carry-forward",
		MonthTotalMarker:  "MONTHLY TOTAL",
		RequiredHeaders: []string{
			"Date", "Description", "Code", "Partner", "Debit", "Credit", "Balance",
		},
	}
}
