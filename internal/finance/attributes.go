package finance

import (
	"strings"
)

// Form kinds that carry a category-specific attributes map.
const (
	KindAsset     = "assets"
	KindDebt      = "debts"
	KindInsurance = "insurance"
)

const (
	MainPhysical  = "PHYSICAL"
	MainFinancial = "FINANCIAL"
)

type Field struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Type        string   `json:"type"` // text, number, date, select
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
}

var assetFields = map[string][]Field{
	"REAL_ESTATE": {
		{Key: "location", Label: "Location", Type: "text", Placeholder: "e.g. Pune, Maharashtra"},
		{Key: "areaSqFt", Label: "Area (Sq Ft)", Type: "number", Placeholder: "e.g. 1200"},
		{Key: "propertyType", Label: "Property Type", Type: "select", Options: []string{"APARTMENT", "VILLA", "PLOT", "COMMERCIAL"}},
		{Key: "status", Label: "Status", Type: "select", Options: []string{"SELF_OCCUPIED", "RENTED", "UNDER_CONSTRUCTION", "VACANT"}},
	},
	"EQUITY": {
		{Key: "tickerSymbol", Label: "Ticker Symbol", Type: "text", Placeholder: "e.g. RELIANCE"},
		{Key: "exchange", Label: "Exchange", Type: "text", Placeholder: "NSE/BSE"},
		{Key: "quantity", Label: "Quantity", Type: "number", Placeholder: "0"},
		{Key: "avgBuyPrice", Label: "Avg Buy Price", Type: "number", Placeholder: "0.00"},
	},
	"MUTUAL_FUND": {
		{Key: "fundHouse", Label: "Fund House", Type: "text", Placeholder: "e.g. HDFC"},
		{Key: "schemeName", Label: "Scheme Name", Type: "text", Placeholder: "e.g. Top 100 Fund"},
		{Key: "folioNumber", Label: "Folio Number", Type: "text", Placeholder: "Optional"},
		{Key: "units", Label: "Units", Type: "number", Placeholder: "0"},
		{Key: "nav", Label: "Current NAV", Type: "number", Placeholder: "0.00"},
	},
	"FIXED_INCOME": {
		{Key: "issuer", Label: "Issuer/Bank", Type: "text", Placeholder: "e.g. SBI"},
		{Key: "interestRate", Label: "Interest Rate (%)", Type: "number", Placeholder: "7.5"},
		{Key: "maturityDate", Label: "Maturity Date", Type: "date"},
		{Key: "accountNumber", Label: "Account No.", Type: "text", Placeholder: "XXXX"},
	},
	"CRYPTO": {
		{Key: "coinSymbol", Label: "Coin Symbol", Type: "text", Placeholder: "BTC"},
		{Key: "walletAddress", Label: "Wallet Address", Type: "text", Placeholder: "0x..."},
		{Key: "network", Label: "Network", Type: "text", Placeholder: "e.g. Ethereum"},
		{Key: "quantity", Label: "Quantity", Type: "number", Placeholder: "0.00"},
	},
	"VEHICLE": {
		{Key: "registrationNo", Label: "Registration No", Type: "text", Placeholder: "MH-12-..."},
		{Key: "modelYear", Label: "Model Year", Type: "number", Placeholder: "2024"},
		{Key: "insuranceExpiry", Label: "Insurance Expiry", Type: "date"},
	},
	"CASH": {
		{Key: "bankName", Label: "Bank Name", Type: "text", Placeholder: "e.g. ICICI"},
		{Key: "accountType", Label: "Account Type", Type: "select", Options: []string{"SAVINGS", "CURRENT"}},
	},
}

var debtFields = map[string][]Field{
	"CREDIT_CARD": {
		{Key: "interestRate", Label: "APR / Interest Rate (%)", Type: "number", Placeholder: "e.g. 18.5"},
		{Key: "minPayment", Label: "Min Payment", Type: "number", Placeholder: "e.g. 5000"},
	},
	"HOME_LOAN": {
		{Key: "interestRate", Label: "Interest Rate (%)", Type: "number", Placeholder: "e.g. 8.5"},
		{Key: "tenure", Label: "Tenure (Years)", Type: "number", Placeholder: "e.g. 20"},
	},
	"PERSONAL_LOAN": {
		{Key: "interestRate", Label: "Interest Rate (%)", Type: "number", Placeholder: "e.g. 12.0"},
		{Key: "emi", Label: "Monthly EMI", Type: "number", Placeholder: "e.g. 15000"},
	},
	"EMI": {
		{Key: "emiAmount", Label: "EMI Amount", Type: "number", Placeholder: "e.g. 2500"},
		{Key: "duration", Label: "Duration (Months)", Type: "number", Placeholder: "e.g. 12"},
	},
}

var insuranceFields = map[string][]Field{
	"LIFE": {
		{Key: "policyType", Label: "Policy Type", Type: "select", Options: []string{"TERM", "ENDOWMENT", "ULIP", "WHOLE_LIFE"}},
		{Key: "nominee", Label: "Nominee Name", Type: "text", Placeholder: "e.g. Spouse Name"},
		{Key: "sumAssured", Label: "Sum Assured", Type: "number", Placeholder: "e.g. 10000000"},
	},
	"HEALTH": {
		{Key: "membersCovered", Label: "Members Covered", Type: "text", Placeholder: "e.g. Self, Spouse, 2 Kids"},
		{Key: "waitingPeriod", Label: "Waiting Period (Years)", Type: "number", Placeholder: "e.g. 2"},
		{Key: "networkHospitals", Label: "Network Hospitals", Type: "text", Placeholder: "e.g. Apollo, Fortis"},
	},
	"VEHICLE": {
		{Key: "vehicleNumber", Label: "Vehicle Number", Type: "text", Placeholder: "MH-12-XX-1234"},
		{Key: "idv", Label: "IDV Value", Type: "number", Placeholder: "Current Market Value"},
		{Key: "ncb", Label: "No Claim Bonus (%)", Type: "number", Placeholder: "e.g. 20"},
	},
	"HOME": {
		{Key: "propertyAddress", Label: "Property Address", Type: "text", Placeholder: "Address"},
		{Key: "coverType", Label: "Cover Type", Type: "select", Options: []string{"STRUCTURE_ONLY", "CONTENT_ONLY", "COMPREHENSIVE"}},
	},
	"TRAVEL": {
		{Key: "tripDestination", Label: "Destination", Type: "text", Placeholder: "e.g. Europe"},
		{Key: "travelDates", Label: "Travel Dates", Type: "text", Placeholder: "e.g. 01/01 - 15/01"},
	},
}

func tableFor(kind string) map[string][]Field {
	switch kind {
	case KindAsset:
		return assetFields
	case KindDebt:
		return debtFields
	case KindInsurance:
		return insuranceFields
	default:
		return nil
	}
}

// FieldsFor returns the extra form fields for a category. Unknown categories have none.
func FieldsFor(kind, category string) ([]Field, bool) {
	table := tableFor(kind)
	if table == nil {
		return nil, false
	}
	return table[strings.ToUpper(category)], true
}

// Categories lists the categories that have attribute rules for kind.
func Categories(kind string) []string {
	table := tableFor(kind)
	out := make([]string, 0, len(table))
	for category := range table {
		out = append(out, category)
	}
	return out
}

func MainCategory(category string) string {
	switch strings.ToUpper(category) {
	case "REAL_ESTATE", "VEHICLE", "GOLD":
		return MainPhysical
	default:
		return MainFinancial
	}
}

// PruneAttributes drops attribute keys the category does not define, which is what the form
// does when a user switches category after filling fields. A nil map comes back empty.
func PruneAttributes(kind, category string, attrs map[string]any) map[string]any {
	out := map[string]any{}
	fields, _ := FieldsFor(kind, category)
	for _, f := range fields {
		if v, ok := attrs[f.Key]; ok {
			out[f.Key] = v
		}
	}
	return out
}

// SEARCH (over locally loaded items only):

func containsFold(s, q string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(q))
}

func (b Budget) Matches(q string) bool {
	return containsFold(b.Title, q) || containsFold(b.Category, q)
}

func (g Goal) Matches(q string) bool {
	return containsFold(g.Name, q)
}

func (s Subscription) Matches(q string) bool {
	return containsFold(s.Title, q) || containsFold(s.Category, q)
}
