// Package matrix defines the SkillMatrix record and the validator that guards it.
package matrix

// Seniority is the inferred level of a role.
type Seniority string

const (
	SeniorityJunior  Seniority = "junior"
	SeniorityMid     Seniority = "mid"
	SenioritySenior  Seniority = "senior"
	SeniorityLead    Seniority = "lead"
	SeniorityUnknown Seniority = "unknown"
)

// Seniorities lists every accepted seniority value.
var Seniorities = []Seniority{SeniorityJunior, SeniorityMid, SenioritySenior, SeniorityLead, SeniorityUnknown}

// Currency is an ISO 4217 code accepted in a salary range.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyPLN Currency = "PLN"
	CurrencyGBP Currency = "GBP"
)

// Currencies lists every accepted currency code.
var Currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyPLN, CurrencyGBP}

// Category names one of the fixed skill buckets.
type Category string

const (
	CategoryFrontend Category = "frontend"
	CategoryBackend  Category = "backend"
	CategoryDevops   Category = "devops"
	CategoryWeb3     Category = "web3"
	CategoryOther    Category = "other"
)

// Categories is the fixed category order used for output and summaries.
var Categories = []Category{CategoryFrontend, CategoryBackend, CategoryDevops, CategoryWeb3, CategoryOther}

// SkillMatrix is the structured record extracted from a job description.
type SkillMatrix struct {
	Title      string    `json:"title"`
	Seniority  Seniority `json:"seniority"`
	Skills     Skills    `json:"skills"`
	MustHave   []string  `json:"mustHave"`
	NiceToHave []string  `json:"niceToHave"`
	Salary     *Salary   `json:"salary,omitempty"`
	Summary    string    `json:"summary"`
}

// Skills holds the categorized skill tokens. Every list is always present.
type Skills struct {
	Frontend []string `json:"frontend"`
	Backend  []string `json:"backend"`
	Devops   []string `json:"devops"`
	Web3     []string `json:"web3"`
	Other    []string `json:"other"`
}

// Salary is an advertised pay range. At least the currency is always set.
type Salary struct {
	Currency Currency `json:"currency"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// NewSkills returns a Skills value with every category initialized to an empty list.
func NewSkills() Skills {
	return Skills{
		Frontend: []string{},
		Backend:  []string{},
		Devops:   []string{},
		Web3:     []string{},
		Other:    []string{},
	}
}

// Get returns the list stored under the category.
func (s Skills) Get(c Category) []string {
	switch c {
	case CategoryFrontend:
		return s.Frontend
	case CategoryBackend:
		return s.Backend
	case CategoryDevops:
		return s.Devops
	case CategoryWeb3:
		return s.Web3
	case CategoryOther:
		return s.Other
	}
	return nil
}

// Set stores the list under the category. Unknown categories are ignored.
func (s *Skills) Set(c Category, values []string) {
	if values == nil {
		values = []string{}
	}
	switch c {
	case CategoryFrontend:
		s.Frontend = values
	case CategoryBackend:
		s.Backend = values
	case CategoryDevops:
		s.Devops = values
	case CategoryWeb3:
		s.Web3 = values
	case CategoryOther:
		s.Other = values
	}
}

// Clone returns a deep copy of the record.
func (m *SkillMatrix) Clone() *SkillMatrix {
	if m == nil {
		return nil
	}

	out := *m
	for _, c := range Categories {
		out.Skills.Set(c, cloneStrings(m.Skills.Get(c)))
	}
	out.MustHave = cloneStrings(m.MustHave)
	out.NiceToHave = cloneStrings(m.NiceToHave)

	if m.Salary != nil {
		salary := Salary{Currency: m.Salary.Currency}
		if m.Salary.Min != nil {
			v := *m.Salary.Min
			salary.Min = &v
		}
		if m.Salary.Max != nil {
			v := *m.Salary.Max
			salary.Max = &v
		}
		out.Salary = &salary
	}

	return &out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
