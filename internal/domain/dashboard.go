package domain

// DashboardSummary aggregates a tenant's portfolio for the dashboard.
type DashboardSummary struct {
	ActiveLoans          int     `json:"activeLoans"`
	OverdueLoans         int     `json:"overdueLoans"`
	OutstandingPrincipal float64 `json:"outstandingPrincipal"`
	TotalReceived        float64 `json:"totalReceived"`
	AccountBalance       float64 `json:"accountBalance"`
	Clients              int     `json:"clients"`
}

// EvolutionPoint is one month's disbursed vs received totals for the
// evolution chart.
type EvolutionPoint struct {
	Month     string  `json:"month"`
	Disbursed float64 `json:"disbursed"`
	Received  float64 `json:"received"`
}

// CepResult is a postal-code lookup response from the ViaCEP API.
type CepResult struct {
	Cep      string `json:"cep"`
	Street   string `json:"logradouro"`
	District string `json:"bairro"`
	City     string `json:"localidade"`
	State    string `json:"uf"`
}
