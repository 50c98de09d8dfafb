package quotes

// QuoteFetchResult is the outcome of syncing one investment.
// Provider and conversion failures are reported here rather than as errors.
type QuoteFetchResult struct {
	InvestmentID int64   `json:"investment_id"`
	Success      bool    `json:"success"`
	Error        *string `json:"error"`
	QuotesStored int     `json:"quotes_stored"`
}

// ProviderInfo describes a registered quote provider
type ProviderInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Summary aggregates a batch of results
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Summarize counts successful and failed results
func Summarize(results []QuoteFetchResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Successful++
		}
	}
	s.Failed = s.Total - s.Successful
	return s
}

func failed(investmentID int64, reason string, stored int) QuoteFetchResult {
	return QuoteFetchResult{
		InvestmentID: investmentID,
		Success:      false,
		Error:        &reason,
		QuotesStored: stored,
	}
}
