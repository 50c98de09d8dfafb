package yahoo

// chartResponse is the subset of the v8 chart API payload used for daily closes
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  interface{}   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency string `json:"currency"`
		Symbol   string `json:"symbol"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			// Yahoo returns null for days without a close
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}
