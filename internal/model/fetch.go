package model

// FetchStatus is the terminal outcome of one category fetch.
type FetchStatus string

const (
	// FetchOK means the listing was retrieved and yielded usable items.
	FetchOK FetchStatus = "ok"
	// FetchHTTPError means a transport failure or non-success response
	// ended pagination. Items collected before the failure are kept.
	FetchHTTPError FetchStatus = "http_error"
	// FetchEmptyAPI means the source returned nothing at all on the first
	// page, as opposed to "nothing matched our filters".
	FetchEmptyAPI FetchStatus = "empty_api"
	// FetchFilteredEmpty means pages held raw records but none survived
	// normalization and the budget filter.
	FetchFilteredEmpty FetchStatus = "filtered_empty"
	// FetchBlocked means every retry attempt failed; the category is
	// skipped for this run and must not poison other categories.
	FetchBlocked FetchStatus = "blocked"
)

// FetchDiagnostics carries per-fetch observability counters.
type FetchDiagnostics struct {
	Attempts     int `json:"attempts"`
	PagesFetched int `json:"pages_fetched"`
	RawItems     int `json:"raw_items"`
	Skipped      int `json:"skipped"`
	LastHTTPCode int `json:"last_http_code,omitempty"`
	// LastStatus preserves the final attempt's session status when the
	// category ends up blocked.
	LastStatus FetchStatus `json:"last_status,omitempty"`
}

// FetchResult is the fetcher's output for one category.
type FetchResult struct {
	Items       []Product        `json:"items"`
	Status      FetchStatus      `json:"status"`
	Diagnostics FetchDiagnostics `json:"diagnostics"`
}
