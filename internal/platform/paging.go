package platform

// HasMore reports whether another result page is worth requesting. With a
// known total it compares consumed slots against the total; without one it
// falls back to "a full page probably has a successor". The fallback
// over-reports by one page when the last page is exactly full, which costs
// one empty fetch and nothing else.
func HasMore(totalCount *int, page, pageSize, currentCount int) bool {
	if totalCount != nil {
		return page*pageSize < *totalCount
	}
	return currentCount >= pageSize
}
