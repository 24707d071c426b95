package db

// PageNavigation summarizes a paginated result: how many rows exist in
// total, how many pages that makes, which page was requested, and how many
// page links the caller wants to show.
type PageNavigation struct {
	TotalCount int
	TotalPage  int
	Page       int
	PageCount  int
}

// calcPageNavigation derives the navigation summary from a count result and
// the descriptor's navigation parameters. The max(1, ceil) floor guarantees
// at least one page even for zero rows. The returned lastIndex is the
// starting ordinal for the reverse-indexing fetch: the position of the
// page's first row counted from the end of the full result set.
func calcPageNavigation(totalCount, listCount, pageCount, page int) (PageNavigation, int) {
	totalPage := (totalCount + listCount - 1) / listCount
	if totalPage < 1 {
		totalPage = 1
	}

	lastIndex := totalCount - (page-1)*listCount

	nav := PageNavigation{
		TotalCount: totalCount,
		TotalPage:  totalPage,
		Page:       page,
		PageCount:  pageCount,
	}
	return nav, lastIndex
}
