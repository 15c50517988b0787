package models

// Pagination drives infinite-scroll continuation. Some endpoints ship
// hasMore directly while others only ship page/limit/total; Normalize fills
// in whichever fields are missing so callers only ever read the computed
// values.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int   `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
	hasMoreSet bool  // true when the response carried hasMore explicitly
}

// NewPagination builds a normalized Pagination from the fields a response
// actually carried. hasMore is a pointer so "absent" and "false" stay
// distinguishable.
func NewPagination(page, limit, total, totalPages int, hasMore *bool) Pagination {
	p := Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
	if hasMore != nil {
		p.HasMore = *hasMore
		p.hasMoreSet = true
	}
	p.Normalize()
	return p
}

// Normalize derives TotalPages from Total/Limit and HasMore from
// Page < TotalPages when the response did not provide them.
func (p *Pagination) Normalize() {
	if p.TotalPages == 0 && p.Limit > 0 {
		p.TotalPages = (p.Total + p.Limit - 1) / p.Limit
	}
	if !p.hasMoreSet {
		p.HasMore = p.Page < p.TotalPages
	}
}

// NextPage is the page number the continuation should request.
func (p Pagination) NextPage() int { return p.Page + 1 }
