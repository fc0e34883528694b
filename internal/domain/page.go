package domain

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageRequest is a 1-based page/limit pair.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest applies defaults: page 1, limit 10, limit capped at 100.
func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

func (p PageRequest) Skip() int {
	return (p.Page - 1) * p.Limit
}

type PageInfo struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (p PageRequest) Info(total int) PageInfo {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PageInfo{Total: total, Pages: pages, Page: p.Page, Limit: p.Limit}
}
