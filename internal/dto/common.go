package dto

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
}

// Pagination describes one page of a filtered result set.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes totalPages = ceil(total/limit).
func NewPagination(page, limit int, total int64) *Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// PageQuery carries the shared pagination and sorting query parameters.
// Unknown sortBy values fall back to the entity's default sort field.
type PageQuery struct {
	Page      int    `form:"page,default=1" validate:"min=1"`
	Limit     int    `form:"limit,default=10" validate:"min=1,max=1000"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder,default=desc" validate:"omitempty,oneof=asc desc"`
}
