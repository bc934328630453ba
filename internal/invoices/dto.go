package invoices

// ProcessResponse is returned by a successful upload.
type ProcessResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Invoice Invoice `json:"invoice"`
}

// Pagination echoes the applied paging and the unpaged total.
type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListResponse is the body of GET /api/invoices.
type ListResponse struct {
	Success    bool       `json:"success"`
	Invoices   []Invoice  `json:"invoices"`
	Pagination Pagination `json:"pagination"`
}

// GetResponse is the body of GET /api/invoices/:id.
type GetResponse struct {
	Success bool    `json:"success"`
	Invoice Invoice `json:"invoice"`
}

// MessageResponse is a bare success acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
