package domain

// PaginationParams selects a window of a list by starting row and window size.
// Rows are served in whole windows: From is rounded down to a multiple of Size.
type PaginationParams struct {
	From int
	Size int
}

// Offset returns the first row of the window containing From.
func (p PaginationParams) Offset() int {
	if p.From <= 0 || p.Size <= 0 {
		return 0
	}
	return p.From / p.Size * p.Size
}

// Limit returns the window size, or 0 (no limit) when unset.
func (p PaginationParams) Limit() int {
	if p.Size < 0 {
		return 0
	}
	return p.Size
}
