package repository

const (
	SortPathAsc   = "path_asc"
	SortPathNat   = "path_nat"
	SortMtimeDesc = "mtime_desc"
	SortMtimeAsc  = "mtime_asc"
)

const DefaultSortOrder = SortPathNat

// IsValidSortOrder checks if a string is a valid instance listing order
func IsValidSortOrder(order string) bool {
	switch order {
	case SortPathAsc, SortPathNat, SortMtimeDesc, SortMtimeAsc:
		return true
	default:
		return false
	}
}
