package dto

// KindCountDTO is one row of a source/target count comparison.
type KindCountDTO struct {
	Kind   string `json:"kind"`
	Table  string `json:"table"`
	Source int64  `json:"source"`
	Target int64  `json:"target"`
	Match  bool   `json:"match"`
}
