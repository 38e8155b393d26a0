package committer

// Plan is the ordered set of row upserts buffered by one transaction.
// It is applied as a whole or not at all.
type Plan struct {
	rows []Row
}

func NewPlan() *Plan {
	return &Plan{
		rows: make([]Row, 0),
	}
}

// Add appends an upsert. Rows for the same key are applied in the order they
// were added, so the last one wins.
func (p *Plan) Add(r Row) {
	p.rows = append(p.rows, r)
}

func (p *Plan) IsEmpty() bool {
	return len(p.rows) == 0
}

func (p *Plan) Len() int {
	return len(p.rows)
}

func (p *Plan) Rows() []Row {
	return p.rows
}
