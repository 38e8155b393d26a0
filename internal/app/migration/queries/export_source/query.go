package export_source

import "github.com/nzb155/nomulus/internal/app/migration/domain"

// Summary describes one exported kind.
type Summary struct {
	Kind       string
	Records    int
	MinVersion int64
	MaxVersion int64
}

func summarize(kind string, records []domain.VersionedRecord) Summary {
	s := Summary{Kind: kind, Records: len(records)}
	for i, rec := range records {
		v := rec.CommitVersion()
		if i == 0 || v < s.MinVersion {
			s.MinVersion = v
		}
		if v > s.MaxVersion {
			s.MaxVersion = v
		}
	}
	return s
}
