package report

import "github.com/xuri/excelize/v2"

// RowStyle is the visual treatment for one job state: a solid fill and a
// contrasting font colour.
type RowStyle struct {
	Fill string
	Font string
}

// rowStyles maps job states to their fill. The mapping depends on the state
// value alone so re-aggregation always reproduces the same colours.
var rowStyles = map[string]RowStyle{
	"Completed": {Fill: "228B22", Font: "FFFFFF"},
	"Failed":    {Fill: "B22222", Font: "FFFFFF"},
	"Canceled":  {Fill: "FFD700", Font: "000000"},
	"Error":     {Fill: "ED8936", Font: "000000"},
}

// StyleFor returns the row style for a state. States without a defined
// style report ok=false and are left unstyled.
func StyleFor(state string) (RowStyle, bool) {
	s, ok := rowStyles[state]
	return s, ok
}

// styleSet caches excelize style IDs per state for one workbook handle.
// Style IDs are workbook-scoped, so the cache must not outlive the file.
type styleSet struct {
	file *excelize.File
	ids  map[string]int
}

func newStyleSet(f *excelize.File) *styleSet {
	return &styleSet{file: f, ids: make(map[string]int)}
}

// idFor returns the style ID for a state, creating the style on first use.
// States without a defined style return ok=false.
func (s *styleSet) idFor(state string) (int, bool, error) {
	if id, ok := s.ids[state]; ok {
		return id, true, nil
	}
	rs, ok := StyleFor(state)
	if !ok {
		return 0, false, nil
	}
	id, err := s.file.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{rs.Fill}},
		Font: &excelize.Font{Color: rs.Font},
	})
	if err != nil {
		return 0, false, err
	}
	s.ids[state] = id
	return id, true, nil
}
