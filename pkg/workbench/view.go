package workbench

// StructureView is the serializable form of a Structure.
type StructureView struct {
	Name        string `json:"name"            yaml:"name"`
	Length      int    `json:"length"          yaml:"length"`
	Bonds       int    `json:"bonds"           yaml:"bonds"`
	BuildTimeNS int64  `json:"build_time_ns"   yaml:"build_time_ns"`
	Tree        string `json:"tree,omitempty"  yaml:"tree,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ComparisonView is the serializable form of a Comparison. Distances not
// computed by the engine, or that failed, are omitted.
type ComparisonView struct {
	Left         string   `json:"left"                    yaml:"left"`
	Right        string   `json:"right"                   yaml:"right"`
	ASADistance  *float64 `json:"asa_distance,omitempty"  yaml:"asa_distance,omitempty"`
	AlignTimeNS  int64    `json:"align_time_ns,omitempty" yaml:"align_time_ns,omitempty"`
	EditDistance *float64 `json:"edit_distance,omitempty" yaml:"edit_distance,omitempty"`
	EditTimeNS   int64    `json:"edit_time_ns,omitempty"  yaml:"edit_time_ns,omitempty"`
	Error        string   `json:"error,omitempty"         yaml:"error,omitempty"`
}

// ReportView is the serializable form of a Report.
type ReportView struct {
	Engine      Engine           `json:"engine"      yaml:"engine"`
	ElapsedNS   int64            `json:"elapsed_ns"  yaml:"elapsed_ns"`
	Structures  []StructureView  `json:"structures"  yaml:"structures"`
	Comparisons []ComparisonView `json:"comparisons" yaml:"comparisons"`
}

// View converts the report for JSON or YAML output.
func (r *Report) View() ReportView {
	view := ReportView{
		Engine:      r.Engine,
		ElapsedNS:   r.Elapsed.Nanoseconds(),
		Structures:  make([]StructureView, 0, len(r.Structures)),
		Comparisons: make([]ComparisonView, 0, len(r.Comparisons)),
	}

	for _, s := range r.Structures {
		sv := StructureView{
			Name:        s.Name,
			Length:      s.Length,
			Bonds:       s.Bonds,
			BuildTimeNS: s.BuildTime.Nanoseconds(),
		}

		if s.Tree != nil {
			sv.Tree = s.Tree.String()
		}

		if s.Err != nil {
			sv.Error = s.Err.Error()
		}

		view.Structures = append(view.Structures, sv)
	}

	for _, c := range r.Comparisons {
		cv := ComparisonView{Left: c.Left.Name, Right: c.Right.Name}

		if r.Engine.Aligns() && c.AlignErr == nil {
			distance := c.Distance
			cv.ASADistance = &distance
			cv.AlignTimeNS = c.AlignTime.Nanoseconds()
		}

		if r.Engine.Edits() && c.EditErr == nil {
			distance := c.EditDistance
			cv.EditDistance = &distance
			cv.EditTimeNS = c.EditTime.Nanoseconds()
		}

		if err := c.Err(); err != nil {
			cv.Error = err.Error()
		}

		view.Comparisons = append(view.Comparisons, cv)
	}

	return view
}
