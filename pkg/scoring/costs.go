// Package scoring prices structural tree labels for the alignment and edit
// distance engines.
package scoring

// Default cost values.
const (
	DefaultInsertOperatorCost   = 100.0
	DefaultDeleteOperatorCost   = 100.0
	DefaultReplaceOperatorCost  = 100.0
	DefaultInsertHairpinCost    = 100.0
	DefaultDeleteHairpinCost    = 100.0
	DefaultCrossingMismatchCost = 1.0
	DefaultEditInsertCost       = 1.0
	DefaultEditDeleteCost       = 1.0
	DefaultEditRenameCost       = 1.0
)

// Cost file keys.
const (
	KeyInsertOperatorCost   = "INSERT_OPERATOR_COST"
	KeyDeleteOperatorCost   = "DELETE_OPERATOR_COST"
	KeyReplaceOperatorCost  = "REPLACE_OPERATOR_COST"
	KeyInsertHairpinCost    = "INSERT_HAIRPIN_COST"
	KeyDeleteHairpinCost    = "DELETE_HAIRPIN_COST"
	KeyCrossingMismatchCost = "CROSSING_MISMATCH_COST"
	KeyEditInsertCost       = "EDITDISTANCE_INSERT_COST"
	KeyEditDeleteCost       = "EDITDISTANCE_DELETE_COST"
	KeyEditRenameCost       = "EDITDISTANCE_RENAME_COST"
)

// Costs holds the nine non-negative weights of the cost model.
type Costs struct {
	InsertOperator   float64 `json:"insert_operator"   yaml:"insert_operator"`
	DeleteOperator   float64 `json:"delete_operator"   yaml:"delete_operator"`
	ReplaceOperator  float64 `json:"replace_operator"  yaml:"replace_operator"`
	InsertHairpin    float64 `json:"insert_hairpin"    yaml:"insert_hairpin"`
	DeleteHairpin    float64 `json:"delete_hairpin"    yaml:"delete_hairpin"`
	CrossingMismatch float64 `json:"crossing_mismatch" yaml:"crossing_mismatch"`
	EditInsert       float64 `json:"edit_insert"       yaml:"edit_insert"`
	EditDelete       float64 `json:"edit_delete"       yaml:"edit_delete"`
	EditRename       float64 `json:"edit_rename"       yaml:"edit_rename"`
}

// DefaultCosts returns the default weights.
func DefaultCosts() Costs {
	return Costs{
		InsertOperator:   DefaultInsertOperatorCost,
		DeleteOperator:   DefaultDeleteOperatorCost,
		ReplaceOperator:  DefaultReplaceOperatorCost,
		InsertHairpin:    DefaultInsertHairpinCost,
		DeleteHairpin:    DefaultDeleteHairpinCost,
		CrossingMismatch: DefaultCrossingMismatchCost,
		EditInsert:       DefaultEditInsertCost,
		EditDelete:       DefaultEditDeleteCost,
		EditRename:       DefaultEditRenameCost,
	}
}

// Entry is one named weight.
type Entry struct {
	Key   string
	Value float64
}

// Entries lists the weights in cost file order.
func (c Costs) Entries() []Entry {
	fields := c.fields()
	entries := make([]Entry, 0, len(fields))

	for _, field := range fields {
		entries = append(entries, Entry{Key: field.key, Value: *field.value})
	}

	return entries
}

type costField struct {
	key   string
	value *float64
}

func (c *Costs) fields() []costField {
	return []costField{
		{KeyInsertOperatorCost, &c.InsertOperator},
		{KeyDeleteOperatorCost, &c.DeleteOperator},
		{KeyReplaceOperatorCost, &c.ReplaceOperator},
		{KeyInsertHairpinCost, &c.InsertHairpin},
		{KeyDeleteHairpinCost, &c.DeleteHairpin},
		{KeyCrossingMismatchCost, &c.CrossingMismatch},
		{KeyEditInsertCost, &c.EditInsert},
		{KeyEditDeleteCost, &c.EditDelete},
		{KeyEditRenameCost, &c.EditRename},
	}
}
