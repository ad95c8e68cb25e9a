// Package sim evaluates tax and transfer rules over columnar person data.
//
// Rules are Functions named by qualified names. Their inputs are either
// other functions or data columns; together they form a DAG that is pruned
// to the requested targets and evaluated in deterministic topological order.
// A run has three stages: Prepare (input mapping and DAG construction),
// Compute (evaluation on a Backend) and Format (labelled output table).
package sim

// Kind selects how a function combines its inputs.
type Kind int

const (
	// Row computes one value per person from the person's inputs.
	Row Kind = iota
	// GroupSum broadcasts the sum of the input over the person's group.
	GroupSum
	// GroupCount broadcasts the number of members of the person's group.
	GroupCount
	// PointerSum gives each person the sum of the input over all persons
	// whose pointer column holds that person's p_id.
	PointerSum
)

func (k Kind) String() string {
	switch k {
	case Row:
		return "row"
	case GroupSum:
		return "group_sum"
	case GroupCount:
		return "group_count"
	case PointerSum:
		return "pointer_sum"
	}
	return "unknown"
}

// Function is one policy rule.
type Function struct {
	Name   string
	Kind   Kind
	Inputs []string
	// Group is the group id column for GroupSum and GroupCount, and the
	// pointer column for PointerSum.
	Group string
	// Eval computes a Row value from the inputs in Inputs order.
	Eval func(args []float64) float64
}

// Dependencies lists everything the function reads.
func (f Function) Dependencies() []string {
	deps := append([]string(nil), f.Inputs...)
	if f.Group != "" {
		deps = append(deps, f.Group)
	}
	return deps
}

func (f Function) validate() error {
	if f.Name == "" {
		return invalidf("function name is required")
	}
	switch f.Kind {
	case Row:
		if f.Eval == nil {
			return invalidf("row function %q has no Eval", f.Name)
		}
		if len(f.Inputs) == 0 {
			return invalidf("row function %q has no inputs", f.Name)
		}
	case GroupSum, PointerSum:
		if len(f.Inputs) != 1 || f.Group == "" {
			return invalidf("%s function %q needs one input and a group column", f.Kind, f.Name)
		}
	case GroupCount:
		if len(f.Inputs) != 0 || f.Group == "" {
			return invalidf("group_count function %q needs a group column and no inputs", f.Name)
		}
	default:
		return invalidf("function %q has unknown kind %d", f.Name, f.Kind)
	}
	return nil
}
