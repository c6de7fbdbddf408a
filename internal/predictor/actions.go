package predictor

// Action is a refactoring action tag. The vocabulary is closed at any given
// model version but extensible through the model file; predictions for tags
// outside the registered set fall back to a neutral prior instead of failing.
type Action string

const (
	ActionOptimizeCarbon   Action = "optimize_carbon"
	ActionReduceComplexity Action = "reduce_complexity"
	ActionExtractMethod    Action = "extract_method"
	ActionOptimizeLoop     Action = "optimize_loop"
	ActionAddCaching       Action = "add_caching"
)

// Vocabulary returns the built-in action vocabulary in declaration order.
func Vocabulary() []Action {
	return []Action{
		ActionOptimizeCarbon,
		ActionReduceComplexity,
		ActionExtractMethod,
		ActionOptimizeLoop,
		ActionAddCaching,
	}
}
