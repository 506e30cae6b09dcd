package query

const (
	MinTopK = 4
	MaxTopK = 16
)

// DynamicTopK adjusts the base candidate count for complexity and question type,
// clamped to [MinTopK, MaxTopK].
func DynamicTopK(complexity Complexity, questionType QuestionType, baseTopK int) int {
	k := baseTopK
	switch complexity {
	case ComplexitySimple:
		k -= 2
	case ComplexityComplex:
		k += 2
	}
	if questionType.Broad() {
		k += 2
	}

	if k < MinTopK {
		return MinTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}
