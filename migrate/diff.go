package migrate

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Strategy is the per-file preservation decision, resolved before any
// write ever happens.
type Strategy string

const (
	// StrategyUseTemplate overwrites the file with the new clean render.
	StrategyUseTemplate Strategy = "use-template"

	// StrategyKeepCustom leaves the user's customized file alone.
	StrategyKeepCustom Strategy = "keep-custom"

	// StrategyManualMerge skips the file and surfaces it. A customized
	// file touched by a breaking change is never merged automatically.
	StrategyManualMerge Strategy = "manual-merge"
)

// IsValid reports whether s is a known strategy.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyUseTemplate, StrategyKeepCustom, StrategyManualMerge:
		return true
	}
	return false
}

// defaultStrategy resolves the three-way choice from customization and
// change kind.
func defaultStrategy(customized bool, kind ChangeKind) Strategy {
	switch {
	case !customized:
		return StrategyUseTemplate
	case kind == ChangeBreaking:
		return StrategyManualMerge
	default:
		return StrategyKeepCustom
	}
}

// diffCounts reports how many lines the new content adds and removes
// relative to old.
func diffCounts(old, new string) (added, removed int) {
	m := difflib.NewMatcher(difflib.SplitLines(old), difflib.SplitLines(new))
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			removed += op.I2 - op.I1
			added += op.J2 - op.J1
		case 'd':
			removed += op.I2 - op.I1
		case 'i':
			added += op.J2 - op.J1
		}
	}
	return added, removed
}
