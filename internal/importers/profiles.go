package importers

import "github.com/mrlokans/assessment-importer/internal/entities"

// Profile holds the structural rules that differ between content kinds. The
// parser, validator and builder are shared; only the profile varies.
type Profile struct {
	Kind entities.ContentKind

	AllowSubjects   bool
	AllowLooseItems bool

	RequireModules        bool // at least one module
	RequireItemsPerModule bool // every module holds at least one question
	RequireSections       bool // at least one subject or module
	RequireItems          bool // at least one question anywhere
	RequireItemContent    bool
}

var profiles = map[entities.ContentKind]Profile{
	entities.KindExam: {
		Kind:               entities.KindExam,
		AllowSubjects:      true,
		AllowLooseItems:    true,
		RequireItems:       true,
		RequireItemContent: true,
	},
	entities.KindComprehensiveTraining: {
		Kind:               entities.KindComprehensiveTraining,
		AllowSubjects:      true,
		AllowLooseItems:    true,
		RequireSections:    true,
		RequireItemContent: true,
	},
	entities.KindSpecializedTraining: {
		Kind:                  entities.KindSpecializedTraining,
		RequireModules:        true,
		RequireItemsPerModule: true,
	},
}

// ProfileFor returns the rules for kind.
func ProfileFor(kind entities.ContentKind) (Profile, bool) {
	p, ok := profiles[kind]
	return p, ok
}
