package importers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/mrlokans/assessment-importer/internal/config"
)

// Validator checks an Envelope against field rules and the kind's profile.
// It reports every violation it finds and never modifies the envelope.
type Validator struct {
	validate *validator.Validate
	scoreMin float64
	scoreMax float64
}

// NewValidator creates a validator accepting item scores in [scoreMin, scoreMax].
// A non-positive max falls back to the defaults.
func NewValidator(scoreMin, scoreMax float64) *Validator {
	if scoreMax <= 0 || scoreMin > scoreMax {
		scoreMin, scoreMax = config.DefaultItemScoreMin, config.DefaultItemScoreMax
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}

	return &Validator{validate: v, scoreMin: scoreMin, scoreMax: scoreMax}
}

// Validate returns nil when env is acceptable for profile.
func (v *Validator) Validate(profile Profile, env *Envelope) []Violation {
	var out []Violation
	add := func(field, format string, args ...any) {
		out = append(out, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	pkg := &env.Package
	out = append(out, v.fieldRules(pkg)...)

	if env.DeclaredKind != "" && env.DeclaredKind != profile.Kind {
		add("package", "document declares %s content but is being imported as %s", env.DeclaredKind, profile.Kind)
	}

	start, startErr := parseTimestamp(pkg.StartTime)
	if startErr != nil {
		add("package.startTime", "%q is not a recognised timestamp", pkg.StartTime)
	}
	end, endErr := parseTimestamp(pkg.EndTime)
	if endErr != nil {
		add("package.endTime", "%q is not a recognised timestamp", pkg.EndTime)
	}
	if start != nil && end != nil && end.Before(*start) {
		add("package.endTime", "must not be before startTime")
	}
	checkOpaque(add, "package.extendedConfig", pkg.ExtendedConfig)

	// Structural rules of the kind.
	if !profile.AllowSubjects && len(pkg.Subjects) > 0 {
		add("package.subjects", "%s packages do not support subjects", profile.Kind)
	}
	if !profile.AllowLooseItems && len(pkg.Questions) > 0 {
		add("package.questions", "%s packages must place every question inside a module", profile.Kind)
	}
	if profile.RequireModules && len(pkg.Modules) == 0 {
		add("package.modules", "must contain at least one module")
	}
	if profile.RequireItemsPerModule {
		for i, m := range pkg.Modules {
			if len(m.Questions) == 0 {
				add(indexPath("package.modules", i)+".questions", "must contain at least one question")
			}
		}
	}
	if profile.RequireSections && len(pkg.Subjects)+len(pkg.Modules) == 0 {
		add("package", "must contain at least one subject or module")
	}

	questions := pkg.allQuestions()
	if profile.RequireItems && len(questions) == 0 {
		add("package", "must contain at least one question")
	}

	for _, ref := range questions {
		q := ref.question
		if q.Score < v.scoreMin || q.Score > v.scoreMax {
			add(ref.path+".score", "must be between %s and %s", formatScore(v.scoreMin), formatScore(v.scoreMax))
		}
		if profile.RequireItemContent && strings.TrimSpace(q.Content) == "" {
			add(ref.path+".content", "is required")
		}
		checkOpaque(add, ref.path+".config", q.Config)
		checkOpaque(add, ref.path+".answer", q.Answer)
		checkOpaque(add, ref.path+".scoringRules", q.ScoringRules)
		checkOpaque(add, ref.path+".blankMarkers", q.BlankMarkers)
		for i, op := range q.OperationPoints {
			for j, param := range op.Parameters {
				path := indexPath(indexPath(ref.path+".operationPoints", i)+".parameters", j)
				checkOpaque(add, path+".enumOptions", param.EnumOptions)
				if param.MinValue.Set && param.MaxValue.Set && param.MaxValue.Value < param.MinValue.Value {
					add(path+".maxValue", "must not be less than minValue")
				}
			}
		}
	}

	return out
}

// fieldRules runs the struct tag rules.
func (v *Validator) fieldRules(pkg *PackageDTO) []Violation {
	err := v.validate.Struct(pkg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Violation{{Field: "package", Message: err.Error()}}
	}

	out := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, Violation{Field: fieldPath(fe.Namespace()), Message: tagMessage(fe)})
	}
	return out
}

func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return "package" + namespace[i:]
	}
	return "package"
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "failed the " + fe.Tag() + " rule"
}

func checkOpaque(add func(field, format string, args ...any), field string, value Opaque) {
	if !value.IsEmpty() && !json.Valid(value) {
		add(field, "is not valid JSON")
	}
}

func indexPath(base string, i int) string {
	return base + "[" + strconv.Itoa(i) + "]"
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// parseTimestamp accepts the layouts the authoring tool has been seen to
// write. Empty input is not an error and yields nil. Layouts without a zone
// are read as UTC.
func parseTimestamp(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised timestamp %q", s)
}
