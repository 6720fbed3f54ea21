package importers

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/mrlokans/assessment-importer/internal/entities"
)

// Source describes the uploaded file a graph was built from.
type Source struct {
	FileName string
	FileSize int64
	Format   entities.ImportFormat
}

// Builder maps a validated envelope onto an unsaved entity graph. It does no
// I/O; given the same envelope and clock it produces the same graph.
type Builder struct {
	now func() time.Time
}

func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// graphBuilder carries the per-build state shared by every level.
type graphBuilder struct {
	importedAt time.Time
	err        error
}

// Build produces the package graph. Loose questions end up in Package.Items,
// subject and module questions in their Section.Items; Package.FlatItems
// walks all three.
func (b *Builder) Build(profile Profile, env *Envelope, src Source, importerID uint) (*entities.Package, error) {
	g := &graphBuilder{importedAt: b.now().UTC()}
	dto := &env.Package

	pkg := &entities.Package{
		ImporterID:      importerID,
		Kind:            profile.Kind,
		OriginID:        strings.TrimSpace(dto.ID),
		Name:            strings.TrimSpace(dto.Name),
		Description:     dto.Description,
		Status:          normalizeStatus(dto.Status),
		TotalScore:      dto.TotalScore,
		PassingScore:    dto.PassingScore,
		DurationMinutes: dto.DurationMinutes,
		AllowRetake:     dto.AllowRetake,
		MaxRetakeCount:  dto.MaxRetakeCount,
		AllowPractice:   dto.AllowPractice,
		RandomizeItems:  dto.RandomizeQuestions,
		ShowScore:       dto.ShowScore,
		ShowAnswers:     dto.ShowAnswers,
		Tags:            dto.Tags,
		ExtendedConfig:  g.opaque("package.extendedConfig", dto.ExtendedConfig),
		AuthoredAt:      dto.CreatedAt,
		ImportedAt:      g.importedAt,
		ImportFileName:  src.FileName,
		ImportFileSize:  src.FileSize,
		ImportFormat:    src.Format,
		ImportStatus:    entities.ImportStatusCompleted,
	}
	pkg.StartTime = g.timestamp("package.startTime", dto.StartTime)
	pkg.EndTime = g.timestamp("package.endTime", dto.EndTime)

	if md := env.Metadata; md != nil {
		pkg.ImportFormatVersion = md.FormatVersion
		pkg.ExportToolVersion = md.ExportVersion
		pkg.ExportedAt = md.ExportedAt
		pkg.ExportedBy = md.ExportedBy
	}

	pkg.Items = g.items("package.questions", dto.Questions)

	sections := make([]entities.Section, 0, len(dto.Subjects)+len(dto.Modules))
	for i := range dto.Subjects {
		sections = append(sections, g.subject(indexPath("package.subjects", i), i, &dto.Subjects[i]))
	}
	for i := range dto.Modules {
		sections = append(sections, g.module(indexPath("package.modules", i), i, &dto.Modules[i]))
	}
	if len(sections) > 0 {
		pkg.Sections = sections
	}

	if g.err != nil {
		return nil, g.err
	}
	return pkg, nil
}

func (g *graphBuilder) subject(path string, index int, dto *SubjectDTO) entities.Section {
	return entities.Section{
		Flavor:          entities.SectionFlavorSubject,
		OriginID:        dto.ID,
		Name:            strings.TrimSpace(dto.Name),
		Description:     dto.Description,
		Order:           dto.Order.Or(index + 1),
		Weight:          dto.Weight,
		MinScore:        dto.MinScore,
		Required:        dto.IsRequired.Or(true),
		DurationMinutes: dto.DurationMinutes,
		Enabled:         true,
		ImportedAt:      g.importedAt,
		Items:           g.items(path+".questions", dto.Questions),
	}
}

func (g *graphBuilder) module(path string, index int, dto *ModuleDTO) entities.Section {
	return entities.Section{
		Flavor:      entities.SectionFlavorModule,
		OriginID:    dto.ID,
		Name:        strings.TrimSpace(dto.Name),
		Description: dto.Description,
		Order:       dto.Order.Or(index + 1),
		Category:    dto.Category,
		Enabled:     dto.Enabled.Or(true),
		Required:    true,
		ImportedAt:  g.importedAt,
		Items:       g.items(path+".questions", dto.Questions),
	}
}

func (g *graphBuilder) items(path string, dtos []QuestionDTO) []entities.Item {
	if len(dtos) == 0 {
		return nil
	}
	items := make([]entities.Item, 0, len(dtos))
	for i := range dtos {
		items = append(items, g.item(indexPath(path, i), i, &dtos[i]))
	}
	return items
}

func (g *graphBuilder) item(path string, index int, dto *QuestionDTO) entities.Item {
	item := entities.Item{
		OriginID:         dto.ID,
		Title:            strings.TrimSpace(dto.Title),
		Content:          dto.Content,
		Type:             dto.Type,
		Score:            dto.Score,
		Difficulty:       dto.Difficulty,
		EstimatedMinutes: dto.EstimatedMinutes,
		Order:            dto.Order.Or(index + 1),
		Required:         dto.IsRequired.Or(true),
		Enabled:          dto.Enabled.Or(true),
		Config:           g.opaque(path+".config", dto.Config),
		Answer:           g.opaque(path+".answer", dto.Answer),
		ScoringRules:     g.opaque(path+".scoringRules", dto.ScoringRules),
		Tags:             dto.Tags,
		ProgramInput:     dto.ProgramInput,
		ExpectedOutput:   dto.ExpectedOutput,
		CodeTemplate:     dto.CodeTemplate,
		BlankMarkers:     g.opaque(path+".blankMarkers", dto.BlankMarkers),
		DocumentPath:     dto.DocumentPath,
		AuthoredAt:       dto.CreatedAt,
		ImportedAt:       g.importedAt,
	}
	if len(dto.OperationPoints) > 0 {
		item.Checks = make([]entities.Check, 0, len(dto.OperationPoints))
		for i := range dto.OperationPoints {
			item.Checks = append(item.Checks, g.check(indexPath(path+".operationPoints", i), i, &dto.OperationPoints[i]))
		}
	}
	return item
}

func (g *graphBuilder) check(path string, index int, dto *OperationPointDTO) entities.Check {
	check := entities.Check{
		OriginID:    dto.ID,
		Name:        strings.TrimSpace(dto.Name),
		Description: dto.Description,
		Category:    dto.Category,
		Score:       dto.Score,
		Order:       dto.Order.Or(index + 1),
		Enabled:     dto.Enabled.Or(true),
		AuthoredAt:  dto.CreatedTime,
		ImportedAt:  g.importedAt,
	}
	if len(dto.Parameters) > 0 {
		check.Settings = make([]entities.Setting, 0, len(dto.Parameters))
		for i := range dto.Parameters {
			check.Settings = append(check.Settings, g.setting(indexPath(path+".parameters", i), i, &dto.Parameters[i]))
		}
	}
	return check
}

func (g *graphBuilder) setting(path string, index int, dto *ParameterDTO) entities.Setting {
	return entities.Setting{
		Name:              strings.TrimSpace(dto.Name),
		DisplayName:       dto.DisplayName,
		Description:       dto.Description,
		ValueType:         dto.ValueType,
		Value:             dto.Value.String(),
		DefaultValue:      dto.DefaultValue.String(),
		Required:          dto.IsRequired,
		Order:             dto.Order.Or(index + 1),
		EnumOptions:       g.opaque(path+".enumOptions", dto.EnumOptions),
		ValidationRule:    dto.ValidationRule,
		ValidationMessage: dto.ValidationMessage,
		MinValue:          dto.MinValue.Ptr(),
		MaxValue:          dto.MaxValue.Ptr(),
		Enabled:           dto.Enabled.Or(true),
		ImportedAt:        g.importedAt,
	}
}

// opaque canonicalizes a blob, remembering the first failure.
func (g *graphBuilder) opaque(field string, value Opaque) datatypes.JSON {
	out, err := value.Canonical()
	if err != nil && g.err == nil {
		g.err = newError(KindValidation, err, "%s could not be re-serialized", field)
	}
	return out
}

func (g *graphBuilder) timestamp(field, value string) *time.Time {
	t, err := parseTimestamp(value)
	if err != nil && g.err == nil {
		g.err = newError(KindValidation, err, "%s is not a recognised timestamp", field)
	}
	return t
}

// normalizeStatus maps the tool's status spellings onto the lifecycle enum.
// Unknown and empty values become draft.
func normalizeStatus(s string) entities.PackageStatus {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	switch key {
	case "scheduled":
		return entities.PackageStatusScheduled
	case "published", "active":
		return entities.PackageStatusPublished
	case "inprogress", "ongoing", "running":
		return entities.PackageStatusInProgress
	case "completed", "finished", "ended":
		return entities.PackageStatusCompleted
	case "cancelled", "canceled":
		return entities.PackageStatusCancelled
	default:
		return entities.PackageStatusDraft
	}
}

// describeCounts renders counts for logs and audit descriptions.
func describeCounts(c entities.GraphCounts) string {
	return fmt.Sprintf("%d subjects, %d modules, %d questions, %d operation points, %d parameters",
		c.Subjects, c.Modules, c.Items, c.Checks, c.Settings)
}
