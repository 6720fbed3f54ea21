package entities

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ContentKind identifies which of the three authoring-tool content families a
// package belongs to. All kinds share the same tables; the kind column keeps
// their uniqueness scopes apart.
type ContentKind string

const (
	KindExam                  ContentKind = "exam"
	KindComprehensiveTraining ContentKind = "comprehensive_training"
	KindSpecializedTraining   ContentKind = "specialized_training"
)

// AllContentKinds lists every supported kind in display order.
var AllContentKinds = []ContentKind{KindExam, KindComprehensiveTraining, KindSpecializedTraining}

// ParseContentKind accepts both underscores and dashes, in any case. The
// result still needs a Valid check.
func ParseContentKind(raw string) ContentKind {
	return ContentKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
}

func (k ContentKind) Valid() bool {
	switch k {
	case KindExam, KindComprehensiveTraining, KindSpecializedTraining:
		return true
	}
	return false
}

type PackageStatus string

const (
	PackageStatusDraft      PackageStatus = "draft"
	PackageStatusScheduled  PackageStatus = "scheduled"
	PackageStatusPublished  PackageStatus = "published"
	PackageStatusInProgress PackageStatus = "in_progress"
	PackageStatusCompleted  PackageStatus = "completed"
	PackageStatusCancelled  PackageStatus = "cancelled"
)

type SectionFlavor string

const (
	SectionFlavorSubject SectionFlavor = "subject"
	SectionFlavorModule  SectionFlavor = "module"
)

type ImportStatus string

const (
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

type ImportFormat string

const (
	ImportFormatJSON ImportFormat = "json"
	ImportFormatXML  ImportFormat = "xml"
)

type Package struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	ImporterID uint        `gorm:"not null;uniqueIndex:idx_packages_origin_importer,priority:1" json:"importer_id"`
	Kind       ContentKind `gorm:"size:32;not null;uniqueIndex:idx_packages_origin_importer,priority:2" json:"kind"`
	OriginID   string      `gorm:"size:128;not null;uniqueIndex:idx_packages_origin_importer,priority:3" json:"origin_id"`

	Name            string        `gorm:"size:256;not null" json:"name"`
	Description     string        `gorm:"type:text" json:"description,omitempty"`
	Status          PackageStatus `gorm:"size:20;not null" json:"status"`
	TotalScore      float64       `json:"total_score"`
	PassingScore    float64       `json:"passing_score,omitempty"`
	DurationMinutes int           `json:"duration_minutes"`
	StartTime       *time.Time    `json:"start_time,omitempty"`
	EndTime         *time.Time    `json:"end_time,omitempty"`

	// Attempt and visibility policy
	AllowRetake    bool `json:"allow_retake"`
	MaxRetakeCount int  `json:"max_retake_count,omitempty"`
	AllowPractice  bool `json:"allow_practice"`
	RandomizeItems bool `json:"randomize_items"`
	ShowScore      bool `json:"show_score"`
	ShowAnswers    bool `json:"show_answers"`

	Tags           string         `gorm:"type:text" json:"tags,omitempty"`
	ExtendedConfig datatypes.JSON `json:"extended_config,omitempty"`

	// Provenance. AuthoredAt is the authoring tool's own timestamp, kept
	// verbatim; the export metadata strings are unbounded for the same reason.
	AuthoredAt          string       `gorm:"type:text" json:"authored_at,omitempty"`
	ImportedAt          time.Time    `gorm:"index" json:"imported_at"`
	ImportFileName      string       `gorm:"type:text" json:"import_file_name"`
	ImportFileSize      int64        `json:"import_file_size"`
	ImportFormat        ImportFormat `gorm:"size:10" json:"import_format"`
	ImportFormatVersion string       `gorm:"type:text" json:"import_format_version,omitempty"`
	ImportStatus        ImportStatus `gorm:"size:20" json:"import_status"`
	ImportError         string       `gorm:"type:text" json:"import_error,omitempty"`
	ExportToolVersion   string       `gorm:"type:text" json:"export_tool_version,omitempty"`
	ExportedAt          string       `gorm:"type:text" json:"exported_at,omitempty"`
	ExportedBy          string       `gorm:"type:text" json:"exported_by,omitempty"`

	Sections []Section `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE" json:"sections,omitempty"`
	// Items holds the package-level item collection. After a detail load it
	// contains every item of the package; during import it holds only the
	// items that sit directly under the package.
	Items []Item `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Section struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	PackageID   uint          `gorm:"not null;index" json:"package_id"`
	Flavor      SectionFlavor `gorm:"size:16;not null;index" json:"flavor"`
	OriginID    string        `gorm:"size:128" json:"origin_id,omitempty"`
	Name        string        `gorm:"size:256;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
	Order       int           `gorm:"column:sort_order" json:"order"`

	// Subject flavor
	Weight          float64 `json:"weight,omitempty"`
	MinScore        float64 `json:"min_score,omitempty"`
	Required        bool    `json:"required"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`

	// Module flavor
	Category string `gorm:"size:64" json:"category,omitempty"`
	Enabled  bool   `json:"enabled"`

	ImportedAt time.Time `json:"imported_at"`
	Items      []Item    `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Item struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	PackageID        uint    `gorm:"not null;index" json:"package_id"`
	SectionID        *uint   `gorm:"index" json:"section_id,omitempty"`
	OriginID         string  `gorm:"size:128" json:"origin_id,omitempty"`
	Title            string  `gorm:"size:512;not null" json:"title"`
	Content          string  `gorm:"type:text" json:"content,omitempty"`
	Type             string  `gorm:"size:50" json:"type,omitempty"`
	Score            float64 `json:"score"`
	Difficulty       int     `json:"difficulty,omitempty"`
	EstimatedMinutes int     `json:"estimated_minutes,omitempty"`
	Order            int     `gorm:"column:sort_order" json:"order"`
	Required         bool    `json:"required"`
	Enabled          bool    `json:"enabled"`

	Config       datatypes.JSON `json:"config,omitempty"`
	Answer       datatypes.JSON `json:"answer,omitempty"`
	ScoringRules datatypes.JSON `json:"scoring_rules,omitempty"`
	Tags         string         `gorm:"type:text" json:"tags,omitempty"`

	// Kind-specific optional fields
	ProgramInput   string         `gorm:"type:text" json:"program_input,omitempty"`
	ExpectedOutput string         `gorm:"type:text" json:"expected_output,omitempty"`
	CodeTemplate   string         `gorm:"type:text" json:"code_template,omitempty"`
	BlankMarkers   datatypes.JSON `json:"blank_markers,omitempty"`
	DocumentPath   string         `gorm:"type:text" json:"document_path,omitempty"`

	AuthoredAt string    `gorm:"type:text" json:"authored_at,omitempty"`
	ImportedAt time.Time `json:"imported_at"`
	Checks     []Check   `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"checks,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Check is a gradable operation point within an item.
type Check struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ItemID      uint      `gorm:"not null;index" json:"item_id"`
	OriginID    string    `gorm:"size:128" json:"origin_id,omitempty"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Category    string    `gorm:"size:64" json:"category,omitempty"`
	Score       float64   `json:"score"`
	Order       int       `gorm:"column:sort_order" json:"order"`
	Enabled     bool      `json:"enabled"`
	AuthoredAt  string    `gorm:"type:text" json:"authored_at,omitempty"`
	ImportedAt  time.Time `json:"imported_at"`
	Settings    []Setting `gorm:"foreignKey:CheckID;constraint:OnDelete:CASCADE" json:"settings,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Setting is a configuration parameter of a check.
type Setting struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CheckID           uint           `gorm:"not null;index" json:"check_id"`
	Name              string         `gorm:"size:256;not null" json:"name"`
	DisplayName       string         `gorm:"type:text" json:"display_name,omitempty"`
	Description       string         `gorm:"type:text" json:"description,omitempty"`
	ValueType         string         `gorm:"size:32" json:"value_type,omitempty"`
	Value             string         `gorm:"type:text" json:"value"`
	DefaultValue      string         `gorm:"type:text" json:"default_value,omitempty"`
	Required          bool           `json:"required"`
	Order             int            `gorm:"column:sort_order" json:"order"`
	EnumOptions       datatypes.JSON `json:"enum_options,omitempty"`
	ValidationRule    string         `gorm:"type:text" json:"validation_rule,omitempty"`
	ValidationMessage string         `gorm:"type:text" json:"validation_message,omitempty"`
	MinValue          *float64       `json:"min_value,omitempty"`
	MaxValue          *float64       `json:"max_value,omitempty"`
	Enabled           bool           `json:"enabled"`
	ImportedAt        time.Time      `json:"imported_at"`
	CreatedAt         time.Time      `json:"created_at"`
}

func (Package) TableName() string {
	return "import_packages"
}

func (Section) TableName() string {
	return "import_sections"
}

func (Item) TableName() string {
	return "import_items"
}

func (Check) TableName() string {
	return "import_checks"
}

func (Setting) TableName() string {
	return "import_settings"
}

// GraphCounts summarizes how many rows a package graph holds at each level.
type GraphCounts struct {
	Subjects int `json:"subjects"`
	Modules  int `json:"modules"`
	Items    int `json:"items"`
	Checks   int `json:"checks"`
	Settings int `json:"settings"`
}

// Sections returns the total number of sections of both flavors.
func (c GraphCounts) Sections() int {
	return c.Subjects + c.Modules
}

// FlatItems returns every item of the graph once: the items held directly
// by the package followed by the items of each section, in section order.
// After a detail load Package.Items also holds the sectioned items, so a
// persisted item already returned is skipped. The returned pointers alias
// the graph.
func (p *Package) FlatItems() []*Item {
	var items []*Item
	seen := make(map[uint]bool)
	add := func(item *Item) {
		if item.ID != 0 {
			if seen[item.ID] {
				return
			}
			seen[item.ID] = true
		}
		items = append(items, item)
	}
	for i := range p.Items {
		add(&p.Items[i])
	}
	for i := range p.Sections {
		s := &p.Sections[i]
		for j := range s.Items {
			add(&s.Items[j])
		}
	}
	return items
}

// Counts walks the graph in memory. It agrees with the stored row counts
// for both an import-time graph and a detail load.
func (p *Package) Counts() GraphCounts {
	var c GraphCounts
	for _, s := range p.Sections {
		switch s.Flavor {
		case SectionFlavorSubject:
			c.Subjects++
		case SectionFlavorModule:
			c.Modules++
		}
	}
	for _, item := range p.FlatItems() {
		c.Items++
		c.Checks += len(item.Checks)
		for _, check := range item.Checks {
			c.Settings += len(check.Settings)
		}
	}
	return c
}
