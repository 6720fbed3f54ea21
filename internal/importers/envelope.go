package importers

import "github.com/mrlokans/assessment-importer/internal/entities"

// Envelope is a parsed upload before validation: the root package plus the
// optional export metadata written by the authoring tool.
type Envelope struct {
	Package  PackageDTO
	Metadata *MetadataDTO
	Format   entities.ImportFormat
	// DeclaredKind is set when the document root names a content kind
	// ("exam", "specializedTraining", ...) rather than a generic "package".
	DeclaredKind entities.ContentKind
}

// MetadataDTO is bookkeeping only and never validated.
type MetadataDTO struct {
	ExportVersion string `json:"exportVersion" xml:"exportversion"`
	ExportedAt    string `json:"exportedAt" xml:"exportedat"`
	ExportedBy    string `json:"exportedBy" xml:"exportedby"`
	FormatVersion string `json:"formatVersion" xml:"formatversion"`
}

// PackageDTO is the authoring tool's exam or training package.
//
// XML element names are matched after folding to lower case, so the xml tags
// are all lower case.
type PackageDTO struct {
	ID              string  `json:"id" xml:"id" validate:"notblank,max=128"`
	Name            string  `json:"name" xml:"name" validate:"notblank,max=256"`
	Description     string  `json:"description" xml:"description"`
	Status          string  `json:"status" xml:"status"`
	TotalScore      float64 `json:"totalScore" xml:"totalscore" validate:"gt=0"`
	PassingScore    float64 `json:"passingScore" xml:"passingscore" validate:"gte=0"`
	DurationMinutes int     `json:"durationMinutes" xml:"durationminutes" validate:"gt=0"`
	StartTime       string  `json:"startTime" xml:"starttime"`
	EndTime         string  `json:"endTime" xml:"endtime"`

	AllowRetake        bool `json:"allowRetake" xml:"allowretake"`
	MaxRetakeCount     int  `json:"maxRetakeCount" xml:"maxretakecount" validate:"gte=0"`
	AllowPractice      bool `json:"allowPractice" xml:"allowpractice"`
	RandomizeQuestions bool `json:"randomizeQuestions" xml:"randomizequestions"`
	ShowScore          bool `json:"showScore" xml:"showscore"`
	ShowAnswers        bool `json:"showAnswers" xml:"showanswers"`

	Tags           string `json:"tags" xml:"tags"`
	ExtendedConfig Opaque `json:"extendedConfig" xml:"extendedconfig"`
	CreatedAt      string `json:"createdAt" xml:"createdat"`

	Subjects  []SubjectDTO  `json:"subjects" xml:"subjects>subject" validate:"dive"`
	Modules   []ModuleDTO   `json:"modules" xml:"modules>module" validate:"dive"`
	Questions []QuestionDTO `json:"questions" xml:"questions>question" validate:"dive"`
}

// SubjectDTO is a scored grouping of questions.
type SubjectDTO struct {
	ID              string         `json:"id" xml:"id" validate:"max=128"`
	Name            string         `json:"name" xml:"name" validate:"notblank,max=256"`
	Description     string         `json:"description" xml:"description"`
	Order           Optional[int]  `json:"order" xml:"order"`
	Weight          float64        `json:"weight" xml:"weight" validate:"gte=0"`
	MinScore        float64        `json:"minScore" xml:"minscore" validate:"gte=0"`
	IsRequired      Optional[bool] `json:"isRequired" xml:"isrequired"`
	DurationMinutes int            `json:"durationMinutes" xml:"durationminutes" validate:"gte=0"`
	CreatedAt       string         `json:"createdAt" xml:"createdat"`
	Questions       []QuestionDTO  `json:"questions" xml:"questions>question" validate:"dive"`
}

// ModuleDTO is an ordered, categorised grouping of questions.
type ModuleDTO struct {
	ID          string         `json:"id" xml:"id" validate:"max=128"`
	Name        string         `json:"name" xml:"name" validate:"notblank,max=256"`
	Description string         `json:"description" xml:"description"`
	Order       Optional[int]  `json:"order" xml:"order"`
	Category    string         `json:"category" xml:"category" validate:"max=64"`
	Enabled     Optional[bool] `json:"enabled" xml:"enabled"`
	CreatedAt   string         `json:"createdAt" xml:"createdat"`
	Questions   []QuestionDTO  `json:"questions" xml:"questions>question" validate:"dive"`
}

type QuestionDTO struct {
	ID               string         `json:"id" xml:"id" validate:"max=128"`
	Title            string         `json:"title" xml:"title" validate:"notblank,max=512"`
	Content          string         `json:"content" xml:"content"`
	Type             string         `json:"questionType" xml:"questiontype" validate:"max=50"`
	Score            float64        `json:"score" xml:"score"`
	Difficulty       int            `json:"difficulty" xml:"difficulty" validate:"gte=0"`
	EstimatedMinutes int            `json:"estimatedMinutes" xml:"estimatedminutes" validate:"gte=0"`
	Order            Optional[int]  `json:"order" xml:"order"`
	IsRequired       Optional[bool] `json:"isRequired" xml:"isrequired"`
	Enabled          Optional[bool] `json:"enabled" xml:"enabled"`

	Config       Opaque `json:"config" xml:"config"`
	Answer       Opaque `json:"answer" xml:"answer"`
	ScoringRules Opaque `json:"scoringRules" xml:"scoringrules"`
	Tags         string `json:"tags" xml:"tags"`

	ProgramInput   string `json:"programInput" xml:"programinput"`
	ExpectedOutput string `json:"expectedOutput" xml:"expectedoutput"`
	CodeTemplate   string `json:"codeTemplate" xml:"codetemplate"`
	BlankMarkers   Opaque `json:"blankMarkers" xml:"blankmarkers"`
	DocumentPath   string `json:"documentPath" xml:"documentpath"`

	CreatedAt       string              `json:"createdAt" xml:"createdat"`
	OperationPoints []OperationPointDTO `json:"operationPoints" xml:"operationpoints>operationpoint" validate:"dive"`
}

// OperationPointDTO is a gradable check inside a question.
type OperationPointDTO struct {
	ID          string         `json:"id" xml:"id" validate:"max=128"`
	Name        string         `json:"name" xml:"name" validate:"notblank,max=256"`
	Description string         `json:"description" xml:"description"`
	Category    string         `json:"category" xml:"category" validate:"max=64"`
	Score       float64        `json:"score" xml:"score" validate:"gte=0"`
	Order       Optional[int]  `json:"order" xml:"order"`
	Enabled     Optional[bool] `json:"enabled" xml:"enabled"`
	CreatedTime string         `json:"createdTime" xml:"createdtime"`
	Parameters  []ParameterDTO `json:"parameters" xml:"parameters>parameter" validate:"dive"`
}

type ParameterDTO struct {
	Name              string            `json:"name" xml:"name" validate:"notblank,max=256"`
	DisplayName       string            `json:"displayName" xml:"displayname"`
	Description       string            `json:"description" xml:"description"`
	ValueType         string            `json:"valueType" xml:"valuetype" validate:"max=32"`
	Value             FlexString        `json:"value" xml:"value"`
	DefaultValue      FlexString        `json:"defaultValue" xml:"defaultvalue"`
	IsRequired        bool              `json:"isRequired" xml:"isrequired"`
	Order             Optional[int]     `json:"order" xml:"order"`
	EnumOptions       Opaque            `json:"enumOptions" xml:"enumoptions"`
	ValidationRule    string            `json:"validationRule" xml:"validationrule"`
	ValidationMessage string            `json:"validationMessage" xml:"validationmessage"`
	MinValue          Optional[float64] `json:"minValue" xml:"minvalue"`
	MaxValue          Optional[float64] `json:"maxValue" xml:"maxvalue"`
	Enabled           Optional[bool]    `json:"enabled" xml:"enabled"`
}

// questionRef addresses one question of the envelope together with its path.
type questionRef struct {
	path     string
	question *QuestionDTO
}

// allQuestions lists every question of the package: loose questions first,
// then subject questions, then module questions.
func (p *PackageDTO) allQuestions() []questionRef {
	var refs []questionRef
	for i := range p.Questions {
		refs = append(refs, questionRef{path: indexPath("package.questions", i), question: &p.Questions[i]})
	}
	for i := range p.Subjects {
		base := indexPath("package.subjects", i) + ".questions"
		for j := range p.Subjects[i].Questions {
			refs = append(refs, questionRef{path: indexPath(base, j), question: &p.Subjects[i].Questions[j]})
		}
	}
	for i := range p.Modules {
		base := indexPath("package.modules", i) + ".questions"
		for j := range p.Modules[i].Questions {
			refs = append(refs, questionRef{path: indexPath(base, j), question: &p.Modules[i].Questions[j]})
		}
	}
	return refs
}
