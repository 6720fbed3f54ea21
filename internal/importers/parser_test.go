package importers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/assessment-importer/internal/entities"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		content  string
		want     entities.ImportFormat
		wantErr  bool
	}{
		{"json extension", "a.json", "<xml/>", entities.ImportFormatJSON, false},
		{"xml extension", "a.XML", "{}", entities.ImportFormatXML, false},
		{"sniff json", "upload.bin", "  \n{\"id\":1}", entities.ImportFormatJSON, false},
		{"sniff xml", "upload", "<package/>", entities.ImportFormatXML, false},
		{"sniff after bom", "upload", "\ufeff{}", entities.ImportFormatJSON, false},
		{"unknown", "upload.txt", "id=1", "", true},
		{"empty", "upload", "   ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.fileName, []byte(tt.content))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrParse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_BareJSON(t *testing.T) {
	env, err := Parse("midterm.json", []byte(midtermJSON))
	require.NoError(t, err)

	assert.Equal(t, entities.ImportFormatJSON, env.Format)
	assert.Nil(t, env.Metadata)
	assert.Empty(t, env.DeclaredKind)

	pkg := env.Package
	assert.Equal(t, "ext-1", pkg.ID)
	assert.Equal(t, "Midterm", pkg.Name)
	assert.Equal(t, 100.0, pkg.TotalScore)
	assert.Equal(t, 90, pkg.DurationMinutes)
	require.Len(t, pkg.Modules, 1)
	require.Len(t, pkg.Modules[0].Questions, 1)
	q := pkg.Modules[0].Questions[0]
	assert.Equal(t, "Q1", q.Title)
	require.Len(t, q.OperationPoints, 1)
	require.Len(t, q.OperationPoints[0].Parameters, 1)
	assert.Equal(t, FlexString("5"), q.OperationPoints[0].Parameters[0].Value)
}

func TestParse_LenientJSON(t *testing.T) {
	doc := `{
	  // exported by hand
	  "Metadata": {"ExportVersion": "2.0", "formatversion": "1.1",},
	  "EXAM": {
	    "ID": "ext-9",
	    "Name": "Final",
	    "TotalScore": 100,
	    "DurationMinutes": 60,
	    "ExtendedConfig": {"z": 1, "a": {"y": 2.50, "b": null}},
	    "Questions": [
	      {"Title": "Q", "Content": "body", "Score": 5, "OperationPoints": [
	        {"Name": "op", "Parameters": [{"Name": "n", "Value": 5, "DefaultValue": true,},],},
	      ],},
	    ],
	  },
	}`

	env, err := Parse("final.json", []byte(doc))
	require.NoError(t, err)

	assert.Equal(t, entities.KindExam, env.DeclaredKind)
	require.NotNil(t, env.Metadata)
	assert.Equal(t, "2.0", env.Metadata.ExportVersion)
	assert.Equal(t, "1.1", env.Metadata.FormatVersion)
	assert.Equal(t, "ext-9", env.Package.ID)

	canonical, err := env.Package.ExtendedConfig.Canonical()
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"b":null,"y":2.50},"z":1}`, string(canonical))

	param := env.Package.Questions[0].OperationPoints[0].Parameters[0]
	assert.Equal(t, FlexString("5"), param.Value)
	assert.Equal(t, FlexString("true"), param.DefaultValue)
}

func TestParse_XMLEnvelope(t *testing.T) {
	env, err := Parse("training.xml", []byte(trainingXML))
	require.NoError(t, err)

	assert.Equal(t, entities.ImportFormatXML, env.Format)
	assert.Equal(t, entities.KindSpecializedTraining, env.DeclaredKind)
	require.NotNil(t, env.Metadata)
	assert.Equal(t, "2.3.1", env.Metadata.ExportVersion)
	assert.Equal(t, "author@example.com", env.Metadata.ExportedBy)

	pkg := env.Package
	assert.Equal(t, "xml-1", pkg.ID)
	assert.Equal(t, 50.0, pkg.TotalScore)
	assert.Equal(t, "Published", pkg.Status)
	require.Len(t, pkg.Modules, 1)

	module := pkg.Modules[0]
	assert.Equal(t, "Formulas", module.Name)
	assert.Equal(t, Some(false), module.Enabled)
	require.Len(t, module.Questions, 1)

	q := module.Questions[0]
	assert.Equal(t, Opaque(`"plain text"`), q.Config)
	require.Len(t, q.OperationPoints, 1)
	op := q.OperationPoints[0]
	assert.Equal(t, "2024-04-30 09:00", op.CreatedTime)
	require.Len(t, op.Parameters, 2)
	assert.Equal(t, FlexString("B1:B9"), op.Parameters[1].Value)

	canonical, err := pkg.ExtendedConfig.Canonical()
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1,2],"b":1}`, string(canonical))
}

func TestParse_XMLBarePackage(t *testing.T) {
	doc := "\ufeff<Package><ID>p-1</ID><NAME>Quiz</NAME><totalScore>10</totalScore>" +
		"<Questions><Question><Title>Q</Title><Score>1</Score></Question></Questions></Package>"

	env, err := Parse("quiz.xml", []byte(doc))
	require.NoError(t, err)
	assert.Empty(t, env.DeclaredKind)
	assert.Nil(t, env.Metadata)
	assert.Equal(t, "p-1", env.Package.ID)
	assert.Equal(t, "Quiz", env.Package.Name)
	require.Len(t, env.Package.Questions, 1)
}

func TestParse_XMLEmptyScalarsAreAbsent(t *testing.T) {
	doc := `<Package><Id>p-2</Id><Name>Blank</Name><TotalScore>10</TotalScore><DurationMinutes>5</DurationMinutes>
<Modules>
  <Module><Name>first</Name><Order></Order><Enabled/>
    <Questions>
      <Question><Title>a</Title><Score>1</Score><Order/></Question>
      <Question><Title>b</Title><Score>1</Score><Order> 9 </Order><IsRequired></IsRequired>
        <OperationPoints><OperationPoint><Name>op</Name>
          <Parameters><Parameter><Name>n</Name><MinValue/><MaxValue>3.5</MaxValue></Parameter></Parameters>
        </OperationPoint></OperationPoints>
      </Question>
    </Questions>
  </Module>
  <Module><Name>second</Name><Order/></Module>
</Modules></Package>`

	env, err := Parse("blank.xml", []byte(doc))
	require.NoError(t, err)

	first := env.Package.Modules[0]
	assert.False(t, first.Order.Set)
	assert.False(t, first.Enabled.Set)
	assert.False(t, first.Questions[0].Order.Set)
	assert.Equal(t, Some(9), first.Questions[1].Order)
	assert.False(t, first.Questions[1].IsRequired.Set)
	param := first.Questions[1].OperationPoints[0].Parameters[0]
	assert.False(t, param.MinValue.Set)
	assert.Equal(t, Some(3.5), param.MaxValue)

	pkg, err := NewBuilder(fixedClock).Build(mustProfile(t, entities.KindComprehensiveTraining), env, Source{}, 1)
	require.NoError(t, err)
	require.Len(t, pkg.Sections, 2)
	assert.Equal(t, 1, pkg.Sections[0].Order)
	assert.Equal(t, 2, pkg.Sections[1].Order)
	assert.True(t, pkg.Sections[0].Enabled)
	items := pkg.Sections[0].Items
	assert.Equal(t, 1, items[0].Order)
	assert.Equal(t, 9, items[1].Order)
	assert.True(t, items[1].Required)
	setting := items[1].Checks[0].Settings[0]
	assert.Nil(t, setting.MinValue)
	require.NotNil(t, setting.MaxValue)
	assert.Equal(t, 3.5, *setting.MaxValue)
}

func TestParse_JSONNullScalarsAreAbsent(t *testing.T) {
	env := mustParse(t, "n.json", `{"id": "n", "name": "n", "totalScore": 1, "durationMinutes": 1,
		"modules": [{"name": "m", "order": null, "enabled": false, "questions": [{"title": "q", "score": 1, "order": 4}]}]}`)

	m := env.Package.Modules[0]
	assert.False(t, m.Order.Set)
	assert.Equal(t, Some(false), m.Enabled)
	assert.Equal(t, Some(4), m.Questions[0].Order)
}

func TestParse_XMLBadScalar(t *testing.T) {
	doc := `<Package><Id>p</Id><Name>n</Name><Modules><Module><Name>m</Name><Order>first</Order></Module></Modules></Package>`

	_, err := Parse("bad.xml", []byte(doc))
	require.Error(t, err)
	assert.Equal(t, KindParse, KindOf(err))
	assert.Contains(t, err.Error(), "order")
}

func TestParse_NoFallbackBetweenFormats(t *testing.T) {
	// The extension says XML, so the JSON body is not tried as JSON.
	_, err := Parse("midterm.xml", []byte(midtermJSON))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "XML")

	_, err = Parse("training.json", []byte(trainingXML))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "JSON")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		content  string
		contains string
	}{
		{"empty", "a.json", "", "empty"},
		{"truncated json", "a.json", `{"id": "x",`, "invalid JSON"},
		{"json array root", "a.json", `[{"id": "x"}]`, "must be an object"},
		{"two roots", "a.json", `{"exam": {"id": "a"}, "package": {"id": "b"}}`, "more than one package root"},
		{"xml without package", "a.xml", `<envelope><metadata/></envelope>`, "no package element"},
		{"broken xml", "a.xml", `<package><id>x</package>`, "invalid XML"},
		{"not a document", "a.bin", `hello`, "neither JSON nor XML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.fileName, []byte(tt.content))
			require.Error(t, err)
			assert.Equal(t, KindParse, KindOf(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
