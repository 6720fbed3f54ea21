package importers

import (
	"fmt"
	"strings"
)

const midtermJSON = `{
  "id": "ext-1",
  "name": "Midterm",
  "totalScore": 100,
  "durationMinutes": 90,
  "modules": [
    {
      "name": "Module A",
      "questions": [
        {
          "title": "Q1",
          "score": 10,
          "operationPoints": [
            {"name": "op1", "score": 10, "parameters": [{"name": "p1", "value": "5"}]}
          ]
        }
      ]
    }
  ]
}`

// midtermWith rewrites the origin id and total score of the midterm fixture.
func midtermWith(originID string, totalScore int) string {
	s := strings.Replace(midtermJSON, `"id": "ext-1"`, fmt.Sprintf(`"id": %q`, originID), 1)
	return strings.Replace(s, `"totalScore": 100`, fmt.Sprintf(`"totalScore": %d`, totalScore), 1)
}

const trainingXML = `<?xml version="1.0" encoding="UTF-8"?>
<Envelope>
  <Metadata>
    <ExportVersion>2.3.1</ExportVersion>
    <ExportedAt>2024-05-01T10:00:00Z</ExportedAt>
    <ExportedBy>author@example.com</ExportedBy>
    <FormatVersion>1.2</FormatVersion>
  </Metadata>
  <SpecializedTraining>
    <Id>xml-1</Id>
    <Name>Spreadsheet basics</Name>
    <TotalScore>50</TotalScore>
    <DurationMinutes>45</DurationMinutes>
    <Status>Published</Status>
    <ExtendedConfig>{"b": 1, "a": [1, 2]}</ExtendedConfig>
    <Modules>
      <Module>
        <Name>Formulas</Name>
        <Category>excel</Category>
        <Enabled>false</Enabled>
        <Questions>
          <Question>
            <Title>Sum a column</Title>
            <Score>25</Score>
            <Config>plain text</Config>
            <OperationPoints>
              <OperationPoint>
                <Name>uses SUM</Name>
                <Score>25</Score>
                <CreatedTime>2024-04-30 09:00</CreatedTime>
                <Parameters>
                  <Parameter><Name>cell</Name><Value>B10</Value></Parameter>
                  <Parameter><Name>range</Name><Value>B1:B9</Value></Parameter>
                </Parameters>
              </OperationPoint>
            </OperationPoints>
          </Question>
        </Questions>
      </Module>
    </Modules>
  </SpecializedTraining>
</Envelope>`
