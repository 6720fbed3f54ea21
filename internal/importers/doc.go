// Package importers turns an uploaded assessment package into a stored
// entity graph.
//
// # Architecture
//
// The import pipeline follows a fixed flow:
//
//	bytes → Parse → Envelope → Validator → Guard → Builder → entities.Package → PackageStore
//
// Parse accepts JSON (lenient: trailing commas, comments, any property case)
// and XML (any element case). The Validator reports every violation at once.
// The Guard checks the importer account and rejects packages the importer
// already owns. The Builder is pure and maps the envelope onto the graph;
// the PackageStore persists it in one transaction.
//
// # Content kinds
//
// Exams, comprehensive trainings and specialized trainings share every stage.
// What differs between them is captured by a Profile:
//
//	profile, _ := importers.ProfileFor(entities.KindSpecializedTraining)
//	violations := validator.Validate(profile, env)
//
// # Errors
//
// Every failure is an *Error carrying an ErrorKind. Callers branch with
// errors.Is against ErrParse, ErrValidation, ErrDuplicate,
// ErrInvalidImporter and ErrStorage.
//
// # Example Usage
//
//	pipeline := importers.NewPipeline(usersRepo, packagesRepo, importers.Options{Log: log})
//	result, err := pipeline.Import(ctx, importers.Request{
//		Kind:       entities.KindExam,
//		FileName:   "midterm.json",
//		Content:    file,
//		ImporterID: userID,
//	})
package importers
