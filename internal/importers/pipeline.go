package importers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mrlokans/assessment-importer/internal/config"
	"github.com/mrlokans/assessment-importer/internal/database"
	"github.com/mrlokans/assessment-importer/internal/entities"
	"github.com/mrlokans/assessment-importer/internal/logger"
)

// Recorder keeps an audit trail of import outcomes.
type Recorder interface {
	LogImport(userID uint, kind entities.ContentKind, description string, packageID uint, counts entities.GraphCounts, err error)
}

// Archiver keeps a copy of the raw upload and returns its archive id.
type Archiver interface {
	Archive(fileName string, content []byte) (string, error)
}

type Options struct {
	MaxFileSize  int64
	ItemScoreMin float64
	ItemScoreMax float64
	Clock        func() time.Time
	Log          *logger.Logger
	Recorder     Recorder
	Archiver     Archiver
}

// Pipeline handles one import end to end:
// read → parse → validate → guard → build → persist.
//
// Everything before persist fails without touching storage. Persist is a
// single transaction retried on transient failures by the store.
type Pipeline struct {
	guard       *Guard
	store       PackageStore
	validator   *Validator
	builder     *Builder
	recorder    Recorder
	archiver    Archiver
	log         *logger.Logger
	now         func() time.Time
	maxFileSize int64
}

func NewPipeline(accounts AccountChecker, store PackageStore, opts Options) *Pipeline {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = config.DefaultMaxImportFileSize
	}
	return &Pipeline{
		guard:       NewGuard(accounts, store),
		store:       store,
		validator:   NewValidator(opts.ItemScoreMin, opts.ItemScoreMax),
		builder:     NewBuilder(now),
		recorder:    opts.Recorder,
		archiver:    opts.Archiver,
		log:         logger.OrNop(opts.Log),
		now:         now,
		maxFileSize: maxSize,
	}
}

// Import runs the pipeline. The Result is always populated; on failure err
// is an *Error whose Kind matches Result.ErrorKind. A panic in any stage is
// recovered and reported as a storage failure.
func (p *Pipeline) Import(ctx context.Context, req Request) (res Result, err error) {
	start := p.now()
	res = Result{Kind: req.Kind, FileName: req.FileName}
	log := p.log.With("kind", req.Kind, "file", req.FileName, "importer_id", req.ImporterID)

	defer func() {
		if r := recover(); r != nil {
			ie := newError(KindStorage, fmt.Errorf("panic: %v", r), "import aborted")
			res.fail(ie)
			err = ie
			log.Error("import panicked", "panic", r)
		}
		res.Elapsed = p.now().Sub(start)
		res.ElapsedMs = res.Elapsed.Milliseconds()
		p.record(req, &res, err)
	}()

	pkg, ie := p.run(ctx, req, &res, log)
	if ie != nil {
		res.fail(ie)
		log.Warn("import rejected", "error_kind", ie.Kind, "error", ie.Error())
		return res, ie
	}

	res.Success = true
	res.PackageID = pkg.ID
	res.PackageName = pkg.Name
	res.OriginID = pkg.OriginID
	res.Counts = pkg.Counts()
	log.Info("import completed", "package_id", pkg.ID, "origin_id", pkg.OriginID, "counts", describeCounts(res.Counts))
	return res, nil
}

// Check runs read, parse and validate under the pipeline's limits without
// consulting accounts or storage. The importer id is ignored.
func (p *Pipeline) Check(req Request) (*Envelope, error) {
	_, _, env, ie := p.prepare(req)
	if ie != nil {
		return nil, ie
	}
	return env, nil
}

func (p *Pipeline) prepare(req Request) (Profile, []byte, *Envelope, *Error) {
	profile, ok := ProfileFor(req.Kind)
	if !ok {
		return Profile{}, nil, nil, newError(KindValidation, nil, "unsupported content kind %q", req.Kind)
	}

	content, ie := p.read(req)
	if ie != nil {
		return profile, nil, nil, ie
	}

	env, err := Parse(req.FileName, content)
	if err != nil {
		return profile, content, nil, asError(err, KindParse)
	}

	if violations := p.validator.Validate(profile, env); len(violations) > 0 {
		return profile, content, env, &Error{
			Kind:       KindValidation,
			Message:    fmt.Sprintf("%d validation error(s)", len(violations)),
			Violations: violations,
		}
	}
	return profile, content, env, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, res *Result, log *logger.Logger) (*entities.Package, *Error) {
	profile, content, env, ie := p.prepare(req)
	res.FileSize = int64(len(content))
	if ie != nil {
		return nil, ie
	}
	log.Debug("package parsed", "format", env.Format, "origin_id", env.Package.ID)

	originID := strings.TrimSpace(env.Package.ID)
	res.OriginID = originID
	if err := p.guard.Check(ctx, req.ImporterID, profile.Kind, originID); err != nil {
		return nil, asError(err, KindStorage)
	}

	res.ArchiveID = p.archive(req.FileName, content, log)

	pkg, err := p.builder.Build(profile, env, Source{
		FileName: req.FileName,
		FileSize: res.FileSize,
		Format:   env.Format,
	}, req.ImporterID)
	if err != nil {
		return nil, asError(err, KindValidation)
	}

	if err := p.store.CreateGraph(ctx, pkg); err != nil {
		if database.IsUniqueViolation(err) {
			// Lost a race with a concurrent import of the same package.
			return nil, duplicateError(profile.Kind, originID)
		}
		return nil, newError(KindStorage, err, "%s %q could not be stored", profile.Kind, originID)
	}
	return pkg, nil
}

func (p *Pipeline) read(req Request) ([]byte, *Error) {
	if req.Content == nil {
		return nil, newError(KindParse, nil, "no content supplied for %q", req.FileName)
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(req.Content, p.maxFileSize+1))
	if err != nil {
		return nil, newError(KindParse, err, "could not read %q", req.FileName)
	}
	if n > p.maxFileSize {
		return nil, newError(KindParse, nil, "file %q exceeds the %d byte limit", req.FileName, p.maxFileSize)
	}
	return buf.Bytes(), nil
}

func (p *Pipeline) archive(fileName string, content []byte, log *logger.Logger) string {
	if p.archiver == nil {
		return ""
	}
	id, err := p.archiver.Archive(fileName, content)
	if err != nil {
		log.Warn("failed to archive upload", "error", err)
		return ""
	}
	return id
}

// record writes the audit entry. Unknown importers are not recorded; there
// is no account to attach the entry to.
func (p *Pipeline) record(req Request, res *Result, err error) {
	if p.recorder == nil || res.ErrorKind == KindInvalidImporter {
		return
	}
	var description string
	if res.Success {
		description = fmt.Sprintf("Imported %s %q (%s)", req.Kind, res.PackageName, describeCounts(res.Counts))
	} else {
		description = fmt.Sprintf("Failed to import %s from %s", req.Kind, req.FileName)
	}
	p.recorder.LogImport(req.ImporterID, req.Kind, description, res.PackageID, res.Counts, err)
}

// asError returns err as an *Error, wrapping foreign errors with fallback.
func asError(err error, fallback ErrorKind) *Error {
	var ie *Error
	if errors.As(err, &ie) {
		return ie
	}
	return newError(fallback, err, "import failed")
}
