package http

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/assessment-importer/internal/entities"
	"github.com/mrlokans/assessment-importer/internal/importers"
	"github.com/mrlokans/assessment-importer/internal/logger"
	"github.com/mrlokans/assessment-importer/internal/utils"
)

// Importer runs one package import.
type Importer interface {
	Import(ctx context.Context, req importers.Request) (importers.Result, error)
}

type ImportController struct {
	importer Importer
	log      *logger.Logger
}

func NewImportController(importer Importer, log *logger.Logger) *ImportController {
	return &ImportController{importer: importer, log: logger.OrNop(log)}
}

// Import accepts one package file for the kind in the URL.
// POST /api/imports/:kind
//
// The file is read from the multipart field "file". Without a multipart body
// the raw request body is used and its name taken from the "filename" query
// parameter, so the format can still be detected from the extension.
func (ic *ImportController) Import(c *gin.Context) {
	kind := entities.ParseContentKind(c.Param("kind"))
	if !kind.Valid() {
		respondBadRequest(c, "unsupported content kind: "+c.Param("kind"))
		return
	}

	fileName, body, closer, ok := uploadedFile(c)
	if !ok {
		return
	}
	defer closer.Close()

	res, err := ic.importer.Import(c.Request.Context(), importers.Request{
		Kind:       kind,
		FileName:   utils.SanitizeFilename(fileName),
		Content:    body,
		ImporterID: GetImporterID(c),
	})
	if err != nil {
		if errKind := importers.KindOf(err); errKind == importers.KindStorage || errKind == "" {
			ic.log.Error("import failed", "kind", kind, "file", fileName, "error", err)
			res.ErrorKind = importers.KindStorage
			res.Error = importers.ErrStorage.Error()
		}
		c.JSON(statusForImportError(res.ErrorKind), res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func uploadedFile(c *gin.Context) (string, io.Reader, io.Closer, bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			respondBadRequest(c, "file is required")
			return "", nil, nil, false
		}
		var f multipart.File
		f, err = header.Open()
		if err != nil {
			respondBadRequest(c, "failed to open uploaded file")
			return "", nil, nil, false
		}
		return header.Filename, f, f, true
	}

	fileName := c.Query("filename")
	if fileName == "" {
		switch {
		case strings.Contains(c.ContentType(), "json"):
			fileName = "upload.json"
		case strings.Contains(c.ContentType(), "xml"):
			fileName = "upload.xml"
		default:
			fileName = "upload"
		}
	}
	return fileName, c.Request.Body, c.Request.Body, true
}
