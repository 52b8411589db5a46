package http

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Projectworkpls/Observer/internal/config"
	"github.com/Projectworkpls/Observer/internal/domain"
	"github.com/Projectworkpls/Observer/internal/pipeline"
	"github.com/Projectworkpls/Observer/internal/render"
	"github.com/Projectworkpls/Observer/internal/services"
	"github.com/Projectworkpls/Observer/internal/storage"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type API struct {
	cfg   config.Config
	files *storage.FileManager
	store *storage.Store
	pipe  *pipeline.Pipeline
	share *services.ShareService
}

func NewAPI(cfg config.Config, fm *storage.FileManager, store *storage.Store, pipe *pipeline.Pipeline, share *services.ShareService) *API {
	return &API{cfg: cfg, files: fm, store: store, pipe: pipe, share: share}
}

func registerRoutes(r *gin.Engine, api *API) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)

		apiGroup.GET("/sessions", api.handleListSessions)
		apiGroup.POST("/sessions", api.handleCreateSession)
		apiGroup.GET("/sessions/:id", api.handleGetSession)
		apiGroup.DELETE("/sessions/:id", api.handleDeleteSession)

		apiGroup.POST("/sessions/:id/image", api.handleProcessImage)
		apiGroup.POST("/sessions/:id/audio", api.handleProcessAudio)
		apiGroup.POST("/sessions/:id/transcript", api.handleEditTranscript)

		apiGroup.GET("/sessions/:id/report", api.handleGetReport)
		apiGroup.GET("/sessions/:id/document", api.handleDownloadDocument)
		apiGroup.POST("/sessions/:id/pdf", api.handleGeneratePDF)
		apiGroup.POST("/sessions/:id/share", api.handleShareDocument)
	}

	r.GET("/files/:id", api.handleServeDocument)
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, a.store.ListSessions())
}

func (a *API) handleCreateSession(c *gin.Context) {
	var payload struct {
		Username string                 `json:"username"`
		Metadata domain.SessionMetadata `json:"metadata" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	if payload.Metadata.SessionDate == "" {
		payload.Metadata.SessionDate = time.Now().Format("02/01/2006")
	}

	session, err := a.store.CreateSession(domain.Session{
		Username: payload.Username,
		Metadata: payload.Metadata,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (a *API) handleGetSession(c *gin.Context) {
	session, err := a.store.GetSession(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "session not found")
		return
	}

	c.JSON(http.StatusOK, session)
}

func (a *API) handleDeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	session, err := a.store.GetSession(sessionID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "session not found")
		return
	}

	if err := a.store.DeleteSession(sessionID); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	if session.DocumentPath != "" {
		_ = os.Remove(session.DocumentPath)
	}
	if session.PDFPath != "" {
		_ = os.Remove(session.PDFPath)
	}

	c.Status(http.StatusNoContent)
}

func (a *API) handleProcessImage(c *gin.Context) {
	a.process(c, domain.MediaImage)
}

func (a *API) handleProcessAudio(c *gin.Context) {
	a.process(c, domain.MediaAudio)
}

// process runs one track of the pipeline over an uploaded capture and
// folds the result back into the session.
func (a *API) process(c *gin.Context, kind domain.MediaKind) {
	session, err := a.store.GetSession(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "session not found")
		return
	}

	capture, err := a.readCapture(c, kind)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := a.files.SaveUpload(capture.Data, capture.Filename); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	session.Source = kind
	session.Filename = capture.Filename
	session.ProcessingStatus = domain.ProcessingStatusProcessing
	if session, err = a.store.UpdateSession(session); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	ctx := c.Request.Context()
	var result *pipeline.Result
	if kind == domain.MediaImage {
		result, err = a.pipe.ProcessImage(ctx, capture, session.Metadata, session.Username)
	} else {
		result, err = a.pipe.ProcessAudio(ctx, capture, session.Metadata, session.Username)
	}
	if err != nil {
		a.failSession(session, err)
		respondMessage(c, statusForPipelineError(err), err.Error())
		return
	}

	a.completeSession(c, session, result)
}

func (a *API) handleEditTranscript(c *gin.Context) {
	session, err := a.store.GetSession(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "session not found")
		return
	}

	if session.Source != domain.MediaAudio {
		respondMessage(c, http.StatusConflict, "only audio session transcripts can be edited")
		return
	}

	var payload struct {
		Transcript string `json:"transcript" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	transcript := strings.TrimSpace(payload.Transcript)
	if transcript == "" {
		respondMessage(c, http.StatusBadRequest, "transcript is empty")
		return
	}

	result, err := a.pipe.Regenerate(c.Request.Context(), transcript, session.Metadata)
	if err != nil {
		respondMessage(c, statusForPipelineError(err), err.Error())
		return
	}

	a.completeSession(c, session, result)
}

func (a *API) handleGetReport(c *gin.Context) {
	session, err := a.store.GetSession(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "session not found")
		return
	}

	if session.ReportText == "" {
		respondMessage(c, http.StatusNotFound, "session has no report yet")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":   session.ReportText,
		"degraded": session.ReportDegraded,
	})
}

func (a *API) handleDownloadDocument(c *gin.Context) {
	session, err := a.store.GetSession(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "session not found")
		return
	}

	if session.DocumentPath == "" {
		respondMessage(c, http.StatusNotFound, "no document available for this session")
		return
	}

	if _, err := os.Stat(session.DocumentPath); err != nil {
		respondMessage(c, http.StatusNotFound, "document not found")
		return
	}

	c.Header("Content-Type", docxContentType)
	c.FileAttachment(session.DocumentPath, domain.ArtifactName(session.Metadata, ".docx"))
}

func (a *API) handleGeneratePDF(c *gin.Context) {
	session, err := a.store.GetSession(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "session not found")
		return
	}

	if session.ReportText == "" {
		respondMessage(c, http.StatusBadRequest, "session has no report yet")
		return
	}

	data, err := render.PDF(session.ReportText)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	path, err := a.files.SaveDocument(session.ID, ".pdf", data)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	session.PDFPath = path
	if _, err := a.store.UpdateSession(session); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pdfPath": path})
}

func (a *API) handleShareDocument(c *gin.Context) {
	sessionID := c.Param("id")
	session, err := a.store.GetSession(sessionID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "session not found")
		return
	}

	if session.DocumentPath == "" {
		respondMessage(c, http.StatusBadRequest, "no document available for this session")
		return
	}

	url, expiresAt, err := a.share.Generate(sessionID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "expiresAt": expiresAt.UTC()})
}

func (a *API) handleServeDocument(c *gin.Context) {
	sessionID := c.Param("id")
	expiresParam := c.Query("exp")
	signature := c.Query("sig")

	if expiresParam == "" || signature == "" {
		respondMessage(c, http.StatusBadRequest, "missing signature")
		return
	}

	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid expiration")
		return
	}

	if expires < time.Now().Unix() {
		respondMessage(c, http.StatusGone, "link expired")
		return
	}

	path := c.Request.URL.Path
	if !a.share.Validate(path, expires, signature) {
		respondMessage(c, http.StatusForbidden, "invalid signature")
		return
	}

	session, err := a.store.GetSession(sessionID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "session not found")
		return
	}

	docPath := session.DocumentPath
	if docPath == "" {
		docPath = a.files.DocumentPath(sessionID, ".docx")
	}

	if _, err := os.Stat(docPath); err != nil {
		respondMessage(c, http.StatusNotFound, "document not found")
		return
	}

	c.Header("Content-Type", docxContentType)
	c.FileAttachment(docPath, domain.ArtifactName(session.Metadata, ".docx"))
}

// readCapture pulls the uploaded file out of the multipart form.
func (a *API) readCapture(c *gin.Context, kind domain.MediaKind) (domain.RawCapture, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return domain.RawCapture{}, errors.New("missing uploaded file")
	}

	upload, err := fileHeader.Open()
	if err != nil {
		return domain.RawCapture{}, errors.New("unable to read uploaded file")
	}
	defer upload.Close()

	data, err := io.ReadAll(upload)
	if err != nil {
		return domain.RawCapture{}, errors.New("unable to read uploaded file")
	}

	return domain.RawCapture{
		Data:     data,
		Kind:     kind,
		Filename: fileHeader.Filename,
	}, nil
}

// completeSession renders the artifact path, stores the finished run
// and answers with the session plus report.
func (a *API) completeSession(c *gin.Context, session domain.Session, result *pipeline.Result) {
	docPath, err := a.files.SaveDocument(session.ID, ".docx", result.Document)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	session.ExtractedText = result.ExtractedText
	session.Structured = result.Structured
	session.ReportText = result.Narrative.Text
	session.ReportDegraded = result.Narrative.Degraded
	session.DocumentPath = docPath
	session.ProcessingStatus = domain.ProcessingStatusCompleted
	session.ProcessingError = ""

	saved, err := a.store.UpdateSession(session)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":  saved,
		"report":   result.Narrative.Text,
		"degraded": result.Narrative.Degraded,
	})
}

func (a *API) failSession(session domain.Session, cause error) {
	session.ProcessingStatus = domain.ProcessingStatusFailed
	session.ProcessingError = cause.Error()
	if _, err := a.store.UpdateSession(session); err != nil {
		log.Error().Err(err).Str("session", session.ID).Msg("failed to persist session failure")
	}
}

// statusForPipelineError maps pipeline error kinds onto HTTP statuses:
// upstream service failures are gateway errors, an empty observations
// field is the caller's problem to fix with a better capture.
func statusForPipelineError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoObservations):
		return http.StatusUnprocessableEntity
	case domain.IsRecognition(err), domain.IsStructuring(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, status int, err error) {
	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
