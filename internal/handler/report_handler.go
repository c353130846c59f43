package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/punch-attendance/internal/dto"
	"github.com/noah-isme/punch-attendance/internal/service"
	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
	"github.com/noah-isme/punch-attendance/pkg/response"
)

type reportService interface {
	CreateJob(ctx context.Context, req dto.ReportRequest, filename string, data []byte) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes asynchronous report endpoints.
type ReportHandler struct {
	service        reportService
	maxUploadBytes int64
}

// NewReportHandler constructs handler.
func NewReportHandler(service reportService, maxUploadBytes int64) *ReportHandler {
	return &ReportHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// CreateReport godoc
// @Summary Queue an attendance report
// @Tags Reports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Punch export (.csv, .txt, .xlsx)"
// @Param format formData string false "csv, xlsx or pdf (default xlsx)"
// @Param category formData string false "Full-Time or Part-Time"
// @Param recipient formData string false "Email address receiving the report"
// @Success 202 {object} response.Envelope{data=dto.ReportJobResponse}
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /api/v1/reports [post]
func (h *ReportHandler) CreateReport(c *gin.Context) {
	filename, data, err := readUpload(c, h.maxUploadBytes)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ReportRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid report payload"))
		return
	}
	resp, err := h.service.CreateJob(c.Request.Context(), req, filename, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("%s/%s", c.FullPath(), resp.ID))
	response.Accepted(c, resp)
}

// ReportStatus godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope{data=dto.ReportStatusResponse}
// @Failure 404 {object} response.Envelope
// @Router /api/v1/reports/{id} [get]
func (h *ReportHandler) ReportStatus(c *gin.Context) {
	resp, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// DownloadReport godoc
// @Summary Download a finished report
// @Tags Reports
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /api/v1/export/{token} [get]
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat report"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), download.Format.ContentType(), download.File, nil)
}
