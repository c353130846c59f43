package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/punch-attendance/internal/dto"
	"github.com/noah-isme/punch-attendance/internal/middleware"
	"github.com/noah-isme/punch-attendance/internal/models"
	"github.com/noah-isme/punch-attendance/pkg/response"
)

type attendanceProcessor interface {
	ProcessFile(ctx context.Context, filename string, r io.Reader, category string) (*models.BatchResult, error)
}

// AttendanceHandler turns uploaded punch exports into daily summaries.
type AttendanceHandler struct {
	service        attendanceProcessor
	maxUploadBytes int64
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceProcessor, maxUploadBytes int64) *AttendanceHandler {
	return &AttendanceHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// Summaries godoc
// @Summary Summarise a punch export
// @Description Upload a CSV or XLSX punch export; returns one row per person and day.
// @Tags Attendance
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Punch export (.csv, .txt, .xlsx)"
// @Param category formData string false "Full-Time or Part-Time; required when the file has no category column"
// @Success 200 {object} response.Envelope{data=[]dto.SummaryRow}
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /api/v1/attendance/summaries [post]
func (h *AttendanceHandler) Summaries(c *gin.Context) {
	filename, data, err := readUpload(c, h.maxUploadBytes)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.ProcessFile(c.Request.Context(), filename, bytes.NewReader(data), c.PostForm("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewSummaryRows(result.Summaries), middleware.ResponseMeta(c, dto.NewSummaryMeta(result).Map()))
}
