package handler

import (
	"github.com/gin-gonic/gin"
)

// Routes groups the handlers mounted by the API server. Reports may be nil when report jobs are
// disabled.
type Routes struct {
	APIPrefix  string
	Metrics    *MetricsHandler
	Attendance *AttendanceHandler
	Reports    *ReportHandler
}

// Register mounts every endpoint on the engine.
func (rt Routes) Register(r *gin.Engine) {
	if rt.Metrics != nil {
		r.GET("/health", rt.Metrics.Health)
		r.GET("/ready", rt.Metrics.Ready)
		r.GET("/metrics", rt.Metrics.Prometheus)
	}

	prefix := rt.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	if rt.Attendance != nil {
		api.POST("/attendance/summaries", rt.Attendance.Summaries)
	}
	if rt.Reports != nil {
		api.POST("/reports", rt.Reports.CreateReport)
		api.GET("/reports/:id", rt.Reports.ReportStatus)
		api.GET("/export/:token", rt.Reports.DownloadReport)
	}
}
