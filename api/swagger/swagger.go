package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Punch Attendance API",
        "description": "Turns raw time-clock punch exports into per-person daily attendance summaries.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Attendance", "description": "Synchronous punch file summaries"},
        {"name": "Reports", "description": "Asynchronous report generation and download"},
        {"name": "Operations", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Operations"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Metrics in exposition format"}
                }
            }
        },
        "/api/v1/attendance/summaries": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Summarise a punch export",
                "description": "Upload a CSV or XLSX punch export; returns one row per person and day sorted by person then date.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true, "description": "Punch export (.csv, .txt, .xlsx)"},
                    {"name": "category", "in": "formData", "type": "string", "enum": ["Full-Time", "Part-Time"], "description": "Required when the file has no category column"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SummaryEnvelope"}},
                    "400": {"description": "Missing file or invalid category", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Upload too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported file type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Missing required column", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue an attendance report",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "format", "in": "formData", "type": "string", "enum": ["csv", "xlsx", "pdf"], "default": "xlsx"},
                    {"name": "category", "in": "formData", "type": "string", "enum": ["Full-Time", "Part-Time"]},
                    {"name": "recipient", "in": "formData", "type": "string", "format": "email"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ReportJobEnvelope"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Missing required column", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ReportStatusEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Report file", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "SummaryRow": {
            "type": "object",
            "properties": {
                "personId": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "timeIn": {"type": "string", "example": "08:00:00"},
                "timeOut": {"type": "string", "example": "17:00:00"},
                "lateStatus": {"type": "string", "enum": ["", "Comes Late", "Very Late"]},
                "earlyLeaveStatus": {"type": "string", "enum": ["", "Leave Early"]},
                "employmentCategory": {"type": "string"},
                "statusText": {"type": "string"}
            }
        },
        "RowWarning": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "field": {"type": "string"},
                "value": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "SummaryMeta": {
            "type": "object",
            "properties": {
                "totalRows": {"type": "integer"},
                "validRows": {"type": "integer"},
                "skippedRows": {"type": "integer"},
                "warnings": {"type": "array", "items": {"$ref": "#/definitions/RowWarning"}}
            }
        },
        "SummaryEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/SummaryRow"}},
                "meta": {"$ref": "#/definitions/SummaryMeta"}
            }
        },
        "ReportJob": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "PROCESSING", "FINISHED", "FAILED"]},
                "progress": {"type": "integer"}
            }
        },
        "ReportJobEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ReportJob"}
            }
        },
        "ReportStatus": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "PROCESSING", "FINISHED", "FAILED"]},
                "progress": {"type": "integer"},
                "format": {"type": "string"},
                "resultUrl": {"type": "string"},
                "summaryCount": {"type": "integer"},
                "skippedRows": {"type": "integer"},
                "emailStatus": {"type": "string", "enum": ["SENT", "SKIPPED", "FAILED"]},
                "error": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "finishedAt": {"type": "string", "format": "date-time"}
            }
        },
        "ReportStatusEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ReportStatus"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
