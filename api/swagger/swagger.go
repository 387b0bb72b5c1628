package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Engine API",
        "description": "Multi-tenant exam lifecycle and scheduling engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Exams", "description": "Exam cycle management"},
        {"name": "Papers", "description": "Paper authoring and review workflow"},
        {"name": "Marks", "description": "Mark entry and verification workflow"},
        {"name": "Datesheets", "description": "Scheduling and conflict detection"},
        {"name": "Grading", "description": "Percentage-to-grade rules"},
        {"name": "Results", "description": "Result generation and publication"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/exams": {
            "get": {
                "tags": ["Exams"],
                "summary": "List exams",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}}
            },
            "post": {
                "tags": ["Exams"],
                "summary": "Create an exam cycle",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Created"}}
            }
        },
        "/papers/{id}/submit": {
            "post": {
                "tags": ["Papers"],
                "summary": "Submit a paper for review",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}}
            }
        },
        "/marks/draft": {
            "post": {
                "tags": ["Marks"],
                "summary": "Save draft marks",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}}
            }
        },
        "/datesheets/{id}/detect-conflicts": {
            "post": {
                "tags": ["Datesheets"],
                "summary": "Run conflict detection over a datesheet",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"},
                    "409": {"description": "Detection already running"}
                }
            }
        },
        "/exams/{id}/results/generate": {
            "post": {
                "tags": ["Results"],
                "summary": "Generate results for an exam",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"},
                    "412": {"description": "Marks still in draft"}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_items": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"}
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
