// Package swagger holds the OpenAPI document served on /docs. Regenerate
// the handler annotations with swag init when routes change.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Portal API",
        "description": "School website CMS and examination results service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Admin sessions"},
        {"name": "Users", "description": "Admin accounts (superadmin only)"},
        {"name": "Classes", "description": "Classes and their subjects"},
        {"name": "Students", "description": "Students per academic year"},
        {"name": "Results", "description": "Marks entry, import and export"},
        {"name": "Result Publications", "description": "Per-year publication gate"},
        {"name": "Public", "description": "Anonymous website endpoints"},
        {"name": "News"},
        {"name": "Gallery"},
        {"name": "Slides"},
        {"name": "Facilities"},
        {"name": "Admissions"},
        {"name": "Dashboard"},
        {"name": "Audit"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session issued; cookies set", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate the refresh token",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke the session and clear cookies",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/results/students/{studentId}": {
            "put": {
                "tags": ["Results"],
                "summary": "Enter marks for a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertMarksRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid marks", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Results"],
                "summary": "Get a student's result",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "academic_year", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/results/import": {
            "post": {
                "tags": ["Results"],
                "summary": "Bulk import students and marks from CSV",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "academic_year", "in": "formData", "required": true, "type": "string"},
                    {"name": "class_id", "in": "formData", "required": true, "type": "string"},
                    {"name": "mode", "in": "formData", "type": "string", "enum": ["atomic", "partialOnError"]},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {"200": {"description": "Import summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/results/export": {
            "get": {
                "tags": ["Results"],
                "summary": "Export a class result sheet",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "academic_year", "in": "query", "required": true, "type": "string"},
                    {"name": "class_id", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File", "schema": {"type": "file"}}}
            }
        },
        "/result-publications/{academicYear}": {
            "put": {
                "tags": ["Result Publications"],
                "summary": "Create or update publication gate",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "academicYear", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PublicationRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/public/results/search": {
            "post": {
                "tags": ["Public"],
                "summary": "Look up a published result",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PublicSearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Results not published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No matching result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/results/marksheet/{token}": {
            "get": {
                "tags": ["Public"],
                "summary": "Download a marksheet",
                "produces": ["application/pdf"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "PDF", "schema": {"type": "file"}}}
            }
        },
        "/public/news": {
            "get": {
                "tags": ["Public"],
                "summary": "List published news",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/public/admissions": {
            "post": {
                "tags": ["Public"],
                "summary": "Submit an admission enquiry",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdmissionRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Admin dashboard counters",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "academic_year", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "MarkInput": {
            "type": "object",
            "required": ["subject_id"],
            "properties": {
                "subject_id": {"type": "string"},
                "marks_obtained": {"type": "number"},
                "theory_marks": {"type": "number"},
                "practical_marks": {"type": "number"}
            }
        },
        "UpsertMarksRequest": {
            "type": "object",
            "required": ["marks"],
            "properties": {
                "remarks": {"type": "string"},
                "marks": {"type": "array", "items": {"$ref": "#/definitions/MarkInput"}}
            }
        },
        "PublicationRequest": {
            "type": "object",
            "properties": {
                "publish_date": {"type": "string", "description": "YYYY-MM-DD (midnight UTC) or RFC3339", "example": "2026-05-01"},
                "is_published": {"type": "boolean"}
            }
        },
        "PublicSearchRequest": {
            "type": "object",
            "required": ["academic_year", "roll_number"],
            "properties": {
                "academic_year": {"type": "string"},
                "roll_number": {"type": "string"},
                "enrollment_number": {"type": "string"},
                "date_of_birth": {"type": "string", "format": "date"}
            }
        },
        "AdmissionRequest": {
            "type": "object",
            "required": ["student_name", "parent_name", "email", "phone", "grade_applying"],
            "properties": {
                "student_name": {"type": "string"},
                "parent_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "grade_applying": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
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
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
