package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Gradebook API",
        "description": "School gradebook: academic configuration, enrollment, score entry with weighted averages, lookups and exports.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and current user"},
        {"name": "Academic Configuration", "description": "Grade levels, subjects, semesters, assessment types and year parameters"},
        {"name": "Enrollments", "description": "Class rosters and student accounts"},
        {"name": "Scores", "description": "Score entry and average recomputation"},
        {"name": "Lookup", "description": "Bucketed score projections"},
        {"name": "Reports", "description": "Class gradebook exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters": {
            "post": {
                "tags": ["Academic Configuration"],
                "summary": "Create semester",
                "description": "Creates the academic year named by year_label when it does not exist yet.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateSemesterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid label or dates", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/year-parameters/years/{yearId}/upsert": {
            "put": {
                "tags": ["Academic Configuration"],
                "summary": "Create or merge year parameters",
                "description": "Accepts snake_case, camelCase and PascalCase keys. Responds 201 on create and 200 on merge.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "yearId", "required": true, "type": "integer"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/YearParameters"}}
                ],
                "responses": {
                    "200": {"description": "Merged", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{classId}/semesters/{semesterId}/students": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "classId", "required": true, "type": "integer"},
                    {"in": "path", "name": "semesterId", "required": true, "type": "integer"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/EnrollStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Class full, already enrolled or missing fields", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown class or semester", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{classId}/semesters/{semesterId}/subjects/{subjectId}/scores": {
            "post": {
                "tags": ["Scores"],
                "summary": "Enter scores",
                "description": "A detail with score null clears the stored score; omitting the key leaves it untouched.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "classId", "required": true, "type": "integer"},
                    {"in": "path", "name": "semesterId", "required": true, "type": "integer"},
                    {"in": "path", "name": "subjectId", "required": true, "type": "integer"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/EnterScoresRequest"}}
                ],
                "responses": {
                    "200": {"description": "Batch applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown class, semester or subject", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/scores": {
            "get": {
                "tags": ["Lookup"],
                "summary": "Scores of a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "query", "name": "semester_id", "type": "integer"},
                    {"in": "query", "name": "subject_id", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Projection", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown student", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/gradebook": {
            "post": {
                "tags": ["Reports"],
                "summary": "Export a class gradebook",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/GradebookReportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Signed download link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a generated report",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"in": "path", "name": "token", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report file"},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateSemesterRequest": {
            "type": "object",
            "required": ["name", "year_label"],
            "properties": {
                "name": {"type": "string"},
                "year_label": {"type": "string", "example": "2024-2025"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"}
            }
        },
        "YearParameters": {
            "type": "object",
            "properties": {
                "min_age": {"type": "integer"},
                "max_age": {"type": "integer"},
                "max_class_size": {"type": "integer"},
                "min_subject_pass_score": {"type": "integer"},
                "min_semester_pass_score": {"type": "integer"},
                "min_score": {"type": "integer"},
                "max_score": {"type": "integer"}
            }
        },
        "EnrollStudentRequest": {
            "type": "object",
            "required": ["student_id"],
            "properties": {
                "student_id": {"type": "string"},
                "full_name": {"type": "string"},
                "sex": {"type": "string"},
                "birth_date": {"type": "string", "format": "date"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "address": {"type": "string"},
                "admitted_at": {"type": "string", "format": "date"},
                "notes": {"type": "string"}
            }
        },
        "ScoreDetail": {
            "type": "object",
            "properties": {
                "assessment_type_id": {"type": "integer"},
                "attempt": {"type": "integer"},
                "score": {"type": "number"}
            }
        },
        "StudentScores": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/ScoreDetail"}}
            }
        },
        "EnterScoresRequest": {
            "type": "object",
            "required": ["entries"],
            "properties": {
                "entries": {"type": "array", "items": {"$ref": "#/definitions/StudentScores"}}
            }
        },
        "GradebookReportRequest": {
            "type": "object",
            "required": ["class_id", "semester_id", "format"],
            "properties": {
                "class_id": {"type": "integer"},
                "semester_id": {"type": "integer"},
                "format": {"type": "string", "enum": ["csv", "pdf", "xlsx"]}
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
