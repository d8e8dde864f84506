package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Axis API",
        "description": "Classroom mastery tracking service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Token issuance"},
        {"name": "Users", "description": "Account self-management"},
        {"name": "Teachers", "description": "Teacher home screen"},
        {"name": "Students", "description": "Student home screen and enrollment"},
        {"name": "Courses", "description": "Course templates and outlines"},
        {"name": "Sections", "description": "Section management and rosters"},
        {"name": "GradeViews", "description": "Compiled mastery views"},
        {"name": "StudentPoints", "description": "Point status mutations"},
        {"name": "Exports", "description": "Mastery report downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and issue an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/users/me": {
            "get": {
                "tags": ["Users"],
                "summary": "Current account profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me/password": {
            "put": {
                "tags": ["Users"],
                "summary": "Rotate the account password",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/users/me/school": {
            "put": {
                "tags": ["Users"],
                "summary": "Move the account to another school",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/teachers/me/data": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Teacher home screen data",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/me/data": {
            "get": {
                "tags": ["Students"],
                "summary": "Student home screen data",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/me/enrollments": {
            "post": {
                "tags": ["Students"],
                "summary": "Enroll in a section by code",
                "responses": {
                    "201": {"description": "Enrolled"},
                    "200": {"description": "Already enrolled"},
                    "404": {"description": "Code matches no section"}
                }
            }
        },
        "/students/me/enrollments/{sectionId}": {
            "delete": {
                "tags": ["Students"],
                "summary": "Leave a section",
                "parameters": [
                    {"name": "sectionId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Disenrolled"}
                }
            }
        },
        "/courses": {
            "post": {
                "tags": ["Courses"],
                "summary": "Create a course with its topic outline",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/courses/{id}/outline": {
            "get": {
                "tags": ["Courses"],
                "summary": "Course topic and concept outline",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/sections": {
            "post": {
                "tags": ["Sections"],
                "summary": "Create a section",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/sections/{id}/points": {
            "post": {
                "tags": ["Sections"],
                "summary": "Configure assessment points",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/sections/{id}/roster": {
            "get": {
                "tags": ["Sections"],
                "summary": "Section roster",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/sections/{id}/preview": {
            "get": {
                "tags": ["Sections"],
                "summary": "Single section preview",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "422": {"description": "Section references a missing course or semester"}
                }
            }
        },
        "/sections/{id}/students/{studentId}/gradeview": {
            "get": {
                "tags": ["GradeViews"],
                "summary": "Compiled grade view",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "studentId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections/{id}/students/{studentId}/gradeview/stream": {
            "get": {
                "tags": ["GradeViews"],
                "summary": "Live grade view over server-sent events",
                "produces": ["text/event-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "studentId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Event stream"}
                }
            }
        },
        "/student-points/{id}": {
            "patch": {
                "tags": ["StudentPoints"],
                "summary": "Update a student point status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Unknown point status"}
                }
            }
        },
        "/sections/{id}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a section mastery report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Report file"}
                }
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
