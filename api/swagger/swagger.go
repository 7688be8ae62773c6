package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Scolara API",
        "description": "School administration API: academic structure, scheduling, attendance and messaging.",
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
        {"name": "Departments", "description": "Department management"},
        {"name": "Specialties", "description": "Specialty management"},
        {"name": "Levels", "description": "Level management"},
        {"name": "Groups", "description": "Group management"},
        {"name": "Subjects", "description": "Subject management"},
        {"name": "Rooms", "description": "Room management"},
        {"name": "Teachers", "description": "Teacher accounts"},
        {"name": "Students", "description": "Student accounts"},
        {"name": "Sessions", "description": "Session scheduling with conflict detection"},
        {"name": "Absences", "description": "Absence listing and justification"},
        {"name": "Teacher portal", "description": "Authenticated teacher views"},
        {"name": "Student portal", "description": "Authenticated student views"},
        {"name": "Messages", "description": "Internal mailbox"},
        {"name": "Export", "description": "CSV/PDF export and CSV import"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "Degraded"}}
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions",
                "responses": {"200": {"description": "Sessions", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Create session, subject to the schedule conflict check",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule conflict, details list every colliding dimension", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get session",
                "responses": {"200": {"description": "Session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Sessions"],
                "summary": "Update session, rechecking conflicts",
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Sessions"],
                "summary": "Delete session",
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/teacher/sessions/{id}/attendance": {
            "post": {
                "tags": ["Teacher portal"],
                "summary": "Record the attendance roster for a session",
                "responses": {
                    "204": {"description": "Recorded"},
                    "403": {"description": "Not the assigned teacher"},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/student/schedule": {
            "get": {
                "tags": ["Student portal"],
                "summary": "Weekly schedule for the calling student, empty when no group is assigned",
                "responses": {"200": {"description": "Schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/student/summary": {
            "get": {
                "tags": ["Student portal"],
                "summary": "Per-subject absence summary with derived elimination status",
                "responses": {"200": {"description": "Summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teacher/at-risk": {
            "get": {
                "tags": ["Teacher portal"],
                "summary": "Students over the elimination threshold in the teacher's subjects",
                "responses": {"200": {"description": "At-risk students", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "SessionConflict": {
            "type": "object",
            "properties": {
                "dimension": {"type": "string", "enum": ["room", "group", "teacher"]},
                "session_id": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"}
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
