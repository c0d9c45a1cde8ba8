package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Timetable API",
        "description": "Deterministic weekly timetable auto-generation engine",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Generation runs and read-back views"},
        {"name": "TimeOff", "description": "Tri-state availability matrices"},
        {"name": "LessonConfig", "description": "Weekly lesson requirement registry"},
        {"name": "Topology", "description": "Period grid, rooms and grade calendars"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/timetable/auto-generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Run the timetable auto-generation engine",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "Run result with placements and conflicts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A generation run is already in progress"}
                }
            }
        },
        "/timetable/all": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Full timetable",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/my": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Personal timetable of the authenticated teacher",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/class/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Timetable of one class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/public": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Public read-only timetable",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/export/csv": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download the timetable as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/timetable/export/pdf": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download the timetable as PDF",
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF file"}
                }
            }
        },
        "/timeoff/{ownerType}/{ownerId}": {
            "get": {
                "tags": ["TimeOff"],
                "summary": "Availability matrix of one owner",
                "parameters": [
                    {"name": "ownerType", "in": "path", "required": true, "type": "string", "enum": ["class", "teacher", "subject"]},
                    {"name": "ownerId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["TimeOff"],
                "summary": "Replace an owner's availability matrix",
                "parameters": [
                    {"name": "ownerType", "in": "path", "required": true, "type": "string", "enum": ["class", "teacher", "subject"]},
                    {"name": "ownerId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceTimeOffRequest"}}
                ],
                "responses": {
                    "204": {"description": "Replaced"}
                }
            },
            "put": {
                "tags": ["TimeOff"],
                "summary": "Replace an owner's availability matrix",
                "parameters": [
                    {"name": "ownerType", "in": "path", "required": true, "type": "string", "enum": ["class", "teacher", "subject"]},
                    {"name": "ownerId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceTimeOffRequest"}}
                ],
                "responses": {
                    "204": {"description": "Replaced"}
                }
            }
        },
        "/lesson-config": {
            "get": {
                "tags": ["LessonConfig"],
                "summary": "List lesson requirements",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["LessonConfig"],
                "summary": "Create a lesson requirement",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LessonConfigRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lesson-config/{id}": {
            "put": {
                "tags": ["LessonConfig"],
                "summary": "Update a lesson requirement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LessonConfigRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["LessonConfig"],
                "summary": "Delete a lesson requirement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/lesson-config/from-assignments": {
            "post": {
                "tags": ["LessonConfig"],
                "summary": "Derive requirements from teacher assignments",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ImportAssignmentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/periods": {
            "get": {
                "tags": ["Topology"],
                "summary": "List the daily period grid",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Topology"],
                "summary": "Create a period",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PeriodRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/periods/{id}": {
            "put": {
                "tags": ["Topology"],
                "summary": "Update a period",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PeriodRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Topology"],
                "summary": "Delete a period",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/rooms": {
            "get": {
                "tags": ["Topology"],
                "summary": "List the room inventory",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Topology"],
                "summary": "Create a room",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RoomRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/{id}": {
            "put": {
                "tags": ["Topology"],
                "summary": "Update a room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RoomRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Topology"],
                "summary": "Delete a room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/grade-calendars": {
            "get": {
                "tags": ["Topology"],
                "summary": "Active weekdays per grade",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grade-calendars/{grade}": {
            "put": {
                "tags": ["Topology"],
                "summary": "Replace one grade's active weekday set",
                "parameters": [
                    {"name": "grade", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeCalendarRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "clearExisting": {"type": "boolean"},
                "activeDays": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ReplaceTimeOffRequest": {
            "type": "object",
            "properties": {
                "matrix": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "dayOfWeek": {"type": "string"},
                            "periodId": {"type": "string"},
                            "state": {"type": "string", "enum": ["AVAILABLE", "CONDITIONAL", "UNAVAILABLE"]}
                        }
                    }
                }
            }
        },
        "LessonConfigRequest": {
            "type": "object",
            "properties": {
                "subjectId": {"type": "string"},
                "title": {"type": "string"},
                "classIds": {"type": "array", "items": {"type": "string"}},
                "teacherIds": {"type": "array", "items": {"type": "string"}},
                "count": {"type": "integer"},
                "length": {"type": "integer"},
                "roomType": {"type": "string"},
                "isMeeting": {"type": "boolean"}
            }
        },
        "ImportAssignmentsRequest": {
            "type": "object",
            "properties": {
                "weeklyCount": {"type": "integer"}
            }
        },
        "PeriodRequest": {
            "type": "object",
            "properties": {
                "number": {"type": "integer"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "isBreak": {"type": "boolean"},
                "label": {"type": "string"}
            }
        },
        "RoomRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string"},
                "capacity": {"type": "integer"}
            }
        },
        "GradeCalendarRequest": {
            "type": "object",
            "properties": {
                "days": {"type": "array", "items": {"type": "string"}}
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
                "pagination": {"type": "object"},
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
