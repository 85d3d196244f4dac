package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Weekly timetable solving, validation, versioned overrides and staffing gap analysis.",
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
        {
            "name": "Units",
            "description": "Planning unit rosters"
        },
        {
            "name": "Solve",
            "description": "Timetable solver"
        },
        {
            "name": "Schedules",
            "description": "Versioned schedules and overrides"
        },
        {
            "name": "Analysis",
            "description": "Validation and staffing gap analysis"
        },
        {
            "name": "Observability",
            "description": "Service counters"
        }
    ],
    "paths": {
        "/units/solve": {
            "post": {
                "tags": [
                    "Solve"
                ],
                "summary": "Solve several planning units concurrently",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/BatchSolveRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid payload",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Missing or invalid token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Role not allowed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{unitID}": {
            "put": {
                "tags": [
                    "Units"
                ],
                "summary": "Register or replace a planning unit roster",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "unitID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RegisterUnitRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid payload",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Missing or invalid token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Role not allowed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "get": {
                "tags": [
                    "Units"
                ],
                "summary": "Get planning unit summary",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "unitID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{unitID}/solve": {
            "post": {
                "tags": [
                    "Solve"
                ],
                "summary": "Solve the unit timetable into a draft",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "unitID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Missing or invalid token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Role not allowed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{unitID}/draft": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Get the pending draft schedule",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "unitID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{unitID}/draft/commit": {
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Commit the pending draft",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "unitID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Hard constraint violations",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Missing or invalid token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Role not allowed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{unitID}/schedule": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Get the active schedule",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "unitID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Commit a full assignment set",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "unitID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CommitRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid payload",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Hard constraint violations",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Missing or invalid token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Role not allowed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{unitID}/schedule/overrides": {
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Manually place one session",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "unitID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "If-Match",
                        "in": "header",
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/OverrideRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid payload",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Stale base version",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Base version missing",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Hard constraint violations",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Missing or invalid token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Role not allowed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{unitID}/schedule/history": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "List schedule versions oldest first",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "unitID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "include",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "assignments"
                        ]
                    },
                    {
                        "name": "since",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{unitID}/recommendations": {
            "get": {
                "tags": [
                    "Analysis"
                ],
                "summary": "Gap analysis of the latest solve",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "unitID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{unitID}/validate": {
            "post": {
                "tags": [
                    "Analysis"
                ],
                "summary": "Check an assignment set without committing it",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "unitID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ValidateRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid payload",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": [
                    "Observability"
                ],
                "summary": "Aggregated solver, commit and cache counters",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{unitID}/schedule/export": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Download a committed schedule as CSV or PDF",
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "unitID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ]
                    },
                    {
                        "name": "layout",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "list",
                            "grid"
                        ]
                    },
                    {
                        "name": "version",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Rendered file",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Invalid payload",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "Teacher": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "majors": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "minors": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "max_hours_per_day": {
                    "type": "integer"
                },
                "max_hours_per_week": {
                    "type": "integer"
                }
            },
            "required": [
                "id"
            ]
        },
        "Classroom": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "capacity": {
                    "type": "integer"
                }
            },
            "required": [
                "id",
                "capacity"
            ]
        },
        "Section": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "grade_level": {
                    "type": "integer"
                },
                "enrollment": {
                    "type": "integer"
                },
                "sessions_per_week": {
                    "type": "integer"
                },
                "session_duration": {
                    "type": "integer"
                }
            },
            "required": [
                "id",
                "subject",
                "sessions_per_week",
                "session_duration"
            ]
        },
        "Policy": {
            "type": "object",
            "properties": {
                "specializationStrictness": {
                    "type": "string",
                    "enum": [
                        "major-only",
                        "major-or-minor"
                    ]
                },
                "maxHoursDay": {
                    "type": "integer"
                },
                "maxHoursWeek": {
                    "type": "integer"
                },
                "solverTimeLimitMs": {
                    "type": "integer"
                },
                "loadBalanceWeight": {
                    "type": "number"
                },
                "gapMinimizeWeight": {
                    "type": "number"
                },
                "strategy": {
                    "type": "string",
                    "enum": [
                        "backtracking",
                        "greedy"
                    ]
                },
                "maxIterations": {
                    "type": "integer"
                },
                "shifts": {
                    "type": "integer"
                },
                "allowDualSpecialization": {
                    "type": "boolean"
                },
                "allowPartialCommit": {
                    "type": "boolean"
                },
                "minorPenaltyWeight": {
                    "type": "number"
                },
                "minTeacherLoad": {
                    "type": "integer"
                },
                "nearCeilingRatio": {
                    "type": "number"
                },
                "lowUtilizationRatio": {
                    "type": "number"
                }
            }
        },
        "TimeSlot": {
            "type": "object",
            "properties": {
                "day": {
                    "type": "integer"
                },
                "period": {
                    "type": "integer"
                }
            }
        },
        "Assignment": {
            "type": "object",
            "properties": {
                "section_id": {
                    "type": "string"
                },
                "session": {
                    "type": "integer"
                },
                "teacher_id": {
                    "type": "string"
                },
                "classroom_id": {
                    "type": "string"
                },
                "slot": {
                    "$ref": "#/definitions/TimeSlot"
                },
                "duration": {
                    "type": "integer"
                },
                "origin": {
                    "type": "string",
                    "enum": [
                        "GENERATED",
                        "PINNED"
                    ]
                }
            },
            "required": [
                "section_id",
                "session",
                "teacher_id",
                "classroom_id",
                "slot",
                "duration"
            ]
        },
        "RegisterUnitRequest": {
            "type": "object",
            "properties": {
                "teachers": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Teacher"
                    }
                },
                "classrooms": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Classroom"
                    }
                },
                "sections": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Section"
                    }
                },
                "policy": {
                    "$ref": "#/definitions/Policy"
                }
            }
        },
        "CommitRequest": {
            "type": "object",
            "properties": {
                "assignments": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Assignment"
                    }
                }
            }
        },
        "OverrideRequest": {
            "type": "object",
            "properties": {
                "base_version": {
                    "type": "integer"
                },
                "assignment": {
                    "$ref": "#/definitions/Assignment"
                }
            },
            "required": [
                "assignment"
            ]
        },
        "BatchSolveRequest": {
            "type": "object",
            "properties": {
                "unit_ids": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            },
            "required": [
                "unit_ids"
            ]
        },
        "ValidateRequest": {
            "type": "object",
            "properties": {
                "assignments": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Assignment"
                    }
                },
                "partial": {
                    "type": "boolean"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
