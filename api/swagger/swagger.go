package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Kiosk Agent API",
        "description": "Local agent driving the RFID tag assignment workflow",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Workflow", "description": "Tag assignment workflow sessions"},
        {"name": "Auth", "description": "Staff operator session"},
        {"name": "Checkin", "description": "Attendance scans and the offline queue"},
        {"name": "ScanLog", "description": "Local scan audit log"},
        {"name": "Admin", "description": "PIN-guarded maintenance"}
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
        "/scanner/status": {
            "get": {
                "summary": "Scanner availability",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Start a workflow session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Workflow"],
                "summary": "Current workflow snapshot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Workflow"],
                "summary": "Tear down a session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/sessions/{id}/scan": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Start a tag scan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/scan/cancel": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Dismiss the scanning overlay",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CancelScanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/selection": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Enter the owner selection step",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Workflow"],
                "summary": "Pick the owner for the scanned tag",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/commit": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Commit the tag assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/reset": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Reset for another scan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/handoff": {
            "get": {
                "tags": ["Workflow"],
                "summary": "Navigation payload for the selection screen",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/restore": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Rebuild state from a navigation payload",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NavigationState"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/roster": {
            "get": {
                "tags": ["Workflow"],
                "summary": "Render one selection grid page",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "group", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/session": {
            "put": {
                "tags": ["Auth"],
                "summary": "Store the staff operator session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Auth"],
                "summary": "Inspect the operator session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Auth"],
                "summary": "Log the operator out",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/checkin": {
            "post": {
                "tags": ["Checkin"],
                "summary": "Record an attendance scan",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckinRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checkin/pending": {
            "get": {
                "tags": ["Checkin"],
                "summary": "Offline scan backlog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checkin/flush": {
            "post": {
                "tags": ["Checkin"],
                "summary": "Trigger an offline queue flush",
                "responses": {
                    "202": {"description": "Accepted"}
                }
            }
        },
        "/scan-log": {
            "get": {
                "tags": ["ScanLog"],
                "summary": "List scan log entries",
                "parameters": [
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "kind", "in": "query", "type": "string"},
                    {"name": "tag", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/scan-log/export": {
            "get": {
                "tags": ["ScanLog"],
                "summary": "Export the scan log as CSV or PDF",
                "parameters": [
                    {"name": "X-Admin-PIN", "in": "header", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/admin/metrics": {
            "get": {
                "tags": ["Admin"],
                "summary": "Maintenance metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CancelScanRequest": {
            "type": "object",
            "properties": {
                "cause": {"type": "string", "enum": ["backdrop", "escape", "manual"]}
            },
            "required": ["cause"]
        },
        "SelectRequest": {
            "type": "object",
            "properties": {
                "person_id": {"type": "integer"},
                "search": {"type": "string"},
                "group": {"type": "string"},
                "type": {"type": "string"}
            },
            "required": ["person_id"]
        },
        "SetSessionRequest": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "user_id": {"type": "integer"},
                "username": {"type": "string"}
            },
            "required": ["access_token", "user_id", "username"]
        },
        "CheckinRequest": {
            "type": "object",
            "properties": {
                "tag_id": {"type": "string"}
            },
            "required": ["tag_id"]
        },
        "NavigationState": {
            "type": "object",
            "properties": {
                "assignment_success": {"type": "boolean"},
                "person_name": {"type": "string"},
                "previous_tag": {"type": "string"},
                "scanned_tag": {"type": "string"},
                "tag_assignment": {"type": "object"}
            },
            "required": ["scanned_tag"]
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
