// Package swagger holds the generated OpenAPI document served under /swagger.
//
// Regenerate with:
//
//	swag init -g cmd/start.go -o docs/swagger
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    },
    "security": [{"ApiKeyAuth": []}],
    "paths": {
        "/health": {
            "get": {
                "description": "Checks that the CalDAV source and Google destination answer, that the history schema is complete and that the archive bucket exists. Results are cached for a short time.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health",
                "parameters": [
                    {"type": "boolean", "description": "Bypass the cached report", "name": "refresh", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "All Checks Passed", "schema": {"$ref": "#/definitions/health.Report"}},
                    "503": {"description": "At Least One Check Failed", "schema": {"$ref": "#/definitions/health.Report"}}
                }
            }
        },
        "/sync/links": {
            "get": {
                "description": "Returns the provenance-tagged destination events within the window.",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "List Links",
                "parameters": [
                    {"type": "integer", "description": "Days after today to scan", "name": "window_days", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Current Links", "schema": {"$ref": "#/definitions/calendar.LinksResponse"}},
                    "400": {"description": "Invalid Parameters", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Destination Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/sync/run": {
            "post": {
                "description": "Reconciles the CalDAV source into the Google calendar. Partial failures are reported in the result with status 200.",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Run Sync",
                "parameters": [
                    {"type": "integer", "description": "Days after today covered by the run", "name": "window_days", "in": "query"},
                    {"type": "boolean", "description": "Compute decisions without changing the destination", "name": "dry_run", "in": "query"},
                    {"type": "string", "description": "Only sync events whose summary, description or location contains this text", "name": "filter", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Run Result", "schema": {"$ref": "#/definitions/reconcile.SyncResult"}},
                    "400": {"description": "Invalid Parameters", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Run In Progress", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Source Or Destination Unavailable", "schema": {"$ref": "#/definitions/calendar.RunResponse"}}
                }
            }
        },
        "/sync/runs": {
            "get": {
                "description": "Returns the most recent sync runs, newest first.",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "List Runs",
                "parameters": [
                    {"type": "integer", "description": "Maximum number of runs (default 20)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Recorded Runs", "schema": {"type": "array", "items": {"$ref": "#/definitions/calendar.RunView"}}},
                    "503": {"description": "History Disabled", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "calendar.LinksResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "links": {"type": "array", "items": {"$ref": "#/definitions/reconcile.Link"}},
                "window": {"$ref": "#/definitions/reconcile.Window"}
            }
        },
        "calendar.RunResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "result": {"$ref": "#/definitions/reconcile.SyncResult"}
            }
        },
        "calendar.RunView": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "trigger": {"type": "string"},
                "dry_run": {"type": "boolean"},
                "filter": {"type": "string"},
                "window_start": {"type": "string"},
                "window_end": {"type": "string"},
                "started_at": {"type": "string"},
                "finished_at": {"type": "string"},
                "processed": {"type": "integer"},
                "created": {"type": "integer"},
                "updated": {"type": "integer"},
                "deleted": {"type": "integer"},
                "unchanged": {"type": "integer"},
                "deferred": {"type": "integer"},
                "error_count": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "fatal": {"type": "string"}
            }
        },
        "checks.Result": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "status": {"type": "string"},
                "error": {"type": "string"},
                "missing": {"type": "array", "items": {"type": "string"}},
                "latency_ms": {"type": "integer"}
            }
        },
        "health.Report": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "checks": {"type": "array", "items": {"$ref": "#/definitions/checks.Result"}},
                "checked_at": {"type": "string"},
                "cached": {"type": "boolean"}
            }
        },
        "reconcile.Link": {
            "type": "object",
            "properties": {
                "source_uid": {"type": "string"},
                "destination_id": {"type": "string"},
                "content_hash": {"type": "string"},
                "last_synced": {"type": "string"},
                "duplicates": {"type": "array", "items": {"type": "string"}}
            }
        },
        "reconcile.SyncResult": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "processed": {"type": "integer"},
                "created": {"type": "integer"},
                "updated": {"type": "integer"},
                "deleted": {"type": "integer"},
                "unchanged": {"type": "integer"},
                "deferred": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "dry_run": {"type": "boolean"},
                "window": {"$ref": "#/definitions/reconcile.Window"},
                "started_at": {"type": "string"},
                "finished_at": {"type": "string"}
            }
        },
        "reconcile.Window": {
            "type": "object",
            "properties": {
                "start": {"type": "string"},
                "end": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "calsync API",
	Description:      "One-way CalDAV to Google Calendar synchronization.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
