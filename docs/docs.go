// Package docs holds the OpenAPI description served under /swagger.
package docs

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
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/api/v1/status": {
            "get": {
                "description": "Same snapshot the terminal display renders: camera (unknown|on|off), playback (playing|paused), last_event and monitor health.",
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Current camera and playback status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Status"}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/events": {
            "get": {
                "description": "Transition and monitor lifecycle history. Dates accept RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'; a date-only 'to' covers the whole day.",
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "List camera events",
                "parameters": [
                    {"type": "string", "example": "2025-08-01", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-08-31", "description": "End of range. Date-only treated as end of day.", "name": "to", "in": "query"},
                    {
                        "enum": ["CAMERA_ON", "CAMERA_OFF", "MONITOR_STARTED", "MONITOR_RESTARTED", "MONITOR_STOPPED"],
                        "type": "string",
                        "description": "Event type",
                        "name": "type",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "count, events", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "Upgrades to a WebSocket and pushes {\"type\":\"status\",\"data\":Status} immediately and then every interval (default 1s, max 10s).",
                "tags": ["status"],
                "summary": "Status stream",
                "parameters": [
                    {"type": "string", "description": "Go duration, e.g. 500ms", "name": "interval", "in": "query"},
                    {"type": "integer", "description": "Interval in milliseconds", "name": "interval_ms", "in": "query"}
                ],
                "responses": {}
            }
        }
    },
    "definitions": {
        "models.Status": {
            "type": "object",
            "properties": {
                "camera": {"type": "string", "enum": ["unknown", "on", "off"]},
                "playback": {"type": "string", "enum": ["playing", "paused"]},
                "last_event": {"type": "string", "example": "CameraOn detected at 14:03:09"},
                "detected_at": {"type": "string", "format": "date-time"},
                "monitor": {"type": "string", "enum": ["idle", "running", "restarting", "stopped"]},
                "monitor_error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Meeting Auto-Pause API",
	Description:      "Read-only view of camera state, playback state and transition history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
