// Package docs registers the Swagger document served under /swagger.
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
            "get": {"tags": ["system"], "summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/snapshot": {
            "get": {"tags": ["dashboard"], "summary": "Live snapshot", "description": "Last reconciled telemetry with forced relay modes overlaid.", "produces": ["application/json"], "responses": {"200": {"description": "temperature, humidity, soil, time, relayN"}}}
        },
        "/api/v1/relays": {
            "get": {"tags": ["relays"], "summary": "Relay modes", "produces": ["application/json"], "responses": {"200": {"description": "relayN: auto|on|off"}}},
            "post": {
                "tags": ["relays"], "summary": "Set several relay modes", "description": "All-or-nothing: one invalid relay or mode rejects the whole request.",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"type": "object", "additionalProperties": {"type": "string"}}}],
                "responses": {"200": {"description": "projected snapshot"}, "400": {"description": "invalid mode"}, "404": {"description": "unknown relay"}, "503": {"description": "store unavailable"}}
            }
        },
        "/api/v1/relays/{relay}/mode": {
            "put": {
                "tags": ["relays"], "summary": "Set one relay mode",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "relay", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SetModeRequest"}}
                ],
                "responses": {"200": {"description": "projected snapshot"}, "400": {"description": "invalid mode"}, "404": {"description": "unknown relay"}, "503": {"description": "store unavailable"}}
            }
        },
        "/api/v1/device/report": {
            "post": {
                "tags": ["device"], "summary": "Device report",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "reconciled snapshot"}, "400": {"description": "Bad JSON"}, "503": {"description": "store unavailable"}}
            }
        },
        "/api/v1/device/ping": {
            "post": {"tags": ["device"], "summary": "Device heartbeat", "responses": {"204": {"description": "No Content"}}}
        },
        "/api/v1/device/refresh": {
            "get": {"tags": ["device"], "summary": "Refresh token", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.refreshResponse"}}}}
        },
        "/api/v1/device/status": {
            "get": {"tags": ["device"], "summary": "Device status", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.statusResponse"}}}}
        },
        "/api/v1/thresholds": {
            "get": {"tags": ["thresholds"], "summary": "Thresholds", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "503": {"description": "store unavailable"}}},
            "put": {
                "tags": ["thresholds"], "summary": "Replace thresholds",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"type": "object", "additionalProperties": {"type": "string"}}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid body"}, "503": {"description": "store unavailable"}}
            }
        },
        "/api/v1/logs": {
            "get": {
                "tags": ["logs"], "summary": "List relay events", "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "from", "type": "string"},
                    {"in": "query", "name": "to", "type": "string"},
                    {"in": "query", "name": "type", "type": "string", "enum": ["MODE_CHANGE", "CONNECTIVITY", "THRESHOLDS"]},
                    {"in": "query", "name": "relay", "type": "string"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "count, events"}, "400": {"description": "invalid filter"}, "500": {"description": "failed to load logs"}}
            }
        }
    },
    "definitions": {
        "handlers.SetModeRequest": {
            "type": "object",
            "properties": {"mode": {"type": "string", "example": "on"}}
        },
        "handlers.refreshResponse": {
            "type": "object",
            "properties": {"token": {"type": "integer", "example": 1717243200123}, "issued_at": {"type": "string", "example": "2024-06-01T12:00:00Z"}}
        },
        "handlers.statusResponse": {
            "type": "object",
            "properties": {"status": {"type": "string", "example": "online"}, "last_seen": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Relay Hub API",
	Description:      "Reconciles operator relay modes with device reports and serves the projected state.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
