// Package docs registers the OpenAPI description served under /swagger/.
// Regenerate the paths section with `swag init -g cmd/server/main.go`.
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
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "registerRequest", "required": true, "schema": {"$ref": "#/definitions/models.RegisterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "409": {"description": "Username or email already registered", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in with username or email",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "loginRequest", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "401": {"description": "Wrong account or password", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Get current user",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "401": {"description": "Login required", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Update current user profile",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "profile", "required": true, "schema": {"$ref": "#/definitions/models.UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            }
        },
        "/memos/timeline": {
            "get": {
                "tags": ["memos"],
                "summary": "Timeline page",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "cursorCreatedAt", "in": "query"},
                    {"type": "string", "name": "cursorId", "in": "query"},
                    {"type": "string", "name": "username", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "400": {"description": "Invalid cursor or limit", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            }
        },
        "/memos/publish": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["memos"],
                "summary": "Publish a memo",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "memo", "required": true, "schema": {"$ref": "#/definitions/models.PublishMemoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "404": {"description": "Parent or quoted memo not found", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            }
        },
        "/memos/search": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["memos"],
                "summary": "Search memos",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "keyword", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "400": {"description": "Blank keyword", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            }
        },
        "/memos/{id}": {
            "get": {
                "tags": ["memos"],
                "summary": "Get a memo",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "403": {"description": "Private memo of another user", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "404": {"description": "Memo not found", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["memos"],
                "summary": "Patch a memo",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "patch", "required": true, "schema": {"$ref": "#/definitions/models.PatchMemoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "403": {"description": "Not the author", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["memos"],
                "summary": "Delete a memo",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "403": {"description": "Not the author", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            }
        },
        "/resources/upload-url": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["resources"],
                "summary": "Request an upload slot",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "fileType", "in": "query", "required": true},
                    {"type": "string", "name": "ext", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "400": {"description": "Illegal parameter", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            }
        },
        "/resources/record-upload": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["resources"],
                "summary": "Record a finished upload",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "upload", "required": true, "schema": {"$ref": "#/definitions/models.RecordUploadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "403": {"description": "Signature rejected", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            }
        },
        "/resources/user-all": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["resources"],
                "summary": "List my resources",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}}}
            }
        },
        "/resources/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["resources"],
                "summary": "Get a resource",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}},
                    "404": {"description": "Not found or not yours", "schema": {"$ref": "#/definitions/api.Envelope"}}
                }
            }
        },
        "/events": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["events"],
                "summary": "Get new events",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "since", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Envelope"}}}
            }
        }
    },
    "definitions": {
        "api.Envelope": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "error": {"type": "string"},
                "timestamp": {"type": "integer"},
                "traceId": {"type": "string"}
            }
        },
        "models.RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "username"],
            "properties": {
                "email": {"type": "string", "example": "a@x.com"},
                "password": {"type": "string", "minLength": 6, "example": "secret1"},
                "username": {"type": "string", "maxLength": 30, "minLength": 3, "example": "alice"}
            }
        },
        "models.LoginRequest": {
            "type": "object",
            "required": ["login", "password"],
            "properties": {
                "login": {"type": "string", "example": "alice"},
                "password": {"type": "string", "example": "secret1"}
            }
        },
        "models.UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "avatarUrl": {"type": "string"},
                "bio": {"type": "string"},
                "displayName": {"type": "string"}
            }
        },
        "models.PublishMemoRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string", "example": "hello"},
                "createdAt": {"type": "integer", "example": 1735689600000},
                "id": {"type": "string"},
                "isPinned": {"type": "boolean"},
                "parentId": {"type": "string"},
                "quoteId": {"type": "string"},
                "resources": {"type": "array", "items": {"type": "string"}},
                "visibility": {"type": "string", "enum": ["public", "private"]}
            }
        },
        "models.PatchMemoRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "createdAt": {"type": "integer"},
                "isPinned": {"type": "boolean"},
                "quoteId": {"type": "string"},
                "resources": {"type": "array", "items": {"type": "string"}},
                "visibility": {"type": "string", "enum": ["public", "private"]}
            }
        },
        "models.RecordUploadRequest": {
            "type": "object",
            "required": ["fileType", "filename", "path", "signature"],
            "properties": {
                "fileSize": {"type": "integer"},
                "fileType": {"type": "string"},
                "filename": {"type": "string"},
                "path": {"type": "string"},
                "signature": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Nodal API",
	Description:      "Memo publishing backend: timelines, replies, quotes and direct uploads.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
