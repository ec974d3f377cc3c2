package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Varpay API",
        "description": "Warehouse variable-compensation API",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Admin login"},
        {"name": "Calculation", "description": "Stateless payout preview"},
        {"name": "Entries", "description": "Productivity entry lifecycle"},
        {"name": "Reference", "description": "Pay tier and KPI administration"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate admin",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/calculate": {
            "post": {
                "tags": ["Calculation"],
                "summary": "Calculate payout breakdown",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalculationInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure"},
                    "404": {"description": "Unknown activity"}
                }
            }
        },
        "/entries": {
            "get": {
                "tags": ["Entries"],
                "summary": "List entries",
                "parameters": [
                    {"name": "workerId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Entries"],
                "summary": "Submit a productivity entry",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEntryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure or daily KPI cap reached"},
                    "401": {"description": "Unresolvable or inactive worker"}
                }
            }
        },
        "/entries/{id}": {
            "get": {
                "tags": ["Entries"],
                "summary": "Get entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/entries/{id}/validate": {
            "post": {
                "tags": ["Entries"],
                "summary": "Apply an admin decision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateEntryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"},
                    "409": {"description": "Entry already finalized"}
                }
            }
        },
        "/entries/{id}/revisions": {
            "get": {
                "tags": ["Entries"],
                "summary": "List entry revisions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tiers": {
            "get": {
                "tags": ["Reference"],
                "summary": "List activity pay tiers",
                "parameters": [
                    {"name": "activity", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reference"],
                "summary": "Create activity pay tier",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertTierRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tiers/{id}": {
            "put": {
                "tags": ["Reference"],
                "summary": "Update activity pay tier",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertTierRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/kpis": {
            "get": {
                "tags": ["Reference"],
                "summary": "List KPI definitions",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "shift", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reference"],
                "summary": "Create KPI definition",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertKPIRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/kpis/{id}": {
            "put": {
                "tags": ["Reference"],
                "summary": "Update KPI definition",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertKPIRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "ActivityInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "quantity_produced": {"type": "number"},
                "hours_worked": {"type": "number"}
            },
            "required": ["name", "quantity_produced", "hours_worked"]
        },
        "CalculationInput": {
            "type": "object",
            "properties": {
                "role": {"type": "string"},
                "shift": {"type": "string"},
                "activity": {"$ref": "#/definitions/ActivityInput"},
                "activities": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ActivityInput"}
                },
                "valid_task_count": {"type": "integer"},
                "manual_adjustment": {"type": "number"},
                "achieved_kpis": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            },
            "required": ["role", "shift"]
        },
        "CreateEntryRequest": {
            "type": "object",
            "properties": {
                "entry_date": {"type": "string"},
                "worker_id": {"type": "string"},
                "worker_document_id": {"type": "string"},
                "birth_date": {"type": "string"},
                "role": {"type": "string"},
                "shift": {"type": "string"},
                "activity": {"$ref": "#/definitions/ActivityInput"},
                "activities": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ActivityInput"}
                },
                "valid_task_count": {"type": "integer"},
                "manual_adjustment": {"type": "number"},
                "achieved_kpis": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            },
            "required": ["entry_date"]
        },
        "ValidateEntryRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["approve", "reject", "edit"]},
                "note": {"type": "string"},
                "edited_input": {"$ref": "#/definitions/CalculationInput"}
            },
            "required": ["action"]
        },
        "UpsertTierRequest": {
            "type": "object",
            "properties": {
                "activity_name": {"type": "string"},
                "tier_label": {"type": "string"},
                "min_productivity_rate": {"type": "number"},
                "unit_value": {"type": "number"},
                "unit_of_measure": {"type": "string"},
                "active": {"type": "boolean"}
            },
            "required": ["activity_name", "tier_label", "unit_of_measure"]
        },
        "UpsertKPIRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "role": {"type": "string"},
                "shift": {"type": "string"},
                "weight_value": {"type": "number"},
                "active": {"type": "boolean"}
            },
            "required": ["name", "role", "shift"]
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
