package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Ward MAR API",
        "description": "Medication administration record status summaries per ward visit.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "MAR", "description": "Medication administration record status"},
        {"name": "Operations", "description": "Liveness, readiness and metrics"}
    ],
    "paths": {
        "/mar/patients": {
            "get": {
                "tags": ["MAR"],
                "summary": "List visits with MAR status summaries",
                "description": "Summaries are populated only when the date window includes today; otherwise every count is zero.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "fromDate", "in": "query", "type": "string", "format": "date"},
                    {"name": "toDate", "in": "query", "type": "string", "format": "date"},
                    {"name": "deptCode", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VisitReportEnvelope"}},
                    "400": {"description": "Malformed date", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Source unavailable or invalid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mar/patients/export": {
            "get": {
                "tags": ["MAR"],
                "summary": "Download the MAR status report",
                "security": [{"BearerAuth": []}],
                "produces": [
                    "text/csv",
                    "application/pdf",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
                ],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "required": true, "enum": ["csv", "pdf", "xlsx"]},
                    {"name": "fromDate", "in": "query", "type": "string", "format": "date"},
                    {"name": "toDate", "in": "query", "type": "string", "format": "date"},
                    {"name": "deptCode", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Rendered file", "schema": {"type": "file"}},
                    "400": {"description": "Invalid parameters", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Export disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mar/details": {
            "get": {
                "tags": ["MAR"],
                "summary": "List raw medication items for a visit",
                "description": "The date window never applies to detail lookups.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "visitId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MedicationItemEnvelope"}},
                    "400": {"description": "visitId missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "MarSummary": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "pending": {"type": "integer"},
                "missed": {"type": "integer"},
                "returnPending": {"type": "integer"}
            }
        },
        "VisitReport": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "deptCode": {"type": "string"},
                "patientId": {"type": "string"},
                "patientName": {"type": "string"},
                "roomNo": {"type": "string"},
                "bedNo": {"type": "string"},
                "attendingPhysician": {"type": "string"},
                "admittedAt": {"type": "string", "format": "date-time"},
                "marSummary": {"$ref": "#/definitions/MarSummary"}
            }
        },
        "MedicationItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "visitId": {"type": "string"},
                "status": {"type": "string", "enum": ["SCHEDULED", "MISSED", "RETURN_PENDING", "ADMINISTERED", "HELD", "DISCONTINUED"]},
                "drugName": {"type": "string"},
                "dose": {"type": "string"},
                "route": {"type": "string"},
                "scheduledAt": {"type": "string", "format": "date-time"}
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
        },
        "VisitReportEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/VisitReport"}},
                "meta": {
                    "type": "object",
                    "properties": {
                        "today": {"type": "string", "format": "date"},
                        "gateOpen": {"type": "boolean"},
                        "visitCount": {"type": "integer"}
                    }
                }
            }
        },
        "MedicationItemEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/MedicationItem"}},
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
