// Package docs holds the OpenAPI document served by the swagger UI.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/templates": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Recruiter - Templates"],
                "summary": "List the company's templates",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.TemplateSummary"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Recruiter - Templates"],
                "summary": "Publish an assessment template",
                "parameters": [{"name": "template", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.TemplatePublishRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.TemplateResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/templates/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Recruiter - Templates"],
                "summary": "Get a template",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TemplateResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Recruiter - Templates"],
                "summary": "Replace a template",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "template", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.TemplatePublishRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TemplateResponse"}},
                    "409": {"description": "Template locked", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/invites": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Recruiter - Invites"],
                "summary": "Invite a candidate to an assessment",
                "parameters": [{"name": "invite", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.IssueInviteRequest"}}],
                "responses": {
                    "200": {"description": "Existing invite returned", "schema": {"$ref": "#/definitions/dto.InviteResponse"}},
                    "201": {"description": "Invite created", "schema": {"$ref": "#/definitions/dto.InviteResponse"}},
                    "402": {"description": "Insufficient credits", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/invites/redeem": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Candidate - Attempts"],
                "summary": "Redeem an invite token and start the attempt",
                "parameters": [{"name": "redeem", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RedeemRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RedeemResponse"}},
                    "404": {"description": "Token invalid", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Token already used", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "410": {"description": "Token expired", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/attempts/{id}/answers": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Candidate - Attempts"],
                "summary": "Save an answer",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "answer", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RecordAnswerRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Deadline passed or attempt not in progress", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/attempts/{id}/submit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Candidate - Attempts"],
                "summary": "Submit the attempt for scoring",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SubmitResponse"}},
                    "409": {"description": "Already submitted or not in progress", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/attempts/{id}/flags": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Candidate - Attempts"],
                "summary": "Report an integrity signal",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "flag", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RecordFlagRequest"}}
                ],
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/attempts/{id}/results": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Results"],
                "summary": "Get an attempt's result",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AttemptResultResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/companies/{id}/credits": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Credits"],
                "summary": "Get a company's credit balance",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.CreditBalanceResponse"}}}
            }
        },
        "/companies/{id}/ledger": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Credits"],
                "summary": "List a company's ledger entries",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.LedgerEntryResponse"}}}}
            }
        },
        "/admin/companies/{id}/credits": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin - Credits"],
                "summary": "(Admin) Grant credits to a company",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "grant", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.GrantCreditsRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.CreditBalanceResponse"}}}
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.CostSchedule": {
            "type": "object",
            "properties": {
                "reserve_credits": {"type": "number"},
                "complete_credits": {"type": "number"}
            }
        },
        "dto.QuestionRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["MULTIPLE_CHOICE", "SHORT_ANSWER", "CODING"]},
                "prompt": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "expected_answer": {"type": "string"},
                "points": {"type": "integer"}
            }
        },
        "dto.TemplatePublishRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "total_questions": {"type": "integer"},
                "time_limit_minutes": {"type": "integer"},
                "passing_score_percent": {"type": "number"},
                "cost_schedule": {"$ref": "#/definitions/dto.CostSchedule"},
                "questions": {"type": "array", "items": {"$ref": "#/definitions/dto.QuestionRequest"}}
            }
        },
        "dto.TemplateResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "company_id": {"type": "string"},
                "title": {"type": "string"},
                "total_questions": {"type": "integer"},
                "time_limit_minutes": {"type": "integer"},
                "passing_score_percent": {"type": "number"},
                "cost_schedule": {"$ref": "#/definitions/dto.CostSchedule"},
                "referenced": {"type": "boolean"}
            }
        },
        "dto.TemplateSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "total_questions": {"type": "integer"}
            }
        },
        "dto.IssueInviteRequest": {
            "type": "object",
            "properties": {
                "template_id": {"type": "string"},
                "candidate_id": {"type": "string"},
                "application_id": {"type": "string"},
                "candidate_email": {"type": "string"}
            }
        },
        "dto.InviteResponse": {
            "type": "object",
            "properties": {
                "invite_id": {"type": "string"},
                "template_id": {"type": "string"},
                "invite_url": {"type": "string"},
                "status": {"type": "string"},
                "expires_at": {"type": "string"},
                "created": {"type": "boolean"}
            }
        },
        "dto.RedeemRequest": {
            "type": "object",
            "properties": {"token": {"type": "string"}}
        },
        "dto.RedeemResponse": {
            "type": "object",
            "properties": {
                "attempt_id": {"type": "string"},
                "invite_id": {"type": "string"},
                "deadline": {"type": "string"}
            }
        },
        "dto.RecordAnswerRequest": {
            "type": "object",
            "properties": {
                "question_id": {"type": "string"},
                "answer": {"type": "string"}
            }
        },
        "dto.SubmitResponse": {
            "type": "object",
            "properties": {
                "attempt_id": {"type": "string"},
                "score": {"type": "number"},
                "passed": {"type": "boolean"},
                "billing_pending": {"type": "boolean"}
            }
        },
        "dto.RecordFlagRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["TAB_SWITCH", "FULLSCREEN_EXIT", "COPY_PASTE"]},
                "occurrence_count": {"type": "integer"},
                "timestamp": {"type": "string"}
            }
        },
        "dto.AttemptResultResponse": {
            "type": "object",
            "properties": {
                "attempt_id": {"type": "string"},
                "status": {"type": "string"},
                "score": {"type": "number"},
                "passed": {"type": "boolean"},
                "integrity": {"type": "object"},
                "answers": {"type": "array", "items": {"type": "object"}}
            }
        },
        "dto.CreditBalanceResponse": {
            "type": "object",
            "properties": {
                "company_id": {"type": "string"},
                "available": {"type": "number"},
                "reserved": {"type": "number"},
                "spent": {"type": "number"},
                "lifetime_granted": {"type": "number"}
            }
        },
        "dto.GrantCreditsRequest": {
            "type": "object",
            "properties": {"amount": {"type": "number"}}
        },
        "dto.LedgerEntryResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "kind": {"type": "string"},
                "amount": {"type": "number"},
                "reservation_id": {"type": "string"},
                "created_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Skillcheck Assessment API",
	Description:      "Assessment templates, invites, timed attempts and prepaid credit reservations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
