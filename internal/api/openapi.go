package api

import (
	"github.com/JaimeStill/rhythmrisk/internal/config"
	"github.com/JaimeStill/rhythmrisk/pkg/openapi"
)

var (
	str      = &openapi.Schema{Type: "string"}
	uuidStr  = &openapi.Schema{Type: "string", Format: "uuid"}
	dateTime = &openapi.Schema{Type: "string", Format: "date-time"}
	integer  = &openapi.Schema{Type: "integer"}
	number   = &openapi.Schema{Type: "number"}
	boolean  = &openapi.Schema{Type: "boolean"}
)

var schemas = map[string]*openapi.Schema{
	"User": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":              uuidStr,
			"email":           {Type: "string", Format: "email"},
			"full_name":       str,
			"organization_id": uuidStr,
			"is_active":       boolean,
			"is_superuser":    boolean,
			"created_at":      dateTime,
			"updated_at":      dateTime,
		},
	},
	"Register": {
		Type:     "object",
		Required: []string{"email", "password", "full_name", "organization_name"},
		Properties: map[string]*openapi.Schema{
			"email":             {Type: "string", Format: "email"},
			"password":          str,
			"full_name":         str,
			"organization_name": str,
		},
	},
	"Login": {
		Type:     "object",
		Required: []string{"username", "password"},
		Properties: map[string]*openapi.Schema{
			"username": {Type: "string", Description: "Account email"},
			"password": str,
		},
	},
	"Token": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"access_token": str,
			"token_type":   {Type: "string", Example: "bearer"},
		},
	},
	"Upload": {
		Type:     "object",
		Required: []string{"file"},
		Properties: map[string]*openapi.Schema{
			"file":      {Type: "string", Format: "binary"},
			"entity_id": uuidStr,
		},
	},
	"StageRecord": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"stage":            str,
			"started_at":       dateTime,
			"completed_at":     dateTime,
			"status":           {Type: "string", Enum: []any{"started", "completed", "failed"}},
			"error_message":    str,
			"duration_seconds": number,
		},
	},
	"Document": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":                          uuidStr,
			"organization_id":             uuidStr,
			"entity_id":                   uuidStr,
			"entity_name":                 str,
			"entity_type":                 str,
			"uploaded_by":                 uuidStr,
			"filename":                    str,
			"file_type":                   str,
			"file_size":                   integer,
			"status":                      {Type: "string", Enum: []any{"pending", "processing", "completed", "failed"}},
			"current_stage":               str,
			"stage_history":               {Type: "array", Items: openapi.SchemaRef("StageRecord")},
			"error_message":               str,
			"page_count":                  integer,
			"processing_started_at":       dateTime,
			"processing_completed_at":     dateTime,
			"processing_duration_seconds": number,
			"created_at":                  dateTime,
			"updated_at":                  dateTime,
		},
	},
	"StatusSnapshot": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"document_id":                 uuidStr,
			"filename":                    str,
			"status":                      str,
			"current_stage":               str,
			"stage_history":               {Type: "array", Items: openapi.SchemaRef("StageRecord")},
			"processing_duration_seconds": number,
			"is_stuck":                    boolean,
			"stuck_stage":                 str,
			"error_message":               str,
			"processing_started_at":       dateTime,
			"processing_completed_at":     dateTime,
		},
	},
	"DocumentData": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"extracted_text": str,
			"processing_metadata": {
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"processed_at": dateTime,
					"file_type":    str,
					"file_size":    integer,
					"page_count":   integer,
				},
			},
		},
	},
	"AssignEntity": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"entity_id": {Type: "string", Format: "uuid", Description: "Entity to assign; null clears the assignment"},
		},
	},
	"Message": {
		Type:       "object",
		Properties: map[string]*openapi.Schema{"message": str},
	},
}

func errs(codes ...int) map[int]*openapi.Response {
	names := map[int]string{
		400: "BadRequest",
		401: "Unauthorized",
		403: "Forbidden",
		404: "NotFound",
		413: "PayloadTooLarge",
	}
	out := make(map[int]*openapi.Response, len(codes)+1)
	for _, c := range codes {
		out[c] = openapi.ResponseRef(names[c])
	}
	return out
}

func with(responses map[int]*openapi.Response, code int, r *openapi.Response) map[int]*openapi.Response {
	responses[code] = r
	return responses
}

// documentOp describes an authenticated operation on a single document.
func documentOp(id, summary string, ok *openapi.Response, extra ...int) *openapi.Operation {
	return &openapi.Operation{
		OperationID: id,
		Summary:     summary,
		Tags:        []string{"documents"},
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Document ID")},
		Responses:   with(errs(append([]int{401, 403, 404}, extra...)...), 200, ok),
		Security:    openapi.Bearer(),
	}
}

// buildSpec describes every route registered by registerRoutes. Paths are
// relative to the API base path, which is the document's only server.
func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	spec.Components.AddSchemas(schemas)

	spec.AddOperation("POST", "/auth/register", &openapi.Operation{
		OperationID: "register",
		Summary:     "Create a user and organization",
		Tags:        []string{"auth"},
		RequestBody: openapi.RequestBodyJSON("Register", true),
		Responses:   with(errs(400, 403), 200, openapi.ResponseJSON("Registered user", "User")),
	})
	spec.AddOperation("POST", "/auth/login", &openapi.Operation{
		OperationID: "login",
		Summary:     "Exchange credentials for a bearer token",
		Tags:        []string{"auth"},
		RequestBody: openapi.RequestBodyForm("Login", true),
		Responses:   with(errs(400, 401), 200, openapi.ResponseJSON("Access token", "Token")),
	})
	spec.AddOperation("GET", "/auth/me", &openapi.Operation{
		OperationID: "me",
		Summary:     "Current user",
		Tags:        []string{"auth"},
		Responses:   with(errs(400, 401), 200, openapi.ResponseJSON("Authenticated user", "User")),
		Security:    openapi.Bearer(),
	})

	spec.AddOperation("GET", "/documents", &openapi.Operation{
		OperationID: "listDocuments",
		Summary:     "List the organization's documents, newest first",
		Tags:        []string{"documents"},
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
			openapi.QueryParam("limit", "integer", "Results per page", false),
			openapi.QueryParam("status", "string", "Filter by processing status", false),
			openapi.QueryParam("entity_id", "string", "Filter by entity", false),
		},
		Responses: with(errs(400, 401), 200, openapi.ResponseJSONArray("Documents", "Document")),
		Security:  openapi.Bearer(),
	})
	spec.AddOperation("POST", "/documents/upload", &openapi.Operation{
		OperationID: "uploadDocument",
		Summary:     "Upload a document for processing",
		Tags:        []string{"documents"},
		RequestBody: openapi.RequestBodyMultipart("Upload", true),
		Responses:   with(errs(400, 401, 413), 200, openapi.ResponseJSON("Created document", "Document")),
		Security:    openapi.Bearer(),
	})

	spec.AddOperation("GET", "/documents/{id}", documentOp("getDocument", "Get a document",
		openapi.ResponseJSON("Document", "Document")))
	spec.AddOperation("DELETE", "/documents/{id}", documentOp("deleteDocument", "Delete a document and its file",
		openapi.ResponseJSON("Deleted", "Message")))
	spec.AddOperation("GET", "/documents/{id}/download", documentOp("downloadDocument", "Download the original file",
		openapi.ResponseBinary("File contents")))
	spec.AddOperation("GET", "/documents/{id}/status", documentOp("documentStatus", "Processing status",
		openapi.ResponseJSON("Status", "StatusSnapshot")))
	spec.AddOperation("GET", "/documents/{id}/data", documentOp("documentData", "Extracted content",
		openapi.ResponseJSON("Extracted data", "DocumentData")))
	spec.AddOperation("POST", "/documents/{id}/reprocess", documentOp("reprocessDocument", "Queue a failed or stuck document again",
		openapi.ResponseJSON("Status after reset", "StatusSnapshot"), 400))

	assign := documentOp("assignEntity", "Set or clear the document's entity",
		openapi.ResponseJSON("Updated", "Message"), 400)
	assign.RequestBody = openapi.RequestBodyJSON("AssignEntity", false)
	assign.Parameters = append(assign.Parameters,
		openapi.QueryParam("entity_id", "string", "Entity to assign when no body is sent", false))
	spec.AddOperation("PATCH", "/documents/{id}/entity", assign)

	return spec
}
