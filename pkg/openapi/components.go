package openapi

import "maps"

// BearerScheme is the security scheme name for bearer token authentication.
const BearerScheme = "bearerAuth"

func errorResponse(description string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef("ErrorDetail")},
		},
	}
}

// NewComponents creates Components with the shared error shape, the standard
// error responses, and the bearer security scheme.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"ErrorDetail": {
				Type:     "object",
				Required: []string{"detail"},
				Properties: map[string]*Schema{
					"detail": {Type: "string", Description: "Human-readable error message"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":      errorResponse("Invalid request"),
			"Unauthorized":    errorResponse("Missing or invalid bearer token"),
			"Forbidden":       errorResponse("Resource belongs to another organization"),
			"NotFound":        errorResponse("Resource not found"),
			"PayloadTooLarge": errorResponse("Request body exceeds the upload limit"),
		},
		SecuritySchemes: map[string]*SecurityScheme{
			BearerScheme: {
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
			},
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
