package openapi

// SchemaRef references a component schema.
func SchemaRef(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

// ResponseRef references a component response.
func ResponseRef(name string) *Response {
	return &Response{Ref: "#/components/responses/" + name}
}

// RequestBodyJSON describes a JSON body of the named schema.
func RequestBodyJSON(schemaName string, required bool) *RequestBody {
	return requestBody("application/json", schemaName, required)
}

// RequestBodyForm describes a URL-encoded form body of the named schema.
func RequestBodyForm(schemaName string, required bool) *RequestBody {
	return requestBody("application/x-www-form-urlencoded", schemaName, required)
}

// RequestBodyMultipart describes a multipart form body of the named schema.
func RequestBodyMultipart(schemaName string, required bool) *RequestBody {
	return requestBody("multipart/form-data", schemaName, required)
}

func requestBody(contentType, schemaName string, required bool) *RequestBody {
	return &RequestBody{
		Required: required,
		Content: map[string]*MediaType{
			contentType: {Schema: SchemaRef(schemaName)},
		},
	}
}

// ResponseJSON describes a JSON response of the named schema.
func ResponseJSON(description, schemaName string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef(schemaName)},
		},
	}
}

// ResponseJSONArray describes a JSON array response of the named schema.
func ResponseJSONArray(description, schemaName string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: &Schema{Type: "array", Items: SchemaRef(schemaName)}},
		},
	}
}

// ResponseBinary describes a raw file response.
func ResponseBinary(description string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/octet-stream": {Schema: &Schema{Type: "string", Format: "binary"}},
		},
	}
}

// PathParam describes a required UUID path parameter.
func PathParam(name, description string) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "path",
		Required:    true,
		Description: description,
		Schema:      &Schema{Type: "string", Format: "uuid"},
	}
}

// QueryParam describes a query parameter of the given JSON type.
func QueryParam(name, typ, description string, required bool) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "query",
		Required:    required,
		Description: description,
		Schema:      &Schema{Type: typ},
	}
}

// Bearer requires the bearer security scheme.
func Bearer() []SecurityRequirement {
	return []SecurityRequirement{{BearerScheme: {}}}
}
