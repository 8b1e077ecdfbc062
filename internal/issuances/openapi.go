package issuances

import "github.com/JaimeStill/veridid/pkg/openapi"

var docs = struct {
	List   *openapi.Operation
	Find   *openapi.Operation
	Search *openapi.Operation
}{
	List: &openapi.Operation{
		Summary:     "List issuances",
		Description: "Newest first unless sort says otherwise. search matches wallet addresses.",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Wallet address search", false),
			openapi.QueryParam("sort", "string", "Comma-separated sort fields. Prefix with - for descending", false),
			openapi.QueryParam("wallet_address", "string", "Exact wallet address", false),
			openapi.QueryParam("tier", "string", "Verification tier", false),
			openapi.QueryParam("demo_mode", "boolean", "Demo issuances only, or none", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Issuance page", "IssuancePage"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get issuance",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Issuance ID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Issuance", "Issuance"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Search: &openapi.Operation{
		Summary:     "Search issuances",
		RequestBody: openapi.RequestBodyJSON("IssuanceSearchRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Issuance page", "IssuancePage"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
}

func schemas() map[string]*openapi.Schema {
	tier := &openapi.Schema{Type: "string", Enum: []any{"Initial", "Basic", "Enhanced", "Advanced"}}

	return map[string]*openapi.Schema{
		"Issuance": {
			Type:        "object",
			Description: "A published DID metadata document",
			Properties: map[string]*openapi.Schema{
				"id":                 {Type: "string", Format: "uuid"},
				"session_id":         {Type: "string", Format: "uuid"},
				"wallet_address":     {Type: "string"},
				"metadata_uri":       {Type: "string", Description: "ipfs:// URI of the metadata document"},
				"image_uri":          {Type: "string"},
				"verification_score": {Type: "integer"},
				"tier":               tier,
				"demo_mode":          {Type: "boolean"},
				"published_at":       {Type: "string", Format: "date-time"},
			},
		},
		"IssuancePage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        openapi.ArrayOf("Issuance"),
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"IssuanceSearchRequest": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"page":           {Type: "integer", Example: 1},
				"page_size":      {Type: "integer", Example: 20},
				"search":         {Type: "string"},
				"sort":           {Type: "string", Example: "-published_at"},
				"wallet_address": {Type: "string"},
				"tier":           tier,
				"demo_mode":      {Type: "boolean"},
			},
		},
	}
}
