package sessions

import (
	"net/http"

	"github.com/JaimeStill/veridid/pkg/openapi"
)

var errorRefs = map[int]string{
	http.StatusBadRequest:            "BadRequest",
	http.StatusNotFound:              "NotFound",
	http.StatusConflict:              "Conflict",
	http.StatusRequestEntityTooLarge: "PayloadTooLarge",
	http.StatusUnprocessableEntity:   "UnprocessableEntity",
	http.StatusBadGateway:            "BadGateway",
}

// responses pairs a success response with the shared error responses for codes.
func responses(code int, ok *openapi.Response, codes ...int) map[int]*openapi.Response {
	out := map[int]*openapi.Response{code: ok}
	for _, c := range codes {
		out[c] = openapi.ResponseRef(errorRefs[c])
	}
	return out
}

func statusResponse(code int, description string, codes ...int) map[int]*openapi.Response {
	return responses(code, openapi.ResponseJSON(description, "SessionStatus"), codes...)
}

var sessionID = openapi.PathParam("id", "Session ID")

var docs = struct {
	Create         *openapi.Operation
	Status         *openapi.Operation
	Delete         *openapi.Operation
	ConnectWallet  *openapi.Operation
	UploadDocument *openapi.Operation
	Advance        *openapi.Operation
	Reenter        *openapi.Operation
	StartLiveness  *openapi.Operation
	PushFrame      *openapi.Operation
	CancelLiveness *openapi.Operation
	RetakeLiveness *openapi.Operation
	Publish        *openapi.Operation
}{
	Create: &openapi.Operation{
		Summary:   "Create session",
		Responses: statusResponse(http.StatusCreated, "Session created at the wallet step"),
	},
	Status: &openapi.Operation{
		Summary:    "Get session status",
		Parameters: []*openapi.Parameter{sessionID},
		Responses:  statusResponse(http.StatusOK, "Current session view", 400, 404),
	},
	Delete: &openapi.Operation{
		Summary:     "Delete session",
		Description: "Cancels every running task and releases the capture device.",
		Parameters:  []*openapi.Parameter{sessionID},
		Responses: responses(
			http.StatusNoContent, &openapi.Response{Description: "Session deleted"},
			400, 404,
		),
	},
	ConnectWallet: &openapi.Operation{
		Summary:     "Connect wallet",
		Parameters:  []*openapi.Parameter{sessionID},
		RequestBody: openapi.RequestBodyJSON("WalletRequest", true),
		Responses:   statusResponse(http.StatusOK, "Wallet step completed", 400, 404, 409),
	},
	UploadDocument: &openapi.Operation{
		Summary:     "Upload ID document",
		Description: "Stores the document image and starts extraction in the background.",
		Parameters:  []*openapi.Parameter{sessionID},
		RequestBody: openapi.RequestBodyMultipart("file", "PNG, JPEG, or WebP image of the ID document"),
		Responses:   statusResponse(http.StatusAccepted, "Extraction started", 400, 404, 409, 413),
	},
	Advance: &openapi.Operation{
		Summary:    "Advance to the next step",
		Parameters: []*openapi.Parameter{sessionID},
		Responses:  statusResponse(http.StatusOK, "Next step active", 400, 404, 409, 422),
	},
	Reenter: &openapi.Operation{
		Summary:     "Re-enter a reached step",
		Description: "Abandons work on the step and clears the fields it owns.",
		Parameters:  []*openapi.Parameter{sessionID},
		RequestBody: openapi.RequestBodyJSON("ReenterRequest", true),
		Responses:   statusResponse(http.StatusOK, "Step re-entered", 400, 404, 409),
	},
	StartLiveness: &openapi.Operation{
		Summary:    "Start liveness capture",
		Parameters: []*openapi.Parameter{sessionID},
		Responses:  statusResponse(http.StatusAccepted, "Capture round started", 400, 404, 409),
	},
	PushFrame: &openapi.Operation{
		Summary: "Push a camera frame",
		Parameters: []*openapi.Parameter{
			sessionID,
			openapi.HeaderParam(FacesHeader, "integer", "Face count reported by client-side detection"),
		},
		RequestBody: openapi.RequestBodyBinary("Camera frame", "image/png", "image/jpeg", "image/webp"),
		Responses:   statusResponse(http.StatusOK, "Frame accepted", 400, 404, 409, 413),
	},
	CancelLiveness: &openapi.Operation{
		Summary:    "Cancel liveness capture",
		Parameters: []*openapi.Parameter{sessionID},
		Responses:  statusResponse(http.StatusOK, "Capture cancelled and device released", 400, 404, 409),
	},
	RetakeLiveness: &openapi.Operation{
		Summary:    "Retake liveness capture",
		Parameters: []*openapi.Parameter{sessionID},
		Responses:  statusResponse(http.StatusOK, "Liveness result discarded", 400, 404, 409),
	},
	Publish: &openapi.Operation{
		Summary:     "Publish DID metadata",
		Description: "Uploads the metadata document and records the issuance. An empty body publishes verified data.",
		Parameters:  []*openapi.Parameter{sessionID},
		RequestBody: openapi.RequestBodyJSON("PublishRequest", false),
		Responses: responses(
			http.StatusOK, openapi.ResponseJSON("Metadata published", "PublishResult"),
			400, 404, 409, 422, 502,
		),
	},
}

func stepSchema() *openapi.Schema {
	return &openapi.Schema{
		Type: "string",
		Enum: []any{"wallet", "extraction", "liveness", "publish"},
	}
}

func str(description string) *openapi.Schema {
	return &openapi.Schema{Type: "string", Description: description}
}

// schemas documents the JSON bodies exchanged by the session endpoints.
func schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"WalletRequest": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"address": {Type: "string", Pattern: "^0x[0-9a-fA-F]{40}$", Example: "0xAbCdEf0123456789abcdef0123456789ABCDEF01"},
			},
			Required: []string{"address"},
		},
		"ReenterRequest": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"step": stepSchema(),
			},
			Required: []string{"step"},
		},
		"DemoData": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"first_name":      str("Given name"),
				"last_name":       str("Family name"),
				"date_of_birth":   {Type: "string", Format: "date"},
				"nationality":     str("Nationality"),
				"document_type":   str("Document type"),
				"document_number": str("Document number"),
			},
		},
		"PublishRequest": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"demo_mode": {Type: "boolean", Description: "Publish the synthetic identity instead of verified data"},
				"demo_data": openapi.SchemaRef("DemoData"),
			},
		},
		"IdentityRecord": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"wallet_address":        str("Connected wallet address"),
				"full_name":             str("Extracted full name"),
				"document_number":       str("Extracted document number"),
				"document_type":         str("Extracted document type"),
				"date_of_birth":         {Type: "string", Format: "date"},
				"gender":                str("Extracted gender"),
				"issuing_country":       str("Extracted issuing country"),
				"document_image_ref":    str("ipfs:// URI of the document image"),
				"liveness_image_ref":    str("ipfs:// URI or data URI of the liveness still"),
				"liveness_verified":     {Type: "boolean"},
				"liveness_timestamp":    {Type: "string", Format: "date-time"},
				"extracted_info":        {Type: "boolean"},
				"extraction_confidence": {Type: "number", Minimum: ptr(0), Maximum: ptr(1)},
				"raw_extraction_text":   str("Raw OCR output"),
				"verification_score":    {Type: "integer", Minimum: ptr(0), Maximum: ptr(100)},
				"metadata_uri":          str("ipfs:// URI of the published metadata"),
				"demo_data":             openapi.SchemaRef("DemoData"),
			},
		},
		"ExtractionProgress": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"phase":   {Type: "string", Enum: []any{"preparing", "extracting", "processing", "complete"}},
				"percent": {Type: "integer", Minimum: ptr(0), Maximum: ptr(100)},
			},
		},
		"ExtractionStatus": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"running":          {Type: "boolean"},
				"progress":         openapi.SchemaRef("ExtractionProgress"),
				"warning":          str("OCR failure that fell back to the sample record"),
				"fallback":         {Type: "boolean"},
				"confidence_level": {Type: "string", Enum: []any{"high", "medium", "low"}},
			},
		},
		"CaptureStatus": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"state":         {Type: "string", Enum: []any{"idle", "armed", "captured", "cancelled"}},
				"countdown":     {Type: "integer"},
				"face_detected": {Type: "boolean"},
				"strategy":      str("Face detection strategy in use"),
			},
		},
		"LivenessStatus": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"running":   {Type: "boolean"},
				"verifying": {Type: "boolean"},
				"capture":   openapi.SchemaRef("CaptureStatus"),
				"error":     str("Last capture failure"),
			},
		},
		"SessionStatus": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string", Format: "uuid"},
				"created_at":  {Type: "string", Format: "date-time"},
				"active_step": stepSchema(),
				"completed": {
					Type:                 "object",
					Description:          "Completion flag per step name",
					AdditionalProperties: &openapi.Schema{Type: "boolean"},
				},
				"record":             openapi.SchemaRef("IdentityRecord"),
				"verification_score": {Type: "integer", Minimum: ptr(0), Maximum: ptr(100)},
				"tier":               {Type: "string", Enum: []any{"Initial", "Basic", "Enhanced", "Advanced"}},
				"tier_label":         str("Display label for the tier"),
				"extraction":         openapi.SchemaRef("ExtractionStatus"),
				"liveness":           openapi.SchemaRef("LivenessStatus"),
				"publish_error":      str("Last publish failure"),
			},
		},
		"MetadataAttribute": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"trait_type": {Type: "string"},
				"value":      {Type: "string"},
			},
		},
		"MetadataDocument": {
			Type:        "object",
			Description: "Token metadata published for the DID",
			Properties: map[string]*openapi.Schema{
				"name":        {Type: "string"},
				"description": {Type: "string"},
				"image":       str("ipfs:// URI or data URI of the liveness still"),
				"attributes":  openapi.ArrayOf("MetadataAttribute"),
			},
		},
		"PublishResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"metadata_uri": str("ipfs:// URI of the published metadata"),
				"document":     openapi.SchemaRef("MetadataDocument"),
				"status":       openapi.SchemaRef("SessionStatus"),
			},
		},
	}
}

func ptr(v float64) *float64 {
	return &v
}
