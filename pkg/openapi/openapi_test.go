package openapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/veridid/pkg/openapi"
)

func TestNewSpec(t *testing.T) {
	spec := openapi.NewSpec("Test API", "1.0.0")

	assert.Equal(t, "3.1.0", spec.OpenAPI)
	assert.Equal(t, "Test API", spec.Info.Title)
	assert.Equal(t, "1.0.0", spec.Info.Version)
	require.NotNil(t, spec.Components)
	require.NotNil(t, spec.Paths)
}

func TestAddServer(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	spec.AddServer("/api")

	require.Len(t, spec.Servers, 1)
	assert.Equal(t, "/api", spec.Servers[0].URL)
}

func TestSetDescription(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	spec.SetDescription("A test API")

	assert.Equal(t, "A test API", spec.Info.Description)
}

func TestAddTagOnce(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	spec.AddTag("Sessions", "first")
	spec.AddTag("Sessions", "second")
	spec.AddTag("Issuances", "")

	require.Len(t, spec.Tags, 2)
	assert.Equal(t, "first", spec.Tags[0].Description)
	assert.Equal(t, "Issuances", spec.Tags[1].Name)
}

func TestAddOperation(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	get := &openapi.Operation{Summary: "Get session"}
	del := &openapi.Operation{Summary: "Delete session"}

	assert.True(t, spec.AddOperation(http.MethodGet, "/sessions/{id}", get))
	assert.True(t, spec.AddOperation(http.MethodDelete, "/sessions/{id}", del))
	assert.False(t, spec.AddOperation(http.MethodPut, "/sessions/{id}", get))
	assert.False(t, spec.AddOperation(http.MethodPatch, "/other", get))

	item := spec.Paths["/sessions/{id}"]
	require.NotNil(t, item)
	assert.Same(t, get, item.Get)
	assert.Same(t, del, item.Delete)
	assert.Nil(t, item.Post)
	assert.NotContains(t, spec.Paths, "/other")
}

func TestSchemaRef(t *testing.T) {
	assert.Equal(t, "#/components/schemas/SessionStatus", openapi.SchemaRef("SessionStatus").Ref)
}

func TestResponseRef(t *testing.T) {
	assert.Equal(t, "#/components/responses/NotFound", openapi.ResponseRef("NotFound").Ref)
}

func TestArrayOf(t *testing.T) {
	s := openapi.ArrayOf("Attribute")

	assert.Equal(t, "array", s.Type)
	require.NotNil(t, s.Items)
	assert.Equal(t, "#/components/schemas/Attribute", s.Items.Ref)
}

func TestRequestBodyJSON(t *testing.T) {
	rb := openapi.RequestBodyJSON("PublishRequest", true)

	assert.True(t, rb.Required)
	ct, ok := rb.Content["application/json"]
	require.True(t, ok, "missing application/json content type")
	assert.Equal(t, "#/components/schemas/PublishRequest", ct.Schema.Ref)
}

func TestRequestBodyBinary(t *testing.T) {
	rb := openapi.RequestBodyBinary("Camera frame", "image/png", "image/jpeg")

	assert.True(t, rb.Required)
	assert.Equal(t, "Camera frame", rb.Description)
	require.Len(t, rb.Content, 2)
	assert.Equal(t, "binary", rb.Content["image/jpeg"].Schema.Format)
}

func TestRequestBodyMultipart(t *testing.T) {
	rb := openapi.RequestBodyMultipart("file", "ID document image")

	form, ok := rb.Content["multipart/form-data"]
	require.True(t, ok)
	assert.Equal(t, []string{"file"}, form.Schema.Required)
	assert.Equal(t, "binary", form.Schema.Properties["file"].Format)
}

func TestResponseJSON(t *testing.T) {
	resp := openapi.ResponseJSON("Success", "Issuance")

	assert.Equal(t, "Success", resp.Description)
	ct, ok := resp.Content["application/json"]
	require.True(t, ok, "missing application/json content type")
	assert.Equal(t, "#/components/schemas/Issuance", ct.Schema.Ref)
}

func TestParams(t *testing.T) {
	tests := []struct {
		name     string
		param    *openapi.Parameter
		in       string
		typ      string
		format   string
		required bool
	}{
		{"path", openapi.PathParam("id", "Session ID"), "path", "string", "uuid", true},
		{"string path", openapi.StringPathParam("cid", "Content ID"), "path", "string", "", true},
		{"query", openapi.QueryParam("search", "string", "Search query", false), "query", "string", "", false},
		{"header", openapi.HeaderParam("X-Faces-Detected", "integer", "Face count"), "header", "integer", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.in, tt.param.In)
			assert.Equal(t, tt.required, tt.param.Required)
			assert.Equal(t, tt.typ, tt.param.Schema.Type)
			assert.Equal(t, tt.format, tt.param.Schema.Format)
		})
	}
}

func TestNewComponentsDefaults(t *testing.T) {
	c := openapi.NewComponents()

	for _, name := range []string{"Error", "PageRequest"} {
		assert.Contains(t, c.Schemas, name)
	}

	responses := []string{
		"BadRequest", "NotFound", "Conflict",
		"PayloadTooLarge", "UnprocessableEntity", "BadGateway",
	}
	for _, name := range responses {
		require.Contains(t, c.Responses, name)
		assert.Equal(t, "#/components/schemas/Error", c.Responses[name].Content["application/json"].Schema.Ref)
	}
}

func TestAddSchemas(t *testing.T) {
	c := openapi.NewComponents()
	c.AddSchemas(map[string]*openapi.Schema{
		"Issuance": {Type: "object"},
	})

	assert.Contains(t, c.Schemas, "Issuance")
	assert.Contains(t, c.Schemas, "PageRequest", "default schema survives")
}

func TestAddResponses(t *testing.T) {
	c := openapi.NewComponents()
	c.AddResponses(map[string]*openapi.Response{
		"Unauthorized": {Description: "Not authenticated"},
	})

	assert.Contains(t, c.Responses, "Unauthorized")
	assert.Contains(t, c.Responses, "BadRequest", "default response survives")
}

func TestMarshalJSON(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	spec.AddOperation(http.MethodGet, "/sessions/{id}", &openapi.Operation{
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Session", "SessionStatus"),
			404: openapi.ResponseRef("NotFound"),
		},
	})

	data, err := openapi.MarshalJSON(spec)
	require.NoError(t, err)

	var parsed struct {
		OpenAPI string `json:"openapi"`
		Paths   map[string]map[string]struct {
			Responses map[string]map[string]any `json:"responses"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "3.1.0", parsed.OpenAPI)
	responses := parsed.Paths["/sessions/{id}"]["get"].Responses
	assert.Contains(t, responses, "200")
	assert.Equal(t, "#/components/responses/NotFound", responses["404"]["$ref"])
}

func TestServeSpec(t *testing.T) {
	data, err := openapi.MarshalJSON(openapi.NewSpec("Test", "1.0.0"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	res := rec.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", res.Header.Get("Content-Type"))

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(body))
}

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := openapi.Config{}
	require.NoError(t, cfg.Finalize(nil))

	assert.Equal(t, "Veridid API", cfg.Title)
	assert.NotEmpty(t, cfg.Description)
}

func TestConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_TITLE", "Custom API")
	t.Setenv("TEST_DESC", "Custom desc")

	cfg := openapi.Config{}
	require.NoError(t, cfg.Finalize(&openapi.ConfigEnv{
		Title:       "TEST_TITLE",
		Description: "TEST_DESC",
	}))

	assert.Equal(t, "Custom API", cfg.Title)
	assert.Equal(t, "Custom desc", cfg.Description)
}

func TestConfigMerge(t *testing.T) {
	base := openapi.Config{Title: "Base", Description: "kept"}
	base.Merge(&openapi.Config{Title: "Overlay"})

	assert.Equal(t, "Overlay", base.Title)
	assert.Equal(t, "kept", base.Description)
}
