package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/phonefield/phonefield/internal/config"
	"github.com/phonefield/phonefield/internal/countries"
	"github.com/phonefield/phonefield/internal/server"
	"github.com/phonefield/phonefield/internal/testutil"
)

// phonefieldAPI runs the real HTTP API over a small directory.
func phonefieldAPI(t *testing.T) *httptest.Server {
	t.Helper()
	dir, err := countries.New("en", []string{"FR", "US", "BE", "IT"})
	testutil.NoError(t, err)
	cfg := config.Default()
	cfg.Input.DefaultRegion = "FR"
	ts := httptest.NewServer(server.New(cfg, testutil.DiscardLogger(), dir).Router())
	t.Cleanup(ts.Close)
	return ts
}

func connect(t *testing.T, srv *mcp.Server) *mcp.ClientSession {
	t.Helper()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go srv.Connect(ctx, serverTransport, nil)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "v0.0.1",
	}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	testutil.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func TestNewServer(t *testing.T) {
	srv := NewServer(Config{BaseURL: "http://localhost:8095"})
	testutil.True(t, srv != nil, "server should not be nil")
}

func TestReconcile(t *testing.T) {
	c := newClient(Config{BaseURL: phonefieldAPI(t).URL})

	_, out, err := handleReconcile(context.Background(), c, ReconcileInput{Region: "FR", Text: "612345678"})
	testutil.NoError(t, err)
	testutil.True(t, out.Valid)
	testutil.Equal(t, "6 12 34 56 78", out.Display)
	testutil.Equal(t, "+33612345678", out.E164)

	_, out, err = handleReconcile(context.Background(), c, ReconcileInput{Text: "6123"})
	testutil.NoError(t, err)
	testutil.Equal(t, "FR", out.Region)
	testutil.False(t, out.Valid)
}

func TestReconcileUnknownRegion(t *testing.T) {
	c := newClient(Config{BaseURL: phonefieldAPI(t).URL})

	_, _, err := handleReconcile(context.Background(), c, ReconcileInput{Region: "DE", Text: "1"})
	testutil.ErrorContains(t, err, "phonefield error (400): unknown region")
}

func TestSetNumber(t *testing.T) {
	c := newClient(Config{BaseURL: phonefieldAPI(t).URL})

	_, out, err := handleSetNumber(context.Background(), c, SetNumberInput{Number: "+39 06 1234 5678"})
	testutil.NoError(t, err)
	testutil.Equal(t, "IT", out.Region)
	testutil.Equal(t, "0612345678", out.Raw)
	testutil.Equal(t, "+390612345678", out.E164)

	_, _, err = handleSetNumber(context.Background(), c, SetNumberInput{Number: "+33 12"})
	testutil.ErrorContains(t, err, "422")

	_, _, err = handleSetNumber(context.Background(), c, SetNumberInput{})
	testutil.ErrorContains(t, err, "number is required")
}

func TestListCountries(t *testing.T) {
	c := newClient(Config{BaseURL: phonefieldAPI(t).URL})

	_, out, err := handleListCountries(context.Background(), c, ListCountriesInput{})
	testutil.NoError(t, err)
	testutil.Equal(t, 4, out.Total)
	testutil.Equal(t, "BE", out.Countries[0].Code)

	_, out, err = handleListCountries(context.Background(), c, ListCountriesInput{Query: "+33"})
	testutil.NoError(t, err)
	testutil.SliceLen(t, out.Countries, 1)
	testutil.Equal(t, "France", out.Countries[0].Name)

	_, out, err = handleListCountries(context.Background(), c, ListCountriesInput{Query: "atlantis"})
	testutil.NoError(t, err)
	testutil.SliceLen(t, out.Countries, 0)
}

func TestGetCountry(t *testing.T) {
	c := newClient(Config{BaseURL: phonefieldAPI(t).URL})

	_, out, err := handleGetCountry(context.Background(), c, GetCountryInput{Region: "be"})
	testutil.NoError(t, err)
	testutil.Equal(t, "Belgium", out.Name)
	testutil.Equal(t, "32", out.DialCode)

	_, _, err = handleGetCountry(context.Background(), c, GetCountryInput{Region: "DE"})
	testutil.ErrorContains(t, err, "404")

	_, _, err = handleGetCountry(context.Background(), c, GetCountryInput{})
	testutil.ErrorContains(t, err, "region is required")
}

func TestExampleNumber(t *testing.T) {
	c := newClient(Config{BaseURL: phonefieldAPI(t).URL})

	_, out, err := handleExampleNumber(context.Background(), c, ExampleNumberInput{Region: "FR"})
	testutil.NoError(t, err)
	testutil.Equal(t, "1 23 45 67 89", out.Placeholder)
	testutil.Equal(t, "33", out.DialCode)
}

func TestGetStatus(t *testing.T) {
	c := newClient(Config{BaseURL: phonefieldAPI(t).URL})

	_, out, err := handleGetStatus(context.Background(), c)
	testutil.NoError(t, err)
	testutil.Equal(t, "ok", out.Status)
	testutil.Equal(t, "FR", out.DefaultRegion)
	testutil.Equal(t, 4, out.Countries)
}

func TestGetStatus_Unreachable(t *testing.T) {
	// Health endpoint unreachable → status should be "unreachable", no error
	c := newClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, out, err := handleGetStatus(context.Background(), c)
	testutil.NoError(t, err)
	testutil.Equal(t, "unreachable", out.Status)
}

func TestServerHasToolsRegistered(t *testing.T) {
	session := connect(t, NewServer(Config{BaseURL: phonefieldAPI(t).URL}))

	tools, err := session.ListTools(context.Background(), nil)
	testutil.NoError(t, err)
	testutil.Equal(t, 6, len(tools.Tools))

	toolNames := make(map[string]bool)
	for _, tool := range tools.Tools {
		toolNames[tool.Name] = true
	}
	for _, name := range []string{"reconcile_phone_input", "set_phone_number", "list_countries",
		"get_country", "example_number", "get_status"} {
		testutil.True(t, toolNames[name], name)
	}
}

func TestCallToolOverSession(t *testing.T) {
	session := connect(t, NewServer(Config{BaseURL: phonefieldAPI(t).URL}))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "reconcile_phone_input",
		Arguments: map[string]any{"region": "US", "text": "4155552671"},
	})
	testutil.NoError(t, err)
	testutil.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	testutil.NoError(t, err)
	var out struct {
		Display string `json:"display"`
		Valid   bool   `json:"valid"`
	}
	testutil.NoError(t, json.Unmarshal(raw, &out))
	testutil.Equal(t, "415-555-2671", out.Display)
	testutil.True(t, out.Valid)
}

func TestServerHasResourcesRegistered(t *testing.T) {
	session := connect(t, NewServer(Config{BaseURL: phonefieldAPI(t).URL}))

	resources, err := session.ListResources(context.Background(), nil)
	testutil.NoError(t, err)
	testutil.Equal(t, 2, len(resources.Resources))

	resourceURIs := make(map[string]bool)
	for _, r := range resources.Resources {
		resourceURIs[r.URI] = true
	}
	testutil.True(t, resourceURIs["phonefield://countries"])
	testutil.True(t, resourceURIs["phonefield://health"])

	res, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "phonefield://countries"})
	testutil.NoError(t, err)
	testutil.SliceLen(t, res.Contents, 1)
	testutil.Contains(t, res.Contents[0].Text, `"dial_code": "33"`)
}

func TestServerHasPromptsRegistered(t *testing.T) {
	session := connect(t, NewServer(Config{BaseURL: phonefieldAPI(t).URL}))

	prompts, err := session.ListPrompts(context.Background(), nil)
	testutil.NoError(t, err)
	testutil.Equal(t, 2, len(prompts.Prompts))

	got, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "normalize-numbers",
		Arguments: map[string]string{"numbers": "0612345678", "region": "fr"},
	})
	testutil.NoError(t, err)
	text, ok := got.Messages[0].Content.(*mcp.TextContent)
	testutil.True(t, ok, "prompt content should be text")
	testutil.Contains(t, text.Text, "region FR")
}

func TestAPIClientErrorHandling(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"code": 400, "message": "invalid JSON body"})
	}))
	defer ts.Close()

	c := newClient(Config{BaseURL: ts.URL})
	err := c.doJSON(context.Background(), http.MethodPost, "/api/reconcile", map[string]any{}, nil)
	testutil.ErrorContains(t, err, "invalid JSON body")
	apiErr, ok := err.(*apiError)
	testutil.True(t, ok, "expected *apiError")
	testutil.Equal(t, 400, apiErr.Status)
}

func TestAPIClientNonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := newClient(Config{BaseURL: ts.URL + "/"})
	err := c.doJSON(context.Background(), http.MethodGet, "/health", nil, nil)
	testutil.ErrorContains(t, err, "phonefield error (502): gateway down")
}

func TestAPIClientConnectionError(t *testing.T) {
	c := newClient(Config{BaseURL: "http://127.0.0.1:1"})
	err := c.doJSON(context.Background(), http.MethodGet, "/health", nil, nil)
	testutil.ErrorContains(t, err, "request failed")
}

func TestAPIClientEmptyResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()
	c := newClient(Config{BaseURL: ts.URL})

	var out map[string]any
	testutil.NoError(t, c.doJSON(context.Background(), http.MethodGet, "/test", nil, &out))
	testutil.True(t, out == nil, "nothing decoded")
}
