// Package mcp implements a Model Context Protocol server for phonefield.
// It exposes the phonefield HTTP API as MCP tools, resources and prompts so
// AI tools can normalize and validate phone numbers through structured calls.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/phonefield/phonefield/internal/countries"
	"github.com/phonefield/phonefield/internal/phoneinput"
)

// Config holds the connection parameters for the MCP server.
type Config struct {
	// BaseURL is the phonefield server URL (e.g., "http://127.0.0.1:8095").
	BaseURL string
	// Version is reported to MCP clients.
	Version string
}

// apiClient wraps HTTP calls to the phonefield API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newClient(cfg Config) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{},
	}
}

// apiError is a non-2xx answer from the phonefield API.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("phonefield error (%d): %s", e.Status, e.Message)
}

// doJSON makes an HTTP request and decodes the JSON response into out.
func (c *apiClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(respBody))
		var envelope struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Message != "" {
			msg = envelope.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// NewServer creates a new MCP server wired to a phonefield instance.
func NewServer(cfg Config) *mcp.Server {
	client := newClient(cfg)

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "phonefield-mcp",
		Title:   "phonefield MCP Server",
		Version: version,
	}, &mcp.ServerOptions{
		Instructions: "phonefield MCP server: format, validate and normalize phone numbers " +
			"the way a phone input field does. Use reconcile_phone_input for partial input " +
			"typed under a region and set_phone_number for complete international numbers.",
	})

	registerTools(server, client)
	registerResources(server, client)
	registerPrompts(server)

	return server
}

// --- Input/Output types for tools ---

type ReconcileInput struct {
	Region string `json:"region,omitempty" jsonschema:"Two-letter region code (e.g. FR). Defaults to the server's start region"`
	Text   string `json:"text" jsonschema:"Text as typed into the field, without the dial code"`
}

type SetNumberInput struct {
	Number string `json:"number" jsonschema:"Complete number with country code (e.g. +33612345678)"`
	Region string `json:"region,omitempty" jsonschema:"Region used to parse numbers without a leading +"`
}

type ListCountriesInput struct {
	Query string `json:"query,omitempty" jsonschema:"Filter by name, region code or dial code prefix"`
}
type ListCountriesOutput struct {
	Countries []countries.Country `json:"countries"`
	Total     int                 `json:"total"`
}

type GetCountryInput struct {
	Region string `json:"region" jsonschema:"Two-letter region code"`
}

type ExampleNumberInput struct {
	Region string `json:"region" jsonschema:"Two-letter region code"`
}
type ExampleNumberOutput struct {
	Region      string `json:"region"`
	DialCode    string `json:"dial_code"`
	Placeholder string `json:"placeholder"`
}

type GetStatusInput struct{}
type GetStatusOutput struct {
	Status        string `json:"status"`
	DefaultRegion string `json:"default_region"`
	Countries     int    `json:"countries"`
	Language      string `json:"language"`
}

// --- Tool registration ---

func registerTools(s *mcp.Server, c *apiClient) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "reconcile_phone_input",
		Description: "Format partial phone input typed under a region and report whether it is a valid number",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in ReconcileInput) (*mcp.CallToolResult, phoneinput.Snapshot, error) {
		return handleReconcile(ctx, c, in)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "set_phone_number",
		Description: "Load a complete phone number, detect its region and return every formatted form",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in SetNumberInput) (*mcp.CallToolResult, phoneinput.Snapshot, error) {
		return handleSetNumber(ctx, c, in)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_countries",
		Description: "List selectable countries with dial codes, optionally filtered",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in ListCountriesInput) (*mcp.CallToolResult, ListCountriesOutput, error) {
		return handleListCountries(ctx, c, in)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_country",
		Description: "Get the name, dial code and flag of one region",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in GetCountryInput) (*mcp.CallToolResult, countries.Country, error) {
		return handleGetCountry(ctx, c, in)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "example_number",
		Description: "Get the formatted example number a phone field shows as placeholder for a region",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in ExampleNumberInput) (*mcp.CallToolResult, ExampleNumberOutput, error) {
		return handleExampleNumber(ctx, c, in)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_status",
		Description: "Get the phonefield server health status and directory settings",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in GetStatusInput) (*mcp.CallToolResult, GetStatusOutput, error) {
		return handleGetStatus(ctx, c)
	})
}

// --- Tool handlers ---

func handleReconcile(ctx context.Context, c *apiClient, in ReconcileInput) (*mcp.CallToolResult, phoneinput.Snapshot, error) {
	var out phoneinput.Snapshot
	body := map[string]any{"region": in.Region, "text": in.Text}
	if err := c.doJSON(ctx, http.MethodPost, "/api/reconcile", body, &out); err != nil {
		return nil, phoneinput.Snapshot{}, err
	}
	return nil, out, nil
}

func handleSetNumber(ctx context.Context, c *apiClient, in SetNumberInput) (*mcp.CallToolResult, phoneinput.Snapshot, error) {
	if strings.TrimSpace(in.Number) == "" {
		return nil, phoneinput.Snapshot{}, fmt.Errorf("number is required")
	}
	var out phoneinput.Snapshot
	body := map[string]any{"number": in.Number, "region": in.Region}
	if err := c.doJSON(ctx, http.MethodPost, "/api/numbers", body, &out); err != nil {
		return nil, phoneinput.Snapshot{}, err
	}
	return nil, out, nil
}

func handleListCountries(ctx context.Context, c *apiClient, in ListCountriesInput) (*mcp.CallToolResult, ListCountriesOutput, error) {
	path := "/api/countries"
	if in.Query != "" {
		path += "?q=" + url.QueryEscape(in.Query)
	}
	var resp struct {
		Items []countries.Country `json:"items"`
		Total int                 `json:"total"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, ListCountriesOutput{}, err
	}
	if resp.Items == nil {
		resp.Items = []countries.Country{}
	}
	return nil, ListCountriesOutput{Countries: resp.Items, Total: resp.Total}, nil
}

func handleGetCountry(ctx context.Context, c *apiClient, in GetCountryInput) (*mcp.CallToolResult, countries.Country, error) {
	if in.Region == "" {
		return nil, countries.Country{}, fmt.Errorf("region is required")
	}
	var out countries.Country
	if err := c.doJSON(ctx, http.MethodGet, "/api/countries/"+url.PathEscape(in.Region), nil, &out); err != nil {
		return nil, countries.Country{}, err
	}
	return nil, out, nil
}

func handleExampleNumber(ctx context.Context, c *apiClient, in ExampleNumberInput) (*mcp.CallToolResult, ExampleNumberOutput, error) {
	if in.Region == "" {
		return nil, ExampleNumberOutput{}, fmt.Errorf("region is required")
	}
	var out ExampleNumberOutput
	if err := c.doJSON(ctx, http.MethodGet, "/api/regions/"+url.PathEscape(in.Region)+"/example", nil, &out); err != nil {
		return nil, ExampleNumberOutput{}, err
	}
	return nil, out, nil
}

func handleGetStatus(ctx context.Context, c *apiClient) (*mcp.CallToolResult, GetStatusOutput, error) {
	var out GetStatusOutput
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, GetStatusOutput{Status: "unreachable"}, nil
	}
	return nil, out, nil
}

// --- Resource registration ---

func registerResources(s *mcp.Server, c *apiClient) {
	addJSONResource(s, c, &mcp.Resource{
		URI:         "phonefield://countries",
		Name:        "Country Directory",
		Description: "Every selectable country with its display name, dial code and flag",
		MIMEType:    "application/json",
	}, "/api/countries")

	addJSONResource(s, c, &mcp.Resource{
		URI:         "phonefield://health",
		Name:        "Server Health",
		Description: "phonefield server health status",
		MIMEType:    "application/json",
	}, "/health")
}

func addJSONResource(s *mcp.Server, c *apiClient, res *mcp.Resource, path string) {
	s.AddResource(res, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		var result any
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
			return nil, err
		}
		b, _ := json.MarshalIndent(result, "", "  ")
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      res.URI,
				Text:     string(b),
				MIMEType: res.MIMEType,
			}},
		}, nil
	})
}

// --- Prompt registration ---

func registerPrompts(s *mcp.Server) {
	s.AddPrompt(&mcp.Prompt{
		Name:        "normalize-numbers",
		Description: "Normalize a list of phone numbers to E.164",
		Arguments: []*mcp.PromptArgument{
			{Name: "numbers", Description: "Phone numbers, one per line", Required: true},
			{Name: "region", Description: "Region for numbers written without a country code"},
		},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		numbers := req.Params.Arguments["numbers"]
		region := req.Params.Arguments["region"]
		hint := "Numbers without a leading + belong to the server's default region."
		if region != "" {
			hint = fmt.Sprintf("Numbers without a leading + belong to region %s.", strings.ToUpper(region))
		}
		return &mcp.GetPromptResult{
			Description: "Normalize phone numbers",
			Messages: []*mcp.PromptMessage{{
				Role: "user",
				Content: &mcp.TextContent{
					Text: fmt.Sprintf(
						"Normalize these phone numbers to E.164:\n\n%s\n\n%s "+
							"Use set_phone_number for numbers starting with + and reconcile_phone_input otherwise. "+
							"Report each number's region and E.164 form, and list the ones that are not valid.",
						numbers, hint),
				},
			}},
		}, nil
	})

	s.AddPrompt(&mcp.Prompt{
		Name:        "explain-format",
		Description: "Explain how phone numbers are written in a country",
		Arguments: []*mcp.PromptArgument{
			{Name: "region", Description: "Two-letter region code", Required: true},
		},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		region := strings.ToUpper(req.Params.Arguments["region"])
		return &mcp.GetPromptResult{
			Description: "Explain phone format: " + region,
			Messages: []*mcp.PromptMessage{{
				Role: "user",
				Content: &mcp.TextContent{
					Text: fmt.Sprintf(
						"Explain how phone numbers are written in region %s. First use get_country for the "+
							"country name and dial code, then example_number for the local example. Describe "+
							"the national and international forms.", region),
				},
			}},
		}, nil
	})
}
