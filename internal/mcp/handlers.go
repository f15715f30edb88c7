package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"

	"github.com/hpungsan/stocker/internal/errors"
	"github.com/hpungsan/stocker/internal/gallery"
	"github.com/hpungsan/stocker/internal/prompt"
	"github.com/hpungsan/stocker/internal/query"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	gallery *gallery.Gallery
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(g *gallery.Gallery) *Handlers {
	return &Handlers{gallery: g}
}

// Request types for each tool

// ListRequest represents the arguments for prompt_list.
type ListRequest struct {
	Category string  `json:"category,omitempty"`
	Tag      *string `json:"tag,omitempty"`
	Query    string  `json:"query,omitempty"`
	Brief    bool    `json:"brief,omitempty"`
}

// GetRequest represents the arguments for prompt_get.
type GetRequest struct {
	ID           string `json:"id"`
	IncludeImage bool   `json:"include_image,omitempty"`
}

// SaveRequest represents the arguments for prompt_save.
type SaveRequest struct {
	ID        string   `json:"id,omitempty"`
	Title     string   `json:"title,omitempty"`
	Text      string   `json:"text"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Favorite  bool     `json:"favorite,omitempty"`
	Image     string   `json:"image,omitempty"`
	KeepImage bool     `json:"keep_image,omitempty"`
}

// IDRequest represents the arguments for prompt_delete and prompt_favorite.
type IDRequest struct {
	ID string `json:"id"`
}

// PathRequest represents the arguments for prompt_export and prompt_import.
type PathRequest struct {
	Path string `json:"path,omitempty"`
}

// Response types

// ListResponse is returned by prompt_list.
type ListResponse struct {
	Prompts []prompt.Record `json:"prompts"`
	Count   int             `json:"count"`
}

// BriefListResponse is returned by prompt_list when brief is set.
type BriefListResponse struct {
	Prompts []prompt.Summary `json:"prompts"`
	Count   int              `json:"count"`
}

// GetResponse is returned by prompt_get.
type GetResponse struct {
	prompt.Record
	Image string `json:"image,omitempty"`
}

// TagsResponse is returned by prompt_tags.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// HandleList handles the prompt_list tool.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	state := query.DefaultFilterState().WithQuery(input.Query)
	if input.Category != "" {
		state = state.WithCategory(input.Category)
	}
	if input.Tag != nil && *input.Tag != "" {
		state = state.WithTag(input.Tag)
	}

	records, err := h.gallery.VisibleFor(ctx, state)
	if err != nil {
		return errorResult(err), nil
	}

	if input.Brief {
		summaries := lo.Map(records, func(r prompt.Record, _ int) prompt.Summary {
			return r.Summarize()
		})
		return successResult(BriefListResponse{Prompts: summaries, Count: len(summaries)})
	}

	return successResult(ListResponse{Prompts: records, Count: len(records)})
}

// HandleGet handles the prompt_get tool.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	record, err := h.gallery.Get(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	out := GetResponse{Record: record}
	if input.IncludeImage && record.HasImage {
		blob, _, err := h.gallery.Image(ctx, record.ID)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return errorResult(err), nil
		}
		if blob != nil {
			out.Image = prompt.EncodeDataURI(blob)
		}
	}

	return successResult(out)
}

// HandleSave handles the prompt_save tool.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	image, err := decodeImage(input.Image)
	if err != nil {
		return errorResult(err), nil
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	result, err := h.gallery.Save(ctx, gallery.SaveInput{
		ID:        input.ID,
		Title:     input.Title,
		Text:      input.Text,
		Category:  input.Category,
		Tags:      tags,
		Favorite:  input.Favorite,
		Image:     image,
		KeepImage: input.KeepImage,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the prompt_delete tool.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.ID) == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	result, err := h.gallery.Delete(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFavorite handles the prompt_favorite tool.
func (h *Handlers) HandleFavorite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	record, err := h.gallery.ToggleFavorite(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(record)
}

// HandleTags handles the prompt_tags tool.
func (h *Handlers) HandleTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := h.gallery.Tags(ctx)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(TagsResponse{Tags: tags})
}

// HandleExport handles the prompt_export tool.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.gallery.Export(ctx, gallery.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the prompt_import tool.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.gallery.Import(ctx, gallery.ImportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// decodeImage accepts a data URI or bare base64. Empty input means no image.
func decodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "data:") {
		blob, _, err := prompt.DecodeDataURI(s)
		if err != nil {
			return nil, errors.NewInvalidRequest("image: " + err.Error())
		}
		return blob, nil
	}
	blob, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.NewInvalidRequest("image: invalid base64")
	}
	return blob, nil
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if stockerErr, ok := errors.As(err); ok {
		message := stockerErr.Message
		// Keep wrapper context such as "items[2]: ..." from fmt.Errorf
		if err != error(stockerErr) {
			message = err.Error()
		}
		errorObj := map[string]any{
			"code":    stockerErr.Code,
			"message": message,
			"status":  stockerErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if stockerErr.Code != errors.ErrInternal && stockerErr.Code != errors.ErrStorageFailure && stockerErr.Details != nil {
			errorObj["details"] = stockerErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
