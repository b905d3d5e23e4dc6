package vertexclient

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/errs"
)

type Adapter struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func NewAdapter(ctx context.Context, log *slog.Logger, projectID, region, model string) (*Adapter, error) {
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		client: client,
		model:  model,
		log:    log,
	}, nil
}

func (a *Adapter) Close() error {
	err := a.client.Close()
	if err != nil && a.log != nil {
		a.log.Error("vertex adapter close failed", "error", err)
	}
	return err
}

func (a *Adapter) GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error) {
	out := dto.VertexGenerateResponse{}

	session, parts, err := a.startChat(req)
	if err != nil {
		return out, err
	}

	resp, err := session.SendMessage(ctx, parts...)
	if err != nil {
		return out, err
	}
	if malformedFunctionCall(resp) {
		return out, errs.NewMalformedFunctionCallError()
	}

	out.Raw = resp
	out.Text, out.ToolCalls = parseContentResponse(resp)
	return out, nil
}

func malformedFunctionCall(resp *genai.GenerateContentResponse) bool {
	if resp == nil {
		return false
	}
	for _, candidate := range resp.Candidates {
		if candidate.FinishReason == genai.FinishReasonMalformedFunctionCall {
			return true
		}
	}
	return false
}

// StreamContent drives the model in token-stream mode. Chunks are produced
// onto the returned channel as they arrive; both channels are closed when the
// stream ends. A failed stream delivers exactly one error.
func (a *Adapter) StreamContent(ctx context.Context, req dto.VertexGenerateRequest) (<-chan string, <-chan error) {
	chunkCh := make(chan string, 16)
	errCh := make(chan error, 1)

	session, parts, err := a.startChat(req)
	if err != nil {
		errCh <- err
		close(chunkCh)
		close(errCh)
		return chunkCh, errCh
	}

	go func() {
		defer close(chunkCh)
		defer close(errCh)

		iter := session.SendMessageStream(ctx, parts...)
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errCh <- err
				return
			}
			text, _ := parseContentResponse(resp)
			if text == "" {
				continue
			}
			select {
			case chunkCh <- text:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return chunkCh, errCh
}

func (a *Adapter) startChat(req dto.VertexGenerateRequest) (*genai.ChatSession, []genai.Part, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = a.model
	}
	if modelName == "" {
		return nil, nil, fmt.Errorf("vertex model is required")
	}

	model := a.client.GenerativeModel(modelName)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}
	if req.MaxOutputTokens != nil {
		model.SetMaxOutputTokens(*req.MaxOutputTokens)
	}
	if len(req.Tools) > 0 {
		model.Tools = toGenaiTools(req.Tools)
	}
	if req.ToolConfig != nil {
		model.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: toGenaiMode(req.ToolConfig.Mode),
			},
		}
	}

	session := model.StartChat()
	session.History = toGenaiContents(req.History)

	parts := toGenaiParts(req.Parts)
	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("vertex generate request has no content")
	}
	return session, parts, nil
}

func parseContentResponse(resp *genai.GenerateContentResponse) (string, []dto.VertexToolCall) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", nil
	}

	var text string
	var calls []dto.VertexToolCall
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			switch p := part.(type) {
			case genai.Text:
				text += string(p)
			case genai.FunctionCall:
				calls = append(calls, dto.VertexToolCall{
					Name: p.Name,
					Args: p.Args,
				})
			case *genai.FunctionCall:
				calls = append(calls, dto.VertexToolCall{
					Name: p.Name,
					Args: p.Args,
				})
			}
		}
	}

	return text, calls
}

func toGenaiContents(contents []dto.VertexContent) []*genai.Content {
	if len(contents) == 0 {
		return nil
	}
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		out = append(out, &genai.Content{
			Role:  c.Role,
			Parts: toGenaiParts(c.Parts),
		})
	}
	return out
}

func toGenaiParts(parts []dto.VertexPart) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.Text != nil:
			out = append(out, genai.Text(*p.Text))
		case p.FunctionCall != nil:
			out = append(out, genai.FunctionCall{
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			})
		case p.FunctionResponse != nil:
			out = append(out, genai.FunctionResponse{
				Name:     p.FunctionResponse.Name,
				Response: p.FunctionResponse.Response,
			})
		}
	}
	return out
}

func toGenaiMode(mode dto.FunctionCallingMode) genai.FunctionCallingMode {
	switch mode {
	case dto.FunctionCallingModeNone:
		return genai.FunctionCallingNone
	default:
		return genai.FunctionCallingAuto
	}
}

func toGenaiTools(tools []dto.VertexTool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGenaiSchema(tool.Parameters),
		})
	}

	return []*genai.Tool{
		{FunctionDeclarations: decls},
	}
}

func toGenaiSchema(schema *dto.VertexSchema) *genai.Schema {
	if schema == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        toGenaiType(schema.Type),
		Description: schema.Description,
		Enum:        schema.Enum,
		Required:    schema.Required,
	}

	if schema.Items != nil {
		out.Items = toGenaiSchema(schema.Items)
	}
	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for key, value := range schema.Properties {
			out.Properties[key] = toGenaiSchema(value)
		}
	}

	return out
}

func toGenaiType(schemaType string) genai.Type {
	switch schemaType {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
