package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/models"
	"github.com/GregMSThompson/adwise-backend/pkg/helpers"
	"github.com/GregMSThompson/adwise-backend/pkg/logger"
)

// maxToolRounds caps the number of model round trips that may request a tool
// in one turn. After the cap the model is forced to answer in plain text.
const maxToolRounds = 5

const fallbackAnswer = "I gathered the available data but could not compose a full answer. Please try rephrasing your question."

type modelClient interface {
	GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error)
}

type insightsClient interface {
	GetMetrics(ctx context.Context, wc dto.WorkspaceContext, args dto.MetricsArgs) (dto.MetricsResult, error)
	GetCampaigns(ctx context.Context, wc dto.WorkspaceContext, args dto.CampaignsArgs) (dto.CampaignsResult, error)
	GetRecommendations(ctx context.Context, wc dto.WorkspaceContext, args dto.RecommendationsArgs) (dto.RecommendationsResult, error)
	Analyze(ctx context.Context, wc dto.WorkspaceContext, args dto.AnalysisArgs) (dto.AnalysisResult, error)
}

// agentService drives the bounded tool-calling loop between the model and the
// workspace's analytics tools.
type agentService struct {
	model    modelClient
	insights insightsClient
	clockNow func() time.Time
}

func NewAgentService(model modelClient, insights insightsClient) *agentService {
	return &agentService{
		model:    model,
		insights: insights,
		clockNow: time.Now,
	}
}

// RunTurn sends the user message plus prior history to the model, executing
// requested tools until the model produces text or the round cap is reached.
func (s *agentService) RunTurn(ctx context.Context, wc dto.WorkspaceContext, history []models.ChatMessage, message string) (dto.TurnResult, error) {
	log := logger.FromContext(ctx)

	contents := historyContents(history)
	parts := []dto.VertexPart{{Text: helpers.Ptr(message)}}
	toolsUsed := []string{}
	lastText := ""

	for round := 0; round < maxToolRounds; round++ {
		resp, err := s.generate(ctx, contents, parts, dto.FunctionCallingModeAuto)
		if err != nil {
			return dto.TurnResult{}, err
		}
		if resp.Text != "" {
			lastText = resp.Text
		}
		if len(resp.ToolCalls) == 0 {
			if resp.Text == "" {
				return dto.TurnResult{Answer: fallbackAnswer, ToolsUsed: toolsUsed}, nil
			}
			return dto.TurnResult{Answer: resp.Text, ToolsUsed: toolsUsed}, nil
		}

		// Only the first requested call is honored per round.
		call := resp.ToolCalls[0]
		toolsUsed = append(toolsUsed, call.Name)
		log.Debug("executing tool", "tool", call.Name, "round", round+1)

		result := s.executeTool(ctx, wc, call)

		contents = append(contents,
			dto.VertexContent{Role: "user", Parts: parts},
			dto.VertexContent{Role: "model", Parts: []dto.VertexPart{{FunctionCall: &call}}},
		)
		parts = []dto.VertexPart{{FunctionResponse: &result}}
	}

	// The round cap is exhausted. Force a text answer with tools disabled.
	resp, err := s.generate(ctx, contents, parts, dto.FunctionCallingModeNone)
	if err == nil && resp.Text != "" {
		return dto.TurnResult{Answer: resp.Text, ToolsUsed: toolsUsed}, nil
	}
	if err != nil {
		log.Warn("final answer generation failed, using last text", "error", err)
	}
	if lastText != "" {
		return dto.TurnResult{Answer: lastText, ToolsUsed: toolsUsed}, nil
	}
	return dto.TurnResult{Answer: fallbackAnswer, ToolsUsed: toolsUsed}, nil
}

func (s *agentService) generate(ctx context.Context, contents []dto.VertexContent, parts []dto.VertexPart, mode dto.FunctionCallingMode) (dto.VertexGenerateResponse, error) {
	req := dto.VertexGenerateRequest{
		System:     systemPrompt(s.clockNow()),
		History:    contents,
		Parts:      parts,
		Tools:      toolSchemas(),
		ToolConfig: &dto.VertexToolConfig{Mode: mode},
	}
	resp, err := s.model.GenerateContent(ctx, req)
	if err == nil {
		return resp, nil
	}

	var malformed *errs.MalformedFunctionCallError
	if !errors.As(err, &malformed) {
		return dto.VertexGenerateResponse{}, err
	}

	// One retry with a stricter instruction about argument formatting.
	req.System = strictSystemPrompt(s.clockNow())
	return s.model.GenerateContent(ctx, req)
}

// executeTool never returns an error to the loop. Failures are reported back
// to the model as an error payload so it can recover or explain.
func (s *agentService) executeTool(ctx context.Context, wc dto.WorkspaceContext, call dto.VertexToolCall) dto.VertexToolResult {
	payload, err := s.dispatchTool(ctx, wc, call)
	if err != nil {
		logger.FromContext(ctx).Warn("tool execution failed", "tool", call.Name, "error", err)
		return dto.VertexToolResult{
			Name: call.Name,
			Response: map[string]any{
				"error":   toolErrorKind(err),
				"message": err.Error(),
			},
		}
	}
	return dto.VertexToolResult{Name: call.Name, Response: payload}
}

// toolErrorKind labels the failure class for the model without leaking the
// internal error type names.
func toolErrorKind(err error) string {
	switch err.(type) {
	case *errs.ValidationError:
		return "validation_error"
	case *errs.NotFoundError:
		return "not_found"
	case *errs.DatabaseError:
		return "database_error"
	case *errs.ExternalServiceError:
		return "external_service_error"
	default:
		return "tool_error"
	}
}

func (s *agentService) dispatchTool(ctx context.Context, wc dto.WorkspaceContext, call dto.VertexToolCall) (map[string]any, error) {
	switch call.Name {
	case "get_metrics":
		args, err := decodeArgs[dto.MetricsArgs](call.Args)
		if err != nil {
			return nil, err
		}
		result, err := s.insights.GetMetrics(ctx, wc, args)
		if err != nil {
			return nil, err
		}
		return toMap(result)
	case "get_campaigns":
		args, err := decodeArgs[dto.CampaignsArgs](call.Args)
		if err != nil {
			return nil, err
		}
		result, err := s.insights.GetCampaigns(ctx, wc, args)
		if err != nil {
			return nil, err
		}
		return toMap(result)
	case "get_recommendations":
		args, err := decodeArgs[dto.RecommendationsArgs](call.Args)
		if err != nil {
			return nil, err
		}
		result, err := s.insights.GetRecommendations(ctx, wc, args)
		if err != nil {
			return nil, err
		}
		return toMap(result)
	case "analyze_performance":
		args, err := decodeArgs[dto.AnalysisArgs](call.Args)
		if err != nil {
			return nil, err
		}
		result, err := s.insights.Analyze(ctx, wc, args)
		if err != nil {
			return nil, err
		}
		return toMap(result)
	default:
		return nil, fmt.Errorf("unknown tool: %s", call.Name)
	}
}

func toolSchemas() []dto.VertexTool {
	return []dto.VertexTool{
		{
			Name:        "get_metrics",
			Description: "Get aggregated advertising metrics (impressions, clicks, spend, conversions, revenue, roas, ctr, cpc, cpa) for the workspace over a date range, optionally grouped.",
			Parameters: &dto.VertexSchema{
				Type: "object",
				Properties: map[string]*dto.VertexSchema{
					"dateRange": {Type: "string", Description: "One of 7d, 30d, 90d, custom.", Enum: []string{"7d", "30d", "90d", "custom"}},
					"startDate": {Type: "string", Description: "Start date (YYYY-MM-DD) when dateRange is custom."},
					"endDate":   {Type: "string", Description: "End date (YYYY-MM-DD) when dateRange is custom."},
					"accountIds": {
						Type:        "array",
						Description: "Restrict to these connected account ids. Defaults to all.",
						Items:       &dto.VertexSchema{Type: "string"},
					},
					"groupBy": {Type: "string", Description: "Breakdown dimension.", Enum: []string{"day", "week", "month", "campaign", "platform"}},
				},
				Required: []string{"dateRange"},
			},
		},
		{
			Name:        "get_campaigns",
			Description: "List campaigns with their performance metrics over the last 30 days, sorted by a metric.",
			Parameters: &dto.VertexSchema{
				Type: "object",
				Properties: map[string]*dto.VertexSchema{
					"status":   {Type: "string", Description: "Filter by status.", Enum: []string{"all", "ACTIVE", "PAUSED", "ENDED"}},
					"platform": {Type: "string", Description: "Filter by advertising platform."},
					"sortBy":   {Type: "string", Description: "Sort metric, descending.", Enum: []string{"spend", "conversions", "roas", "cpa", "impressions"}},
					"limit":    {Type: "integer", Description: "Maximum campaigns to return. Defaults to 10."},
				},
			},
		},
		{
			Name:        "get_recommendations",
			Description: "List optimization recommendations with priority and status summaries and estimated impact.",
			Parameters: &dto.VertexSchema{
				Type: "object",
				Properties: map[string]*dto.VertexSchema{
					"status":   {Type: "string", Description: "Filter by status. Defaults to PENDING.", Enum: []string{"all", "PENDING", "APPLIED", "DISMISSED"}},
					"priority": {Type: "string", Description: "Filter by priority.", Enum: []string{"CRITICAL", "HIGH", "MEDIUM", "LOW"}},
					"type":     {Type: "string", Description: "Filter by recommendation type, e.g. budget or creative."},
					"limit":    {Type: "integer", Description: "Maximum recommendations to return. Defaults to 10."},
				},
			},
		},
		{
			Name:        "analyze_performance",
			Description: "Run a performance analysis: top_performers, underperformers, budget_efficiency, trends, or anomalies.",
			Parameters: &dto.VertexSchema{
				Type: "object",
				Properties: map[string]*dto.VertexSchema{
					"analysisType": {Type: "string", Description: "The analysis to run.", Enum: []string{"top_performers", "underperformers", "budget_efficiency", "trends", "anomalies"}},
					"metric":       {Type: "string", Description: "Ranking metric for top_performers. Defaults to roas.", Enum: []string{"roas", "ctr", "cpc", "cpa", "spend", "revenue", "conversions", "impressions", "clicks"}},
					"lookbackDays": {Type: "integer", Description: "Days of history to analyze. Defaults to 30."},
				},
				Required: []string{"analysisType"},
			},
		},
	}
}

func systemPrompt(now time.Time) string {
	return fmt.Sprintf(`You are an advertising performance analyst for this workspace. Today's date is %s.

You help with:
- Performance analysis across connected ad accounts and campaigns
- Optimization recommendations and their estimated impact
- Budget allocation and pacing
- Creative and audience insight
- Forward-looking commentary on trends
- Competitive context when the user provides it

Always prefer calling a tool over guessing at numbers. If the data returned is insufficient to answer, say so explicitly rather than estimating. Keep answers concise and grounded in the figures you retrieved.`, now.Format("January 2, 2006"))
}

func strictSystemPrompt(now time.Time) string {
	return systemPrompt(now) + `

IMPORTANT: When calling a function, every argument must be valid JSON matching the declared parameter schema exactly. Do not add undeclared arguments.`
}

// historyContents maps persisted messages to model contents. SYSTEM rows and
// empty bodies are skipped.
func historyContents(history []models.ChatMessage) []dto.VertexContent {
	out := make([]dto.VertexContent, 0, len(history))
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		var role string
		switch m.Role {
		case models.RoleUser:
			role = "user"
		case models.RoleAssistant:
			role = "model"
		default:
			continue
		}
		out = append(out, dto.VertexContent{
			Role:  role,
			Parts: []dto.VertexPart{{Text: helpers.Ptr(m.Content)}},
		})
	}
	return out
}

func decodeArgs[T any](args map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("encoding tool arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding tool arguments: %w", err)
	}
	return out, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding tool result: %w", err)
	}
	return out, nil
}
