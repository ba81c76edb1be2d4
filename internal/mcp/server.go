package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"idea-review/backend/internal/services"
	"idea-review/backend/pkg/models"
)

// Server exposes the review workflow over the MCP protocol. The transport is
// mounted behind the trusted gateway, so tool calls carry the acting user
// explicitly as arguments.
type Server struct {
	mcpServer *server.MCPServer
	reviews   services.Reviews
	workflows services.Workflows
}

func NewServer(reviews services.Reviews, workflows services.Workflows) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Idea Review",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		reviews:   reviews,
		workflows: workflows,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_active_workflow",
			mcp.WithDescription("Get the currently active review workflow and its stages"),
		),
		s.handleGetActiveWorkflow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_review_progress",
			mcp.WithDescription("Get the shaped review progress of an idea"),
			mcp.WithString("item_id", mcp.Required(), mcp.Description("The ID of the idea")),
			mcp.WithString("actor_id", mcp.Required(), mcp.Description("The ID of the viewing user")),
			mcp.WithString("role", mcp.Required(), mcp.Description("Viewer role: admin, evaluator or submitter")),
		),
		s.handleGetProgress,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"apply_transition",
			mcp.WithDescription("Apply a review action (advance, return, hold, terminal_accept, terminal_reject) to an idea"),
			mcp.WithString("item_id", mcp.Required(), mcp.Description("The ID of the idea")),
			mcp.WithString("action", mcp.Required(), mcp.Description("The transition action")),
			mcp.WithNumber("expected_state_version", mcp.Required(), mcp.Description("The state version the caller last read")),
			mcp.WithString("actor_id", mcp.Required(), mcp.Description("The ID of the acting evaluator")),
			mcp.WithString("comment", mcp.Description("Optional evaluator comment")),
		),
		s.handleApplyTransition,
	)
}

func (s *Server) handleGetActiveWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wf, err := s.workflows.Active(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load active workflow: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(wf)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	itemID, ok := args["item_id"].(string)
	if !ok || itemID == "" {
		return mcp.NewToolResultError("Missing required parameter: item_id"), nil
	}
	actorID, ok := args["actor_id"].(string)
	if !ok || actorID == "" {
		return mcp.NewToolResultError("Missing required parameter: actor_id"), nil
	}
	role, ok := args["role"].(string)
	if !ok || !models.Role(role).IsValid() {
		return mcp.NewToolResultError("Missing or unknown parameter: role"), nil
	}

	view, err := s.reviews.Progress(ctx, itemID, models.Actor{ID: actorID, Role: models.Role(role)})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load progress: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(view)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleApplyTransition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	itemID, ok := args["item_id"].(string)
	if !ok || itemID == "" {
		return mcp.NewToolResultError("Missing required parameter: item_id"), nil
	}
	action, ok := args["action"].(string)
	if !ok || action == "" {
		return mcp.NewToolResultError("Missing required parameter: action"), nil
	}
	expectedVersion, ok := args["expected_state_version"].(float64)
	if !ok {
		return mcp.NewToolResultError("Missing required parameter: expected_state_version"), nil
	}
	actorID, ok := args["actor_id"].(string)
	if !ok || actorID == "" {
		return mcp.NewToolResultError("Missing required parameter: actor_id"), nil
	}

	req := services.TransitionRequest{
		Action:               models.Action(action),
		ExpectedStateVersion: int(expectedVersion),
	}
	if comment, ok := args["comment"].(string); ok && comment != "" {
		req.Comment = &comment
	}

	result, err := s.reviews.Transition(ctx, itemID, req, models.Actor{ID: actorID, Role: models.RoleEvaluator})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to apply transition: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
