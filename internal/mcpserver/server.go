// Package mcpserver exposes the first-aid engine as MCP tools.
package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"medi-plus/internal/dispatch"
	"medi-plus/internal/storage"
)

const (
	ToolRespond = "first_aid_respond"
	ToolRules   = "first_aid_rules"
)

type RespondParams struct {
	Utterance string `json:"utterance" mcp:"what the user said, e.g. 'my friend is choking'"`
	SessionID string `json:"session_id,omitempty" mcp:"optional caller session id for the event log"`
}

type RulesParams struct{}

// RuleLister is the engine surface the server needs.
type RuleLister interface {
	dispatch.Responder
	Rules() []string
}

// Server holds the engine behind the MCP tool handlers.
type Server struct {
	engine RuleLister
	rec    storage.Recorder
	log    *zap.Logger
	now    func() time.Time
}

func New(engine RuleLister, rec storage.Recorder, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{engine: engine, rec: rec, log: log, now: time.Now}
}

// MCP builds an MCP server with both tools registered.
func (s *Server) MCP(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "medi-plus-mcp",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolRespond,
		Description: "Returns first-aid instructions for an utterance describing an emergency or symptom",
	}, s.Respond)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolRules,
		Description: "Lists the rule ids of the first-aid knowledge base in priority order",
	}, s.ListRules)

	return server
}

// Run serves over stdin/stdout until ctx ends or the client disconnects.
func (s *Server) Run(ctx context.Context, version string) error {
	s.log.Info("mcp server listening on stdio", zap.Strings("tools", []string{ToolRespond, ToolRules}))
	return s.MCP(version).Run(ctx, mcp.NewStdioTransport())
}

func (s *Server) Respond(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[RespondParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	reply := s.engine.Dispatch(args.Utterance)
	s.log.Debug("tool call", zap.String("tool", ToolRespond), zap.String("rule", reply.RuleID))

	if s.rec != nil {
		ev := storage.Event{
			Timestamp: s.now(),
			SessionID: args.SessionID,
			Utterance: args.Utterance,
			Response:  reply.Text,
			RuleID:    reply.RuleID,
			Fallback:  reply.Fallback,
		}
		if err := s.rec.AppendInteraction(ev); err != nil {
			s.log.Warn("record interaction", zap.Error(err))
		}
	}

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: reply.Text},
			&mcp.TextContent{Text: fmt.Sprintf("rule: %s (fallback: %t)", reply.RuleID, reply.Fallback)},
		},
	}, nil
}

func (s *Server) ListRules(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[RulesParams]) (*mcp.CallToolResultFor[any], error) {
	ids := s.engine.Rules()
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: strings.Join(ids, "\n")},
		},
	}, nil
}
