package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client talks to a medi-plus MCP server.
type Client struct {
	client  *mcp.Client
	session *mcp.ClientSession
}

func NewClient(version string) *Client {
	return &Client{client: mcp.NewClient(&mcp.Implementation{
		Name:    "medi-plus-mcp-client",
		Version: version,
	}, nil)}
}

// Connect starts the server binary at serverPath and talks to it over stdio.
func (c *Client) Connect(ctx context.Context, serverPath string) error {
	if _, err := os.Stat(serverPath); err != nil {
		return fmt.Errorf("mcp server binary: %w", err)
	}
	cmd := exec.CommandContext(ctx, serverPath)
	cmd.Env = os.Environ()
	return c.ConnectTransport(ctx, mcp.NewCommandTransport(cmd))
}

func (c *Client) ConnectTransport(ctx context.Context, t mcp.Transport) error {
	session, err := c.client.Connect(ctx, t)
	if err != nil {
		return fmt.Errorf("connect to mcp server: %w", err)
	}
	c.session = session
	return nil
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

// Respond calls the respond tool and returns the instructions and the
// rule summary line.
func (c *Client) Respond(ctx context.Context, utterance string) (text, rule string, err error) {
	parts, err := c.call(ctx, ToolRespond, map[string]any{"utterance": utterance})
	if err != nil {
		return "", "", err
	}
	if len(parts) > 0 {
		text = parts[0]
	}
	if len(parts) > 1 {
		rule = parts[1]
	}
	return text, rule, nil
}

// Rules returns the server's rule ids in priority order.
func (c *Client) Rules(ctx context.Context) ([]string, error) {
	parts, err := c.call(ctx, ToolRules, map[string]any{})
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 || parts[0] == "" {
		return nil, nil
	}
	return strings.Split(parts[0], "\n"), nil
}

func (c *Client) call(ctx context.Context, tool string, args map[string]any) ([]string, error) {
	if c.session == nil {
		return nil, errors.New("mcp session not connected")
	}
	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tool, err)
	}
	var parts []string
	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	if res.IsError {
		return nil, fmt.Errorf("%s: tool error: %s", tool, strings.Join(parts, " "))
	}
	return parts, nil
}
