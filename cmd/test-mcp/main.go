// Command test-mcp starts the medi-plus MCP server binary and runs a few
// utterances through it.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"medi-plus/internal/mcpserver"
)

var probes = []string{
	"hello",
	"my dad has chest pain",
	"she is not breathing",
	"I am worried about my son",
	"qwerty",
}

func main() {
	serverPath := "./bin/medibot-mcp-server"
	if p := os.Getenv("MEDIBOT_MCP_SERVER_PATH"); p != "" {
		serverPath = p
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := mcpserver.NewClient("test")
	if err := c.Connect(ctx, serverPath); err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	ids, err := c.Rules(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rules: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d rules: %v\n\n", len(ids), ids)

	for _, u := range probes {
		text, rule, err := c.Respond(ctx, u)
		if err != nil {
			fmt.Fprintf(os.Stderr, "respond %q: %v\n", u, err)
			os.Exit(1)
		}
		fmt.Printf("> %s\n%s\n%s\n\n", u, rule, text)
	}
}
