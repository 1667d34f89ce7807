// ABOUTME: MCP server subcommand
// ABOUTME: Serves the procurement tools over stdio
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/handlers"
)

// MCPCommand starts the MCP server on stdio, acting as the configured identity
func MCPCommand(a *app.App, version string) error {
	id, err := a.Identity()
	if err != nil {
		return err
	}

	a.Log.WithField("role", id.Role).Info("starting MCP server")

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "naova",
		Version: version,
	}, nil)
	handlers.Register(server, handlers.New(a, id))

	return server.Run(context.Background(), &mcp.StdioTransport{})
}
