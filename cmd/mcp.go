package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	globalConfig "github.com/ndavydoff/music-finder/config"
	"github.com/ndavydoff/music-finder/ui/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the music MCP server using SSE",
	Long:  `Start a music MCP (Model Context Protocol) server using Server-Sent Events (SSE) transport. This allows AI agents to search and download music through a standardized protocol.`,
	Run:   mcpServer,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&globalConfig.McpPort, "port", "8080", "Port for the SSE MCP server")
	mcpCmd.Flags().StringVar(&globalConfig.McpHost, "host", "localhost", "Host for the SSE MCP server")
}

func mcpServer(_ *cobra.Command, _ []string) {
	mcpSrv := server.NewMCPServer(
		"Music Finder MCP Server",
		globalConfig.AppVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
	)

	mediaHandler := mcp.InitMcpMedia(mediaUsecase)
	mediaHandler.AddMediaTools(mcpSrv)

	sseServer := server.NewSSEServer(
		mcpSrv,
		server.WithBaseURL(fmt.Sprintf("http://%s:%s", globalConfig.McpHost, globalConfig.McpPort)),
		server.WithKeepAlive(true),
	)

	addr := fmt.Sprintf("%s:%s", globalConfig.McpHost, globalConfig.McpPort)
	logrus.Printf("Starting music MCP SSE server on %s", addr)
	logrus.Printf("SSE endpoint: http://%s:%s/sse", globalConfig.McpHost, globalConfig.McpPort)
	logrus.Printf("Message endpoint: http://%s:%s/message", globalConfig.McpHost, globalConfig.McpPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[MCP] Reception of termination signal, shutting down gracefully...")
		StopApp()
		os.Exit(0)
	}()

	if err := sseServer.Start(addr); err != nil {
		logrus.Fatalf("Failed to start SSE server: %v", err)
	}
}
