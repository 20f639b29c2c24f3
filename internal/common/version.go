package common

// ServiceName is reported by the MCP implementation and the version command
const ServiceName = "docsearch"

// Version is overridden at build time with -ldflags "-X github.com/hytale-docs/docsearch/internal/common.Version=..."
var Version = "0.3.0"
