package mcp

// Protocol types the JSON-RPC bridge answers itself.

// supportedProtocolVersions lists the versions echoed back on initialize, newest first.
var supportedProtocolVersions = []string{"2025-06-18", "2025-03-26", "2024-11-05"}

// InitializeParams represents the initialize request parameters
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
}

// InitializeResult represents the initialize response
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// ImplementationInfo describes the client or server implementation
type ImplementationInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerCapabilities describes server capabilities
type ServerCapabilities struct {
	Resources *ResourcesCapability `json:"resources,omitempty"`
	Tools     *ToolsCapability     `json:"tools,omitempty"`
}

// ResourcesCapability indicates server provides readable resources
type ResourcesCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ToolsCapability indicates server exposes callable tools
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

func negotiateVersion(requested string) string {
	for _, v := range supportedProtocolVersions {
		if v == requested {
			return v
		}
	}
	return supportedProtocolVersions[0]
}

func initializeResult(params InitializeParams) InitializeResult {
	return InitializeResult{
		ProtocolVersion: negotiateVersion(params.ProtocolVersion),
		Capabilities: ServerCapabilities{
			Resources: &ResourcesCapability{ListChanged: true},
			Tools:     &ToolsCapability{ListChanged: true},
		},
		ServerInfo:   ImplementationInfo{Name: serverName, Version: serverVersion},
		Instructions: serverInstructions,
	}
}
