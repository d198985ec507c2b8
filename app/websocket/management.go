package websocket

import (
	"fmt"
	"net"
)

// ManagementService exposes the hub status to the settings screen
type ManagementService struct {
	server *Server
}

// NewManagementService creates a new management service; server may be set later
func NewManagementService(server *Server) *ManagementService {
	return &ManagementService{server: server}
}

// SetServer updates the WebSocket server instance
func (s *ManagementService) SetServer(server *Server) {
	s.server = server
}

// GetStatus returns the current WebSocket server status
func (s *ManagementService) GetStatus() map[string]interface{} {
	if s.server == nil {
		return map[string]interface{}{
			"running": false,
			"error":   "Server not initialized",
		}
	}

	status := s.server.GetServerStatus()
	status["local_ips"] = getLocalIPAddresses()
	return status
}

// GetConnectedClients returns list of connected clients
func (s *ManagementService) GetConnectedClients() []map[string]interface{} {
	if s.server == nil {
		return []map[string]interface{}{}
	}
	return s.server.GetConnectedClients()
}

// DisconnectClient disconnects a specific client
func (s *ManagementService) DisconnectClient(clientID string) error {
	if s.server == nil {
		return fmt.Errorf("server not initialized")
	}
	s.server.logInfo("WebSocket: disconnecting client", clientID)
	return s.server.DisconnectClient(clientID)
}

// getLocalIPAddresses returns the IPv4 addresses companion devices can reach
func getLocalIPAddresses() []string {
	ips := []string{}

	interfaces, err := net.Interfaces()
	if err != nil {
		return ips
	}

	for _, iface := range interfaces {
		// Skip down and loopback interfaces
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ip4 := ip.To4(); ip4 != nil {
				ips = append(ips, ip4.String())
			}
		}
	}
	return ips
}
