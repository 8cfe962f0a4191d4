package server

import "github.com/palemoky/catch-the-ten/internal/protocol"

// GetOnlineCount 获取在线人数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// BroadcastToLobby 广播消息给未加入任何房间的客户端
func (s *Server) BroadcastToLobby(msg *protocol.Message) {
	for _, client := range s.snapshotClients() {
		if len(client.Rooms()) == 0 {
			client.SendMessage(msg)
		}
	}
}

// snapshotClients 复制连接列表，发送时不持有 clientsMu
func (s *Server) snapshotClients() []*Client {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	return clients
}
