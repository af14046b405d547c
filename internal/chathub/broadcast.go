package chathub

import (
	"campusnet/backend/internal/models"
	"log"
	"sort"
)

func (m *ManagerService) onlineIDs() []string {
	ids := make([]string, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// broadcastOnline sends the current roster to every attached transport.
// Transports that cannot take it right now are dropped afterwards, which
// triggers a fresh broadcast without them.
func (m *ManagerService) broadcastOnline() {
	event := models.OnlineUsersEvent(m.onlineIDs())

	var slow []string
	for sessionID, client := range m.clients {
		select {
		case client.GetSendChannel() <- event:
		default:
			slow = append(slow, sessionID)
		}
	}

	for _, sessionID := range slow {
		log.Printf("WARNING: Dropping session %s, roster broadcast would block", sessionID)
		m.detach(sessionID)
	}
}
