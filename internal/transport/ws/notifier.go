package ws

import (
	"github.com/roomyhq/roomy/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(msg *domain.ChatMessage) {
	evt, err := NewEvent(EventTypeMessageNew, MessagePayload{ChatMessage: *msg})
	if err != nil {
		n.hub.logger.Error("ws notifier marshal", "error", err)
		return
	}
	n.hub.SendToUser(msg.ReceiverID, evt)
}
