package ws

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/cryptopay-backend/internal/goroutine"
	"github.com/ignatzorin/cryptopay-backend/internal/logger"
)

// Notifier доставляет события заявок владельцу через Hub.
// Отправка асинхронная: ошибка доставки не влияет на операцию.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) Notify(_ context.Context, userID uuid.UUID, name string, data any) {
	goroutine.SafeGo(func() {
		if err := n.hub.BroadcastToUser(userID, name, data); err != nil {
			logger.WithFields(logrus.Fields{
				"user_id": userID,
				"event":   name,
				"error":   err.Error(),
			}).Warn("Failed to push notification")
		}
	})
}
