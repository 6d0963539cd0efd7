package notifier

import (
	"context"

	"go.uber.org/zap"

	messagedomain "github.com/atelierlab/devisio/internal/message/domain"
)

// LogNotifier is the default delivery channel: it only records that a
// message was posted. Mail or webhook delivery plugs in behind the same
// interface.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) messagedomain.Notifier {
	return &LogNotifier{log: log.Named("message.notifier")}
}

func (n *LogNotifier) MessagePosted(ctx context.Context, m messagedomain.Message) {
	n.log.Info("message posted",
		zap.String("message_id", m.ID.String()),
		zap.String("project_id", m.ProjectID.String()),
		zap.String("author", m.Author),
	)
}
