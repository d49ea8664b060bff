package capture

import (
	"go.uber.org/zap"
)

// LogCapture forwards graph events to a zap logger at debug level.
type LogCapture struct {
	log *zap.Logger
}

// NewLogCapture creates a Capture writing structured debug entries to log.
func NewLogCapture(log *zap.Logger) *LogCapture {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogCapture{log: log}
}

func (c *LogCapture) OnGraphEvent(e Event) {
	fields := make([]zap.Field, 0, 5)
	switch e.Type {
	case EventValue:
		fields = append(fields, zap.String("counter", e.Name), zap.Int("value", e.Count))
	case EventFlush, EventClear:
		fields = append(fields, zap.Int("count", e.Count))
	case EventReserve:
		fields = append(fields,
			zap.Int64("object", e.Object),
			zap.Int("thread", e.Pos.Thread),
			zap.Int("queue", e.Pos.Queue))
	case EventDispose, EventReleaseObject:
		fields = append(fields, zap.Int64("object", e.Object))
	default:
		fields = append(fields, zap.Int("slot", e.Slot))
		if e.Object > 0 {
			fields = append(fields, zap.Int64("object", e.Object))
		}
		if e.Name != "" {
			fields = append(fields, zap.String("name", e.Name))
		}
	}
	c.log.Debug(e.Type.String(), fields...)
}
