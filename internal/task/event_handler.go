package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/yomu-api/internal/events"
	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/phrazzld/yomu-api/internal/store"
)

// CaptureEventHandler implements events.EventHandler. It turns
// card.captured events for cards without a meaning into
// EnrichMeaningTasks on the queue.
type CaptureEventHandler struct {
	queue  TaskQueueWriter
	cards  store.CardStore
	dict   lexicon.Dictionary
	logger *slog.Logger
}

// NewCaptureEventHandler creates a handler that enqueues enrichment work.
func NewCaptureEventHandler(
	queue TaskQueueWriter,
	cards store.CardStore,
	dict lexicon.Dictionary,
	logger *slog.Logger,
) *CaptureEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CaptureEventHandler{
		queue:  queue,
		cards:  cards,
		dict:   dict,
		logger: logger.With(slog.String("component", "capture_event_handler")),
	}
}

// HandleEvent processes card.captured events; other types are ignored.
func (h *CaptureEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeCardCaptured {
		return nil
	}

	var payload events.CardCapturedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal payload",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.HasMeaning {
		h.logger.DebugContext(ctx, "captured card already has a meaning",
			slog.String("card_id", payload.CardID.String()))
		return nil
	}

	task, err := NewEnrichMeaningTask(payload.CardID, payload.Lemma, h.cards, h.dict, h.logger)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.queue.Enqueue(task); err != nil {
		h.logger.WarnContext(ctx, "failed to enqueue enrichment task",
			slog.String("error", err.Error()),
			slog.String("card_id", payload.CardID.String()),
			slog.String("event_id", event.ID.String()))
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	h.logger.DebugContext(ctx, "enrichment task enqueued",
		slog.String("task_id", task.ID().String()),
		slog.String("card_id", payload.CardID.String()),
		slog.String("event_id", event.ID.String()))
	return nil
}

var _ events.EventHandler = (*CaptureEventHandler)(nil)
