package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spoilsapp/spoils-api/internal/ingredients"
)

// ResolveSubIngredientPayload is the serialized parameter set of a
// resolve_sub_ingredient task: the composite ingredient being expanded and
// its nested ingredient text.
type ResolveSubIngredientPayload struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Text         string    `json:"text"`
}

// ResolveSubIngredientHandler expands one composite ingredient's nested
// text into linked sub-ingredients. Recursion happens through the queue:
// composites found here enqueue further resolve_sub_ingredient tasks
// instead of recursing in-process, which bounds stack depth and lets the
// worker pool throttle fan-out.
type ResolveSubIngredientHandler struct {
	resolver IngredientResolver
	backoff  BackoffPolicy
	logger   *slog.Logger
}

// NewResolveSubIngredientHandler creates the resolve_sub_ingredient handler.
func NewResolveSubIngredientHandler(
	resolver IngredientResolver,
	logger *slog.Logger,
) (*ResolveSubIngredientHandler, error) {
	if resolver == nil {
		return nil, ErrNilResolver
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &ResolveSubIngredientHandler{
		resolver: resolver,
		backoff:  ExponentialBackoff{Base: 60 * time.Second, Max: time.Hour},
		logger:   logger.With("task_type", TypeResolveSubIngredient),
	}, nil
}

func (h *ResolveSubIngredientHandler) Type() string   { return TypeResolveSubIngredient }
func (h *ResolveSubIngredientHandler) IsUnique() bool { return true }
func (h *ResolveSubIngredientHandler) MaxRetries() int { return 2 }
func (h *ResolveSubIngredientHandler) Backoff(attempt int) time.Duration {
	return h.backoff.NextDelay(attempt)
}
func (h *ResolveSubIngredientHandler) Schedule() string { return "" }

// Execute splits the nested text into names and resolves each as a
// component of the parent ingredient. Nested text that yields no names
// resolves successfully with zero sub-ingredients.
func (h *ResolveSubIngredientHandler) Execute(ctx context.Context, payload json.RawMessage) error {
	var p ResolveSubIngredientPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("invalid resolve_sub_ingredient payload: %w", err)
	}
	if p.IngredientID == uuid.Nil {
		return errors.New("resolve_sub_ingredient payload has empty ingredient id")
	}

	names := ingredients.SplitList(p.Text)
	h.logger.Info("resolving sub-ingredients",
		"ingredient_id", p.IngredientID,
		"count", len(names))

	ids, err := h.resolver.ResolveForIngredient(ctx, p.IngredientID, names)
	if err != nil {
		return fmt.Errorf("failed to resolve sub-ingredients of %s: %w", p.IngredientID, err)
	}

	h.logger.Info("sub-ingredients resolved",
		"ingredient_id", p.IngredientID,
		"linked_count", len(ids))
	return nil
}

// ResolveTaskEnqueuer adapts the queue to the resolver's fan-out port: it
// enqueues resolve_sub_ingredient tasks and treats duplicate notices as
// success, since an equivalent expansion already being queued is exactly
// the desired state.
type ResolveTaskEnqueuer struct {
	Queue Enqueuer
}

// EnqueueResolve queues expansion of the given composite ingredient.
func (e *ResolveTaskEnqueuer) EnqueueResolve(ctx context.Context, ingredientID uuid.UUID, text string) error {
	_, err := e.Queue.Enqueue(ctx, TypeResolveSubIngredient, ResolveSubIngredientPayload{
		IngredientID: ingredientID,
		Text:         text,
	})
	if err != nil && !errors.Is(err, ErrDuplicateTask) {
		return err
	}
	return nil
}
