package ingredients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/spoilsapp/spoils-api/internal/domain"
	"github.com/spoilsapp/spoils-api/internal/store"
)

// TaskEnqueuer schedules deferred resolution of a composite ingredient's
// nested list. Implementations must treat an already-pending resolution for
// the same ingredient as success.
type TaskEnqueuer interface {
	EnqueueResolve(ctx context.Context, ingredientID uuid.UUID, text string) error
}

// Resolver sentinel errors for constructor validation.
var (
	ErrNilIngredientStore = errors.New("ingredient store cannot be nil")
	ErrNilTaskEnqueuer    = errors.New("task enqueuer cannot be nil")
	ErrNilResolverLogger  = errors.New("logger cannot be nil")
)

// defaultMaxDepth bounds the ancestor walk of the cycle guard. Real
// ingredient compositions are shallow; anything deeper than this is a
// malformed graph and the edge is refused.
const defaultMaxDepth = 10

// Resolver maps raw ingredient names onto persisted ingredient records and
// maintains the composition graph between them. It never recurses in
// process: composite ingredients have their nested lists handed off to the
// task queue via the TaskEnqueuer.
type Resolver struct {
	store    store.IngredientStore
	enqueuer TaskEnqueuer
	logger   *slog.Logger
	maxDepth int
}

// NewResolver creates a Resolver with validated dependencies.
func NewResolver(ingredientStore store.IngredientStore, enqueuer TaskEnqueuer, logger *slog.Logger) (*Resolver, error) {
	if ingredientStore == nil {
		return nil, ErrNilIngredientStore
	}
	if enqueuer == nil {
		return nil, ErrNilTaskEnqueuer
	}
	if logger == nil {
		return nil, ErrNilResolverLogger
	}
	return &Resolver{
		store:    ingredientStore,
		enqueuer: enqueuer,
		logger:   logger.With("component", "ingredient_resolver"),
		maxDepth: defaultMaxDepth,
	}, nil
}

// ResolveForProduct resolves a product's top-level ingredient names into
// ingredient IDs. Top-level ingredients have no parent in the composition
// graph; the product's reference to them is recorded by the caller.
func (r *Resolver) ResolveForProduct(ctx context.Context, names []string) ([]uuid.UUID, error) {
	return r.resolve(ctx, uuid.Nil, names)
}

// ResolveForIngredient resolves the nested ingredient names of a composite
// ingredient, linking each resolved ingredient as a sub-ingredient of
// parentID. Edges that would close a cycle are skipped, not errors.
func (r *Resolver) ResolveForIngredient(ctx context.Context, parentID uuid.UUID, names []string) ([]uuid.UUID, error) {
	if parentID == uuid.Nil {
		return nil, fmt.Errorf("parent ingredient ID cannot be nil")
	}
	return r.resolve(ctx, parentID, names)
}

func (r *Resolver) resolve(ctx context.Context, parentID uuid.UUID, names []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(names))

	for _, raw := range names {
		name, nested := SplitComposite(raw)
		normalized := domain.NormalizeIngredientName(name)
		if normalized == "" {
			continue
		}

		ing, err := domain.NewIngredient(normalized, nested != "")
		if err != nil {
			return nil, fmt.Errorf("building ingredient %q: %w", normalized, err)
		}

		stored, err := r.store.CreateOrGet(ctx, ing)
		if err != nil {
			return nil, fmt.Errorf("storing ingredient %q: %w", normalized, err)
		}

		if parentID != uuid.Nil {
			if stored.ID == parentID {
				r.logger.Warn("skipping self-referential ingredient edge",
					"ingredient_id", stored.ID, "name", normalized)
				continue
			}

			cyclic, err := r.wouldCycle(ctx, parentID, stored.ID)
			if err != nil {
				return nil, fmt.Errorf("checking composition cycle for %q: %w", normalized, err)
			}
			if cyclic {
				r.logger.Warn("skipping ingredient edge that would close a cycle",
					"parent_id", parentID, "child_id", stored.ID, "name", normalized)
				continue
			}

			if err := r.store.LinkEdge(ctx, parentID, stored.ID); err != nil {
				return nil, fmt.Errorf("linking ingredient %q to parent: %w", normalized, err)
			}
		}

		if nested != "" && len(stored.SubIngredients) == 0 {
			if err := r.enqueuer.EnqueueResolve(ctx, stored.ID, nested); err != nil {
				return nil, fmt.Errorf("scheduling nested resolution for %q: %w", normalized, err)
			}
		}

		ids = append(ids, stored.ID)
	}

	return ids, nil
}

// wouldCycle reports whether childID is already an ancestor of parentID in
// the composition graph, walking parent edges breadth-first up to maxDepth
// levels. Hitting the depth bound is treated as a cycle: the edge is
// refused rather than risking an unbounded graph.
func (r *Resolver) wouldCycle(ctx context.Context, parentID, childID uuid.UUID) (bool, error) {
	visited := map[uuid.UUID]struct{}{parentID: {}}
	frontier := []uuid.UUID{parentID}

	for depth := 0; depth < r.maxDepth && len(frontier) > 0; depth++ {
		var next []uuid.UUID
		for _, id := range frontier {
			if id == childID {
				return true, nil
			}
			parents, err := r.store.ParentIDs(ctx, id)
			if err != nil {
				return false, err
			}
			for _, p := range parents {
				if p == childID {
					return true, nil
				}
				if _, seen := visited[p]; seen {
					continue
				}
				visited[p] = struct{}{}
				next = append(next, p)
			}
		}
		frontier = next
	}

	if len(frontier) > 0 {
		r.logger.Warn("ancestor walk exceeded depth bound, refusing edge",
			"parent_id", parentID, "child_id", childID, "max_depth", r.maxDepth)
		return true, nil
	}
	return false, nil
}
