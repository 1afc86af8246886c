package indexer

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/certen/cert-registry/pkg/database"
	"github.com/certen/cert-registry/pkg/metrics"
)

// Indexer applies committed blocks to the read model.
type Indexer struct {
	client  *database.Client
	repos   *database.Repositories
	metrics *metrics.Metrics
	logger  *log.Logger

	// warm, when set, is called once per standard touched by a block, to
	// precompute that standard's latest-version view. Calls for a single
	// block run concurrently, bounded by warmConcurrency, through an
	// errgroup pool after the block's transaction has committed;
	// ApplyBlock waits for them before returning, and a warmer failure is
	// logged, not propagated. Indexer apply itself stays strictly
	// sequential and authoritative; caches are best-effort.
	warm            func(ctx context.Context, standardID string) error
	warmConcurrency int
}

// New constructs an Indexer. m may be nil in tests.
func New(client *database.Client, repos *database.Repositories, m *metrics.Metrics, logger *log.Logger) *Indexer {
	if logger == nil {
		logger = log.New(log.Writer(), "[indexer] ", log.LstdFlags)
	}
	return &Indexer{client: client, repos: repos, metrics: m, logger: logger}
}

// WithCacheWarmer attaches a post-commit cache-warming callback, called
// once per standard touched by a block through a worker pool bounded to
// concurrency goroutines, kept strictly separate from the sequential,
// authoritative per-block apply path. concurrency <= 0 defaults to 4.
func (ix *Indexer) WithCacheWarmer(warm func(ctx context.Context, standardID string) error, concurrency int) *Indexer {
	ix.warm = warm
	ix.warmConcurrency = concurrency
	return ix
}

// ApplyBlock applies one committed block to the read model inside a
// single relational transaction. Duplicate blocks are a
// no-op; a block at a known height with a different block_id triggers
// a fork rewind before the new block's operations are applied.
func (ix *Indexer) ApplyBlock(ctx context.Context, b Block) error {
	cid := uuid.New().String()

	existing, err := ix.repos.Blocks.GetBlock(ctx, b.BlockNum)
	switch {
	case err == nil && existing.BlockID == b.BlockID:
		ix.logger.Printf("[%s] block %d (%s) already applied, skipping", cid, b.BlockNum, b.BlockID)
		if ix.metrics != nil {
			ix.metrics.BlocksDuplicate.Inc()
		}
		return nil
	case err == nil:
		ix.logger.Printf("[%s] fork detected at height %d: known=%s incoming=%s", cid, b.BlockNum, existing.BlockID, b.BlockID)
	case err == database.ErrBlockNotFound:
		// no existing block at this height, ordinary apply
	default:
		return fmt.Errorf("look up block %d: %w", b.BlockNum, err)
	}
	isFork := err == nil

	tx, err := ix.client.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin block %d transaction: %w", b.BlockNum, err)
	}
	defer tx.Rollback()

	if isFork {
		if err := ix.rewind(ctx, tx, b.BlockNum); err != nil {
			return fmt.Errorf("rewind fork at %d: %w", b.BlockNum, err)
		}
		if ix.metrics != nil {
			ix.metrics.ForksDetected.Inc()
		}
	}

	if err := ix.applyOperations(ctx, tx, b); err != nil {
		return fmt.Errorf("apply block %d operations: %w", b.BlockNum, err)
	}

	if err := ix.repos.Blocks.InsertBlock(ctx, tx, b.BlockNum, b.BlockID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit block %d: %w", b.BlockNum, err)
	}
	ix.logger.Printf("[%s] applied block %d (%s)", cid, b.BlockNum, b.BlockID)

	if ix.metrics != nil {
		ix.metrics.BlocksApplied.Inc()
		ix.metrics.HeadBlockNum.Set(float64(b.BlockNum))
	}

	if ix.warm != nil {
		ix.runWarmer(ctx, b)
	}
	return nil
}

// rewind implements steps 3a-3c: delete rows opened at or
// after blockNum, reopen rows closed at or after blockNum (across every
// versioned table), then delete the blocks rows at or above blockNum.
func (ix *Indexer) rewind(ctx context.Context, tx *sql.Tx, blockNum int64) error {
	if err := ix.repos.Agents.DeleteFrom(ctx, tx, blockNum); err != nil {
		return err
	}
	if err := ix.repos.Agents.ReopenFrom(ctx, tx, blockNum); err != nil {
		return err
	}
	if err := ix.repos.Organizations.DeleteFrom(ctx, tx, blockNum); err != nil {
		return err
	}
	if err := ix.repos.Organizations.ReopenFrom(ctx, tx, blockNum); err != nil {
		return err
	}
	if err := ix.repos.Standards.DeleteFrom(ctx, tx, blockNum); err != nil {
		return err
	}
	if err := ix.repos.Standards.ReopenFrom(ctx, tx, blockNum); err != nil {
		return err
	}
	if err := ix.repos.Requests.DeleteFrom(ctx, tx, blockNum); err != nil {
		return err
	}
	if err := ix.repos.Requests.ReopenFrom(ctx, tx, blockNum); err != nil {
		return err
	}
	if err := ix.repos.Certificates.DeleteFrom(ctx, tx, blockNum); err != nil {
		return err
	}
	if err := ix.repos.Certificates.ReopenFrom(ctx, tx, blockNum); err != nil {
		return err
	}
	return ix.repos.Blocks.DeleteBlocksFrom(ctx, tx, blockNum)
}

// runWarmer fans out one warm call per distinct standard touched by b,
// bounded to warmConcurrency concurrent calls.
func (ix *Indexer) runWarmer(ctx context.Context, b Block) {
	ids := make(map[string]struct{}, len(b.Standards))
	for _, std := range b.Standards {
		ids[std.ID] = struct{}{}
	}
	if len(ids) == 0 {
		return
	}

	limit := ix.warmConcurrency
	if limit <= 0 {
		limit = 4
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for id := range ids {
		id := id
		g.Go(func() error {
			return ix.warm(gCtx, id)
		})
	}
	if err := g.Wait(); err != nil {
		ix.logger.Printf("cache warm for block %d failed (non-fatal): %v", b.BlockNum, err)
	}
}
