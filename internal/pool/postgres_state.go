package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veilmix/privpool/internal/merkle"
	"github.com/veilmix/privpool/pkg/field"
)

// poolStateSchema is the table this store expects to exist; migrations are an
// operator concern, mirroring internal/runtime.PostgresStore's own note.
//
//	CREATE TABLE pool_state (
//	    id                  SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
//	    denomination        BIGINT NOT NULL,
//	    authority           BYTEA NOT NULL,
//	    verifying_key_bytes BYTEA NOT NULL,
//	    filled_subtrees     BYTEA NOT NULL,
//	    zeros               BYTEA NOT NULL,
//	    next_index          BIGINT NOT NULL,
//	    current_root_index  INTEGER NOT NULL,
//	    roots               BYTEA NOT NULL,
//	    migrated_to_vault   BOOLEAN NOT NULL DEFAULT FALSE
//	);
const poolStateSchema = `pool_state (id, denomination, authority, verifying_key_bytes, filled_subtrees, zeros, next_index, current_root_index, roots, migrated_to_vault)`

// postgresStateRowID is the singleton row's fixed primary key, matching
// the "one pool-state record per pool" invariant of spec.md §3.
const postgresStateRowID = 1

// PostgresStateStore persists the singleton pool-state record, including
// the full Merkle accumulator, in the deterministic flat layout spec.md §6
// requires for round-tripping across upgrades.
type PostgresStateStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStateStore wraps an already-connected pgx pool. The pool is
// shared with internal/runtime.PostgresStore's account ledger in normal
// deployment; this store only ever touches the pool_state table.
func NewPostgresStateStore(pool *pgxpool.Pool) *PostgresStateStore {
	return &PostgresStateStore{pool: pool}
}

// Exists implements StateStore.
func (s *PostgresStateStore) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM pool_state WHERE id = $1)`, postgresStateRowID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pool: state exists: %w", err)
	}
	return exists, nil
}

// Get implements StateStore.
func (s *PostgresStateStore) Get(ctx context.Context) (*State, error) {
	var (
		denomination    int64
		authority       []byte
		vkBytes         []byte
		filledSubtrees  []byte
		zeros           []byte
		nextIndex       int64
		currentRootIdx  int32
		roots           []byte
		migratedToVault bool
	)

	err := s.pool.QueryRow(ctx,
		`SELECT denomination, authority, verifying_key_bytes, filled_subtrees, zeros,
		        next_index, current_root_index, roots, migrated_to_vault
		   FROM pool_state WHERE id = $1`,
		postgresStateRowID,
	).Scan(&denomination, &authority, &vkBytes, &filledSubtrees, &zeros,
		&nextIndex, &currentRootIdx, &roots, &migratedToVault)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pool: get state: %w", err)
	}

	tree, err := decodeTree(filledSubtrees, zeros, nextIndex, currentRootIdx, roots)
	if err != nil {
		return nil, err
	}

	st := &State{
		Denomination:      uint64(denomination),
		VerifyingKeyBytes: vkBytes,
		Tree:              tree,
		MigratedToVault:   migratedToVault,
	}
	copy(st.Authority[:], authority)
	return st, nil
}

// Save implements StateStore: an upsert on the singleton row.
func (s *PostgresStateStore) Save(ctx context.Context, st *State) error {
	filledSubtrees, zeros, roots := encodeTree(st.Tree)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO pool_state (
			id, denomination, authority, verifying_key_bytes, filled_subtrees, zeros,
			next_index, current_root_index, roots, migrated_to_vault
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			denomination        = EXCLUDED.denomination,
			authority           = EXCLUDED.authority,
			verifying_key_bytes = EXCLUDED.verifying_key_bytes,
			filled_subtrees     = EXCLUDED.filled_subtrees,
			zeros               = EXCLUDED.zeros,
			next_index          = EXCLUDED.next_index,
			current_root_index  = EXCLUDED.current_root_index,
			roots               = EXCLUDED.roots,
			migrated_to_vault   = EXCLUDED.migrated_to_vault
		`,
		postgresStateRowID, int64(st.Denomination), st.Authority.Bytes(), st.VerifyingKeyBytes,
		filledSubtrees, zeros, int64(st.Tree.NextIndex), int32(st.Tree.CurrentRootIdx), roots,
		st.MigratedToVault,
	)
	if err != nil {
		return fmt.Errorf("pool: save state: %w", err)
	}
	return nil
}

// encodeTree flattens the three fixed-size field-element arrays into
// contiguous byte blobs: Depth*field.Size for the subtree/zero arrays,
// RootHistorySize*field.Size for the root ring buffer.
func encodeTree(t *merkle.Tree) (filledSubtrees, zeros, roots []byte) {
	filledSubtrees = make([]byte, 0, merkle.Depth*field.Size)
	zeros = make([]byte, 0, merkle.Depth*field.Size)
	for i := 0; i < merkle.Depth; i++ {
		filledSubtrees = append(filledSubtrees, t.FilledSubtrees[i][:]...)
		zeros = append(zeros, t.Zeros[i][:]...)
	}
	roots = make([]byte, 0, merkle.RootHistorySize*field.Size)
	for i := 0; i < merkle.RootHistorySize; i++ {
		roots = append(roots, t.Roots[i][:]...)
	}
	return filledSubtrees, zeros, roots
}

func decodeTree(filledSubtreesRaw, zerosRaw []byte, nextIndex int64, currentRootIdx int32, rootsRaw []byte) (*merkle.Tree, error) {
	if len(filledSubtreesRaw) != merkle.Depth*field.Size {
		return nil, fmt.Errorf("pool: corrupt filled_subtrees length %d", len(filledSubtreesRaw))
	}
	if len(zerosRaw) != merkle.Depth*field.Size {
		return nil, fmt.Errorf("pool: corrupt zeros length %d", len(zerosRaw))
	}
	if len(rootsRaw) != merkle.RootHistorySize*field.Size {
		return nil, fmt.Errorf("pool: corrupt roots length %d", len(rootsRaw))
	}

	t := &merkle.Tree{
		NextIndex:      uint64(nextIndex),
		CurrentRootIdx: uint32(currentRootIdx),
	}
	for i := 0; i < merkle.Depth; i++ {
		copy(t.FilledSubtrees[i][:], filledSubtreesRaw[i*field.Size:(i+1)*field.Size])
		copy(t.Zeros[i][:], zerosRaw[i*field.Size:(i+1)*field.Size])
	}
	for i := 0; i < merkle.RootHistorySize; i++ {
		copy(t.Roots[i][:], rootsRaw[i*field.Size:(i+1)*field.Size])
	}
	return t, nil
}
