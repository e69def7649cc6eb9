package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veilmix/privpool/pkg/types"
)

// ErrDBConnection signals a failure to establish or ping the database pool.
var ErrDBConnection = errors.New("runtime: database connection error")

// Config holds Postgres connection configuration, mirroring the shape
// every node in this lineage uses to reach its account ledger.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// DefaultConfig returns sane local-development defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		User:     "privpool",
		Password: "",
		Database: "privpool",
		SSLMode:  "disable",
		MaxConns: 20,
	}
}

// PostgresStore implements Store atop a pgx connection pool. Account
// creation races are resolved by the `accounts` table's primary key: a
// second concurrent INSERT for the same address fails, surfacing as
// ErrAccountExists, exactly mirroring the runtime's "create-if-absent"
// primitive.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool and verifies connectivity.
func NewPostgresStore(ctx context.Context, cfg *Config) (*PostgresStore, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode, cfg.MaxConns,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Pool exposes the underlying connection pool so sibling stores (the
// pool-state record, which is not a plain account) can share one pgx pool
// rather than opening a second connection to the same database.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// schema is the table this store expects to exist. Migrations are an
// operator concern; this module only issues statements against it.
//
//	CREATE TABLE accounts (
//	    address BYTEA PRIMARY KEY,
//	    balance BIGINT NOT NULL,
//	    owner BYTEA NOT NULL
//	);
const schema = `accounts (address, balance, owner)`

// CreateAccount implements Store.
func (s *PostgresStore) CreateAccount(ctx context.Context, addr types.Address, initialBalance uint64, owner types.Address) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (address, balance, owner) VALUES ($1, $2, $3)`,
		addr.Bytes(), int64(initialBalance), owner.Bytes(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAccountExists
		}
		return fmt.Errorf("runtime: create account: %w", err)
	}
	return nil
}

// AccountExists implements Store.
func (s *PostgresStore) AccountExists(ctx context.Context, addr types.Address) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE address = $1)`,
		addr.Bytes(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("runtime: account exists: %w", err)
	}
	return exists, nil
}

// Balance implements Store.
func (s *PostgresStore) Balance(ctx context.Context, addr types.Address) (uint64, error) {
	var balance int64
	err := s.pool.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE address = $1`,
		addr.Bytes(),
	).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("runtime: balance: %w", err)
	}
	return uint64(balance), nil
}

// Owner implements Store.
func (s *PostgresStore) Owner(ctx context.Context, addr types.Address) (types.Address, error) {
	var ownerBytes []byte
	err := s.pool.QueryRow(ctx,
		`SELECT owner FROM accounts WHERE address = $1`,
		addr.Bytes(),
	).Scan(&ownerBytes)
	if err == pgx.ErrNoRows {
		return types.Address{}, ErrAccountNotFound
	}
	if err != nil {
		return types.Address{}, fmt.Errorf("runtime: owner: %w", err)
	}
	return types.AddressFromBytes(ownerBytes), nil
}

// Transfer implements Store. It runs inside a transaction with the source
// row locked via SELECT ... FOR UPDATE, matching the runtime's guarantee
// that mutating transactions sharing an account are serialized.
func (s *PostgresStore) Transfer(ctx context.Context, from, to types.Address, amount uint64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("runtime: transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	var srcBalance int64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE address = $1 FOR UPDATE`,
		from.Bytes(),
	).Scan(&srcBalance)
	if err == pgx.ErrNoRows {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("runtime: transfer: %w", err)
	}
	if srcBalance < int64(amount) {
		return ErrInsufficientBalance
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE address = $2`, int64(amount), from.Bytes()); err != nil {
		return fmt.Errorf("runtime: transfer debit: %w", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE address = $2`, int64(amount), to.Bytes())
	if err != nil {
		return fmt.Errorf("runtime: transfer credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx,
			`INSERT INTO accounts (address, balance, owner) VALUES ($1, $2, $3)`,
			to.Bytes(), int64(amount), SystemOwner.Bytes(),
		); err != nil {
			return fmt.Errorf("runtime: transfer auto-create: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
