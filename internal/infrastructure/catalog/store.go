package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"modernc.org/sqlite"

	"github.com/grocerai/backend/internal/domain"
)

const selectColumns = `COALESCE(productname, ''), COALESCE(price, 0), COALESCE(image_url, ''),
	COALESCE(quantity, ''), COALESCE(category, ''), COALESCE(subcategory, '')`

// SQLite's LOWER and LIKE only fold ASCII, so name lookups go through a
// Unicode-aware lower function on that driver.
const sqliteLower = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(sqliteLower, 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			return v, nil
		}
	})
}

// Store is the products table behind database/sql. Every query checks a
// connection out of the pool and releases it before returning.
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Open connects to the catalog database. driver is "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string, maxOpenConns int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var sqlDriver string
	switch driver {
	case "sqlite":
		sqlDriver = "sqlite"
	case "postgres":
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	logger.Info("catalog.connected", "driver", driver)
	return &Store{db: db, driver: driver, logger: logger}, nil
}

// Close closes the pool
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListProducts returns every product in table order.
func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.query(ctx, "SELECT "+selectColumns+" FROM products ORDER BY id")
}

// FindByNameContains returns rows whose name contains fragment, ignoring case.
func (s *Store) FindByNameContains(ctx context.Context, fragment string) ([]domain.Product, error) {
	if s.driver == "postgres" {
		q := "SELECT " + selectColumns + " FROM products WHERE productname ILIKE $1 ESCAPE '\\' ORDER BY id"
		return s.query(ctx, q, "%"+escapeLike(fragment)+"%")
	}
	pattern := "%" + escapeLike(strings.ToLower(fragment)) + "%"
	q := "SELECT " + selectColumns + " FROM products WHERE " + sqliteLower + "(productname) LIKE ? ESCAPE '\\' ORDER BY id"
	return s.query(ctx, q, pattern)
}

// FindByName returns the first row whose name equals name, ignoring case.
func (s *Store) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	lower := "LOWER"
	if s.driver != "postgres" {
		lower = sqliteLower
	}
	q := "SELECT " + selectColumns + " FROM products WHERE " + lower + "(productname) = " + lower + "(" +
		s.placeholder(1) + ") ORDER BY id LIMIT 1"
	products, err := s.query(ctx, q, name)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, domain.ErrProductNotFound
	}
	return &products[0], nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]domain.Product, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire connection: %v", domain.ErrCatalogFailure, err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogFailure, err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.Name, &p.Price, &p.ImageURL, &p.PackSize, &p.Category, &p.Subcategory); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", domain.ErrCatalogFailure, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogFailure, err)
	}
	return products, nil
}

// EnsureSchema creates the products table when it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	priceType := "REAL"
	if s.driver == "postgres" {
		idColumn = "id SERIAL PRIMARY KEY"
		priceType = "DOUBLE PRECISION"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS products (
	%s,
	productname TEXT,
	price %s,
	image_url TEXT,
	quantity TEXT,
	category TEXT,
	subcategory TEXT
)`, idColumn, priceType)

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}
	return nil
}

// ReplaceAll swaps the table contents for products in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, products []domain.Product) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}

	insert := fmt.Sprintf(
		"INSERT INTO products (productname, price, image_url, quantity, category, subcategory) VALUES (%s, %s, %s, %s, %s, %s)",
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4), s.placeholder(5), s.placeholder(6),
	)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err = stmt.ExecContext(ctx, p.Name, p.Price, p.ImageURL, p.PackSize, p.Category, p.Subcategory); err != nil {
			return fmt.Errorf("insert %q: %w", p.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("catalog.replaced", "products", len(products))
	return nil
}

func (s *Store) placeholder(n int) string {
	if s.driver == "postgres" {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
