package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/item-service/internal/domain"
)

// Repository errors. Implementations translate store-specific failures into these.
var (
	ErrNotFound        = errors.New("item not found")
	ErrUniqueViolation = errors.New("unique constraint violated")
)

const uniqueViolationCode = "23505"

// ItemRepository encapsulates item persistence. Every mutation is atomic: a
// unique violation leaves no trace of the attempted write.
type ItemRepository interface {
	Create(ctx context.Context, fields domain.ItemFields) (*domain.Item, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	Replace(ctx context.Context, id int64, fields domain.ItemFields) (*domain.Item, error)
	Patch(ctx context.Context, id int64, patch domain.ItemPatch) (*domain.Item, error)
	Delete(ctx context.Context, id int64) error
}

type itemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository instantiates the postgres-backed repository.
func NewItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &itemRepository{pool: pool}
}

const itemColumns = `id, name, description, price, available, email, special_id, created_at`

func (r *itemRepository) Create(ctx context.Context, fields domain.ItemFields) (*domain.Item, error) {
	const query = `
        INSERT INTO items (name, description, price, available, email, special_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING ` + itemColumns
	var item *domain.Item
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		item, err = scanItem(tx.QueryRow(ctx, query,
			fields.Name,
			fields.Description,
			fields.Price,
			fields.Available,
			fields.Email,
			fields.SpecialID,
		))
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	const query = `SELECT ` + itemColumns + ` FROM items WHERE id=$1`
	item, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return item, nil
}

func (r *itemRepository) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Available != nil {
		args = append(args, *filter.Available)
		clauses = append(clauses, fmt.Sprintf("available=$%d", len(args)))
	}
	if filter.PriceLT != nil {
		args = append(args, *filter.PriceLT)
		clauses = append(clauses, fmt.Sprintf("price < $%d", len(args)))
	}
	if filter.PriceGT != nil {
		args = append(args, *filter.PriceGT)
		clauses = append(clauses, fmt.Sprintf("price > $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(`(name ILIKE %s ESCAPE '\' OR description ILIKE %s ESCAPE '\')`, placeholder, placeholder))
	}

	query := fmt.Sprintf(`SELECT %s FROM items WHERE %s ORDER BY id`, itemColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

func (r *itemRepository) Replace(ctx context.Context, id int64, fields domain.ItemFields) (*domain.Item, error) {
	const query = `
        UPDATE items SET name=$1, description=$2, price=$3, available=$4, email=$5, special_id=$6
        WHERE id=$7
        RETURNING ` + itemColumns
	var item *domain.Item
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		item, err = scanItem(tx.QueryRow(ctx, query,
			fields.Name,
			fields.Description,
			fields.Price,
			fields.Available,
			fields.Email,
			fields.SpecialID,
			id,
		))
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *itemRepository) Patch(ctx context.Context, id int64, patch domain.ItemPatch) (*domain.Item, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.PriceSet {
		set("price", patch.Price)
	}
	if patch.Available != nil {
		set("available", *patch.Available)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.SpecialID != nil {
		set("special_id", *patch.SpecialID)
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE items SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), itemColumns)

	var item *domain.Item
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		item, err = scanItem(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM items WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

// inTx runs fn in a transaction that is rolled back on any error, including
// a failed commit.
func (r *itemRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return translate(err)
	}
	return translate(tx.Commit(ctx))
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var item domain.Item
	if err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.Available,
		&item.Email,
		&item.SpecialID,
		&item.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
