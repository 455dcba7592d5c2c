package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
)

// dialect builds sub-selects that are embedded into queries run by a
// queryRunner.
var dialect = goqu.Dialect("postgres")

// queryRunner is satisfied by both *goqu.Database and *goqu.TxDatabase so a
// repository can run unchanged inside or outside a transaction.
type queryRunner interface {
	From(from ...interface{}) *goqu.SelectDataset
	Insert(table interface{}) *goqu.InsertDataset
	Update(table interface{}) *goqu.UpdateDataset
	Delete(table interface{}) *goqu.DeleteDataset
}

// withTx runs fn in a transaction on db. It commits when fn returns nil and
// rolls back otherwise.
func withTx(ctx context.Context, db *goqu.Database, fn func(tx *goqu.TxDatabase) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	return tx.Wrap(func() error {
		return fn(tx)
	})
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
