package repository

import (
	"gorm.io/gorm"
)

// TxRunner wraps gorm transactions so each order-engine operation can run
// as one atomic unit without services touching gorm directly.
type TxRunner interface {
	Transact(fn func(tx *gorm.DB) error) error
}

type txRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) TxRunner {
	return &txRunner{db: db}
}

func (r *txRunner) Transact(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}
