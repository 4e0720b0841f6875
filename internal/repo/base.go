package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is the shared foundation embedded by the domain repositories. It owns
// the GORM connection and the context binding so each repository only writes
// its queries.
type Base struct {
	conn *gorm.DB
}

// NewBase wraps a GORM connection for embedding.
func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB returns the connection bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}

// With rebinds the base to another connection, typically a transaction
// handle, leaving the original untouched.
func (b Base) With(conn *gorm.DB) Base {
	return Base{conn: conn}
}
