// Package dbtest opens throwaway SQLite stores for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dbfixture/internal/repositories"
)

// ShopSchema is a three-level customer, order and line item schema.
var ShopSchema = []string{
	`CREATE TABLE CUSTOMER (
		ID INTEGER PRIMARY KEY,
		NAME TEXT NOT NULL
	)`,
	`CREATE TABLE ORDERS (
		ID INTEGER PRIMARY KEY,
		CUSTOMER_ID INTEGER REFERENCES CUSTOMER(ID),
		TOTAL REAL
	)`,
	`CREATE TABLE LINE_ITEM (
		ID INTEGER PRIMARY KEY,
		ORDER_ID INTEGER NOT NULL REFERENCES ORDERS(ID),
		SKU TEXT DEFAULT 'n/a'
	)`,
}

// ShopRows fills ShopSchema. Order 9 has no customer.
var ShopRows = []string{
	`INSERT INTO CUSTOMER (ID, NAME) VALUES (1, 'ada'), (2, 'bob')`,
	`INSERT INTO ORDERS (ID, CUSTOMER_ID, TOTAL) VALUES (7, 1, 12.5), (8, 2, 3), (9, NULL, 0)`,
	`INSERT INTO LINE_ITEM (ID, ORDER_ID, SKU) VALUES (100, 7, 'pen'), (101, 7, 'ink'), (102, 8, 'cap')`,
}

// OpenSQLite returns an in-memory store after running statements, closed
// when the test ends.
func OpenSQLite(t *testing.T, statements ...string) repositories.Store {
	t.Helper()
	ctx := context.Background()

	store, err := repositories.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for _, stmt := range statements {
		_, err := store.Exec(ctx, stmt)
		require.NoError(t, err, stmt)
	}
	return store
}

// OpenShop returns a store holding the populated shop schema.
func OpenShop(t *testing.T) repositories.Store {
	t.Helper()
	return OpenSQLite(t, append(append([]string(nil), ShopSchema...), ShopRows...)...)
}
