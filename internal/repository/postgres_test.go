package repository

import (
	"testing"
)

func TestPostgresOrderRepository_Create(t *testing.T) {
	// TODO: integration coverage with a throwaway database
	t.Skip("Integration test - requires database")
}

func TestPostgresOrderRepository_List(t *testing.T) {
	t.Skip("Integration test - requires database")
}

func TestPostgresLineItemRepository_MetadataRoundTrip(t *testing.T) {
	t.Skip("Integration test - requires database")
}

func TestPostgresPaymentRepository_SumByStatus(t *testing.T) {
	t.Skip("Integration test - requires database")
}

func TestSQLTransactor_NestedJoinsOuter(t *testing.T) {
	t.Skip("Integration test - requires database")
}
