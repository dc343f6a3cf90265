package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"testing"

	"wbsync/internal/wildberries/business/models"
	"wbsync/pkg/logger"
)

func newTestWriter(db *sql.DB, userID string) *Writer {
	w := NewWriter(db, "", userID, logger.NewLogger(io.Discard, "[test]"))
	w.placeholder = func(int) string { return "?" }
	return w
}

func TestUpsertFiltersUnknownFieldsAndTagsOwner(t *testing.T) {
	db := openTestDB(t)
	createTable(t, db, ProductPricesSchema)
	w := newTestWriter(db, "user-1")

	records := []models.Record{
		{
			"nmID":            json.Number("101"),
			"vendorCode":      "abc",
			"discount":        json.Number("15"),
			"someNewApiField": "dropped",
		},
	}
	written, err := w.Upsert(context.Background(), ProductPricesSchema, records)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if written != 1 {
		t.Fatalf("written = %d, want 1", written)
	}

	var nmID, vendorCode, owner string
	var sizes sql.NullString
	row := db.QueryRow(`SELECT "nmID", "vendorCode", "sizes", "UserID" FROM "ProductPrices"`)
	if err := row.Scan(&nmID, &vendorCode, &sizes, &owner); err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if nmID != "101" || vendorCode != "abc" || owner != "user-1" {
		t.Errorf("stored %s/%s/%s", nmID, vendorCode, owner)
	}
	if sizes.Valid {
		t.Errorf("absent field stored as %q, want NULL", sizes.String)
	}
}

func TestUpsertReplacesOnConflict(t *testing.T) {
	db := openTestDB(t)
	createTable(t, db, ProductPricesSchema)
	w := newTestWriter(db, "user-1")

	first := []models.Record{{"nmID": json.Number("101"), "discount": json.Number("10")}}
	if _, err := w.Upsert(context.Background(), ProductPricesSchema, first); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	second := []models.Record{{"nmID": json.Number("101"), "discount": json.Number("25")}}
	if _, err := w.Upsert(context.Background(), ProductPricesSchema, second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	if n := countRows(t, db, ProductPricesSchema.Name); n != 1 {
		t.Fatalf("got %d rows, want the conflict replaced in place", n)
	}
	var discount string
	if err := db.QueryRow(`SELECT "discount" FROM "ProductPrices"`).Scan(&discount); err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if discount != "25" {
		t.Errorf("discount = %s, want the fresh value", discount)
	}
}

func TestUpsertScopesByOwner(t *testing.T) {
	db := openTestDB(t)
	createTable(t, db, ProductPricesSchema)

	rec := []models.Record{{"nmID": json.Number("101"), "discount": json.Number("10")}}
	if _, err := newTestWriter(db, "user-1").Upsert(context.Background(), ProductPricesSchema, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := newTestWriter(db, "user-2").Upsert(context.Background(), ProductPricesSchema, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if n := countRows(t, db, ProductPricesSchema.Name); n != 2 {
		t.Errorf("got %d rows, want one per owner for the same natural key", n)
	}
}

func TestUpsertDeduplicatesWithinBatchLastWins(t *testing.T) {
	db := openTestDB(t)
	createTable(t, db, ProductPricesSchema)
	w := newTestWriter(db, "user-1")

	records := []models.Record{
		{"nmID": json.Number("101"), "discount": json.Number("10")},
		{"nmID": json.Number("102"), "discount": json.Number("20")},
		{"nmID": json.Number("101"), "discount": json.Number("30")},
	}
	written, err := w.Upsert(context.Background(), ProductPricesSchema, records)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if written != 2 {
		t.Fatalf("written = %d, want 2 after dedup", written)
	}

	var discount string
	if err := db.QueryRow(`SELECT "discount" FROM "ProductPrices" WHERE "nmID" = '101'`).Scan(&discount); err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if discount != "30" {
		t.Errorf("discount = %s, want the last occurrence", discount)
	}
}

func TestUpsertChunkingIsTransparent(t *testing.T) {
	db := openTestDB(t)
	createTable(t, db, ProductPricesSchema)
	w := newTestWriter(db, "user-1")
	w.chunkRows = 3

	records := make([]models.Record, 10)
	for i := range records {
		records[i] = models.Record{"nmID": json.Number(string(rune('0'+i)) + "00")}
	}
	written, err := w.Upsert(context.Background(), ProductPricesSchema, records)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if written != 10 {
		t.Errorf("written = %d, want 10", written)
	}
	if n := countRows(t, db, ProductPricesSchema.Name); n != 10 {
		t.Errorf("got %d rows, want 10 across chunks", n)
	}
}

func TestUpsertEmptyBatchIsNoOp(t *testing.T) {
	// No table is created: an empty batch must never reach the database.
	db := openTestDB(t)
	w := newTestWriter(db, "user-1")

	written, err := w.Upsert(context.Background(), ProductPricesSchema, nil)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if written != 0 {
		t.Errorf("written = %d, want 0", written)
	}
}

func TestUpsertSerializesNestedStructures(t *testing.T) {
	db := openTestDB(t)
	createTable(t, db, PromoCalendarSchema)
	w := newTestWriter(db, "user-1")

	records := []models.Record{{
		"id":   json.Number("7"),
		"name": "summer",
		"nomenclatures": []models.Record{
			{"id": json.Number("100")},
		},
		"ranging": map[string]interface{}{"position": json.Number("3")},
	}}
	if _, err := w.Upsert(context.Background(), PromoCalendarSchema, records); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	var nomenclatures, ranging string
	row := db.QueryRow(`SELECT "nomenclatures", "ranging" FROM "PromoCalendar"`)
	if err := row.Scan(&nomenclatures, &ranging); err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if nomenclatures != `[{"id":100}]` {
		t.Errorf("nomenclatures = %s", nomenclatures)
	}
	if ranging != `{"position":3}` {
		t.Errorf("ranging = %s", ranging)
	}
}

func TestUpsertCompositeKey(t *testing.T) {
	db := openTestDB(t)
	createTable(t, db, WarehousesReportSchema)
	w := newTestWriter(db, "user-1")

	records := []models.Record{
		{"barcode": "b1", "datetime": "2025-06-15T09:00:00", "quantityWarehousesFull": json.Number("5")},
		{"barcode": "b1", "datetime": "2025-06-15T10:00:00", "quantityWarehousesFull": json.Number("4")},
	}
	written, err := w.Upsert(context.Background(), WarehousesReportSchema, records)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want both snapshots kept", written)
	}
}
