package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func realizedLine(code, desc, amount, orderRef, date string) string {
	return code + "\t" + desc + "\t" + amount + "\tCLP\t" + orderRef + "\t" + date + "\n"
}

func TestImportRealized(t *testing.T) {
	store := newFakeStore()
	store.addProject("LCP-130109", "Building A")
	engine := New(store, zerolog.Nop())

	file := "Header line\n" +
		realizedLine("LCP-130109-01", "Concrete", "5.000,00", "OC-1", "01.01.2025") +
		realizedLine("LCP-130109-02", "Steel", "7.500,50", "OC-2", "02.01.2025")

	res, err := engine.ImportRealized(context.Background(), strings.NewReader(file))
	if err != nil {
		t.Fatalf("ImportRealized failed: %v", err)
	}

	if res.RowsParsed != 2 {
		t.Errorf("RowsParsed = %d, want 2", res.RowsParsed)
	}
	if res.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", res.Inserted)
	}
	if res.BatchesCommitted != 1 {
		t.Errorf("BatchesCommitted = %d, want 1", res.BatchesCommitted)
	}
	if len(store.realized) != 2 {
		t.Fatalf("stored %d rows, want 2", len(store.realized))
	}

	row := store.realized[0]
	if row.Description != "Concrete" || row.Amount.String() != "5000" || row.OrderRef != "OC-1" {
		t.Errorf("unexpected first row: %+v", row)
	}
	if row.OrderDate == nil {
		t.Error("OrderDate not parsed")
	}
}

func TestImportRealizedIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addProject("LCP-130109", "Building A")
	engine := New(store, zerolog.Nop())
	ctx := context.Background()

	file := realizedLine("LCP-130109-01", "Concrete", "5.000,00", "OC-1", "01.01.2025")

	if _, err := engine.ImportRealized(ctx, strings.NewReader(file)); err != nil {
		t.Fatalf("first import: %v", err)
	}
	res, err := engine.ImportRealized(ctx, strings.NewReader(file))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}

	if res.Inserted != 0 {
		t.Errorf("second run Inserted = %d, want 0", res.Inserted)
	}
	if len(store.realized) != 1 {
		t.Errorf("stored %d rows after re-import, want 1", len(store.realized))
	}
}

func TestImportRealizedAmountFormatInsensitive(t *testing.T) {
	// A stored 5.000,00 suppresses a later bare 5000: identity compares
	// canonical amounts, not raw strings.
	store := newFakeStore()
	store.addProject("LCP-130109", "Building A")
	engine := New(store, zerolog.Nop())
	ctx := context.Background()

	if _, err := engine.ImportRealized(ctx, strings.NewReader(
		realizedLine("LCP-130109-01", "Concrete", "5.000,00", "OC-1", "01.01.2025"))); err != nil {
		t.Fatalf("first import: %v", err)
	}
	res, err := engine.ImportRealized(ctx, strings.NewReader(
		realizedLine("LCP-130109-01", "Concrete", "5000", "OC-9", "05.05.2025")))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if res.Inserted != 0 {
		t.Errorf("Inserted = %d, want 0", res.Inserted)
	}
}

func TestImportRealizedUnmatchedProjectDropped(t *testing.T) {
	store := newFakeStore()
	store.addProject("LCP-130109", "Building A")
	engine := New(store, zerolog.Nop())

	file := realizedLine("LCP-130109-01", "Concrete", "5.000,00", "OC-1", "01.01.2025") +
		realizedLine("LCP-999999-01", "Orphan A", "1.000,00", "OC-2", "01.01.2025") +
		realizedLine("LCP-999999-02", "Orphan B", "2.000,00", "OC-3", "01.01.2025")

	res, err := engine.ImportRealized(context.Background(), strings.NewReader(file))
	if err != nil {
		t.Fatalf("ImportRealized failed: %v", err)
	}
	if res.ProjectsMissing != 2 {
		t.Errorf("ProjectsMissing = %d, want 2", res.ProjectsMissing)
	}
	if res.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", res.Inserted)
	}
	for _, row := range store.realized {
		if row.ProjectID != 1 {
			t.Errorf("row for unknown project stored: %+v", row)
		}
	}
}

func TestImportRealizedInFileDuplicatesKept(t *testing.T) {
	// Two identical lines in the same export are distinct cost events: both
	// insert, and the counter flags the repetition.
	store := newFakeStore()
	store.addProject("LCP-130109", "Building A")
	engine := New(store, zerolog.Nop())

	line := realizedLine("LCP-130109-01", "Concrete", "5.000,00", "OC-1", "01.01.2025")
	res, err := engine.ImportRealized(context.Background(), strings.NewReader(line+line))
	if err != nil {
		t.Fatalf("ImportRealized failed: %v", err)
	}

	if res.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", res.Inserted)
	}
	if res.DuplicatesInFile != 1 {
		t.Errorf("DuplicatesInFile = %d, want 1", res.DuplicatesInFile)
	}
}

func TestImportRealizedBatching(t *testing.T) {
	store := newFakeStore()
	store.addProject("LCP-130109", "Building A")
	engine := New(store, zerolog.Nop())

	var sb strings.Builder
	for i := 0; i < insertBatchSize+1; i++ {
		sb.WriteString(realizedLine("LCP-130109-01", fmt.Sprintf("Item %d", i), "1,00", fmt.Sprintf("OC-%d", i), "01.01.2025"))
	}

	res, err := engine.ImportRealized(context.Background(), strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("ImportRealized failed: %v", err)
	}

	if res.BatchesCommitted != 2 {
		t.Errorf("BatchesCommitted = %d, want 2", res.BatchesCommitted)
	}
	if got := store.realizedBatches; len(got) != 2 || got[0] != insertBatchSize || got[1] != 1 {
		t.Errorf("batch sizes = %v, want [%d 1]", got, insertBatchSize)
	}
	if res.Inserted != insertBatchSize+1 {
		t.Errorf("Inserted = %d, want %d", res.Inserted, insertBatchSize+1)
	}
}

func TestImportRealizedSameAmountDifferentDescription(t *testing.T) {
	store := newFakeStore()
	store.addProject("LCP-130109", "Building A")
	engine := New(store, zerolog.Nop())
	ctx := context.Background()

	if _, err := engine.ImportRealized(ctx, strings.NewReader(
		realizedLine("LCP-130109-01", "Concrete", "5.000,00", "OC-1", "01.01.2025"))); err != nil {
		t.Fatalf("first import: %v", err)
	}
	res, err := engine.ImportRealized(ctx, strings.NewReader(
		realizedLine("LCP-130109-01", "Concrete pumping", "5.000,00", "OC-1", "01.01.2025")))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	// Description participates in the identity tuple, so this is a new fact.
	if res.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", res.Inserted)
	}
}
