package db

import (
	"database/sql/driver"
	"strings"
	"testing"
)

func TestMergeProviderEchoKeepsSettledMetadata(t *testing.T) {
	settledMetadata := `{"order_number":"ord-1","child_payment_ids":[7,8]}`
	script := &dbScript{
		responses: []*scriptResponse{
			{cols: []string{"status"}, rows: [][]driver.Value{{"completed"}}},
			{cols: paymentColumns, rows: [][]driver.Value{paymentRow("completed", settledMetadata)}},
		},
	}
	db := newScriptedDB(script)

	if err := db.MergeProviderEcho(11, map[string]string{"status": "pending"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if update := script.findExecuted("metadata = ?"); update != nil {
		t.Fatalf("expected no metadata write against a settled payment, ran %q", update.query)
	}
	if script.commits != 1 {
		t.Fatalf("expected 1 commit, got %d", script.commits)
	}
}

func TestMergeProviderEchoPendingUnderLock(t *testing.T) {
	script := &dbScript{
		responses: []*scriptResponse{
			{cols: []string{"status"}, rows: [][]driver.Value{{"pending"}}},
			{cols: paymentColumns, rows: [][]driver.Value{paymentRow("pending", "{}")}},
			{rowsAffected: 1},
		},
	}
	db := newScriptedDB(script)

	if err := db.MergeProviderEcho(11, map[string]string{"operator": "mtn"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := script.countExecuted("FOR UPDATE"); got != 1 {
		t.Fatalf("expected the row lock to be taken once, got %d", got)
	}

	update := script.findExecuted("metadata = ?")
	if update == nil {
		t.Fatal("expected a metadata update")
	}
	if !strings.Contains(update.query, "status = ?") {
		t.Fatal("expected the metadata update to keep the pending guard")
	}
	if len(update.args) != 3 {
		t.Fatalf("expected 3 bound args, got %d", len(update.args))
	}
	metadata, ok := update.args[0].(string)
	if !ok || !strings.Contains(metadata, `"operator":"mtn"`) {
		t.Fatalf("expected merged echo in metadata, got %v", update.args[0])
	}
	if script.commits != 1 {
		t.Fatalf("expected 1 commit, got %d", script.commits)
	}
}

func TestChildPaymentReferenceUniquePerLine(t *testing.T) {
	first := childPaymentReference("ref-p", 1, 3)
	second := childPaymentReference("ref-p", 2, 3)

	if first == second {
		t.Fatalf("expected distinct references for duplicate product lines, got %q twice", first)
	}
	if !strings.HasPrefix(first, "ref-p-") || !strings.HasPrefix(second, "ref-p-") {
		t.Fatalf("expected references derived from the parent, got %q and %q", first, second)
	}
}
