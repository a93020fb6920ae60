package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/upland-labs/storefront/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustInsertProduct(t *testing.T, db *DB, name, price string) domain.Product {
	t.Helper()
	p := domain.Product{Name: name, Price: decimal.RequireFromString(price)}
	if err := db.InsertProduct(context.Background(), &p); err != nil {
		t.Fatalf("InsertProduct(%s) error: %v", name, err)
	}
	return p
}

// ─── Catalog ────────────────────────────────────────────────────────────────

func TestCatalog_InsertGetList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := mustInsertProduct(t, db, "Widget", "19.99")
	if p.ID == 0 {
		t.Fatal("InsertProduct did not assign an ID")
	}

	got, err := db.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct() error: %v", err)
	}
	if got.Name != "Widget" {
		t.Errorf("Name = %q, want %q", got.Name, "Widget")
	}
	if !got.Price.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("Price = %s, want 19.99", got.Price)
	}

	mustInsertProduct(t, db, "Gadget", "5.00")
	products, err := db.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts() error: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("len(products) = %d, want 2", len(products))
	}
}

func TestCatalog_GetProduct_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetProduct(context.Background(), 42); err != domain.ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSeedDefaultCatalog(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	n, err := db.SeedDefaultCatalog(ctx)
	if err != nil {
		t.Fatalf("SeedDefaultCatalog() error: %v", err)
	}
	if n == 0 {
		t.Fatal("seed inserted nothing on an empty store")
	}

	// Second run is a no-op.
	n2, err := db.SeedDefaultCatalog(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n2 != 0 {
		t.Errorf("second seed inserted %d products, want 0", n2)
	}
}

// ─── Cart ───────────────────────────────────────────────────────────────────

func TestCart_AddAccumulates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := mustInsertProduct(t, db, "Widget", "20.00")

	if err := db.AddCartItem(ctx, "s1", p.ID, 1); err != nil {
		t.Fatal(err)
	}
	if err := db.AddCartItem(ctx, "s1", p.ID, 2); err != nil {
		t.Fatal(err)
	}

	lines, err := db.ListCart(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Errorf("Quantity = %d, want 3", lines[0].Quantity)
	}
	if !lines[0].Subtotal().Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("Subtotal = %s, want 60.00", lines[0].Subtotal())
	}
}

func TestCart_SetQuantity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := mustInsertProduct(t, db, "Widget", "20.00")

	if err := db.SetCartItemQuantity(ctx, "s1", p.ID, 5); err != domain.ErrNotFound {
		t.Errorf("update of missing line = %v, want ErrNotFound", err)
	}

	if err := db.AddCartItem(ctx, "s1", p.ID, 1); err != nil {
		t.Fatal(err)
	}
	if err := db.SetCartItemQuantity(ctx, "s1", p.ID, 5); err != nil {
		t.Fatal(err)
	}
	lines, _ := db.ListCart(ctx, "s1")
	if lines[0].Quantity != 5 {
		t.Errorf("Quantity = %d, want 5", lines[0].Quantity)
	}

	// Zero deletes the line.
	if err := db.SetCartItemQuantity(ctx, "s1", p.ID, 0); err != nil {
		t.Fatal(err)
	}
	lines, _ = db.ListCart(ctx, "s1")
	if len(lines) != 0 {
		t.Errorf("len(lines) = %d, want 0 after zero quantity", len(lines))
	}
}

func TestCart_RemoveAndClear(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p1 := mustInsertProduct(t, db, "A", "1.00")
	p2 := mustInsertProduct(t, db, "B", "2.00")

	db.AddCartItem(ctx, "s1", p1.ID, 1)
	db.AddCartItem(ctx, "s1", p2.ID, 1)
	db.AddCartItem(ctx, "s2", p1.ID, 1)

	if err := db.RemoveCartItem(ctx, "s1", p1.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.RemoveCartItem(ctx, "s1", p1.ID); err != domain.ErrNotFound {
		t.Errorf("second remove = %v, want ErrNotFound", err)
	}

	if err := db.ClearCart(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	lines, _ := db.ListCart(ctx, "s1")
	if len(lines) != 0 {
		t.Errorf("s1 cart not cleared")
	}
	// Other sessions untouched.
	lines, _ = db.ListCart(ctx, "s2")
	if len(lines) != 1 {
		t.Errorf("s2 cart was affected by clearing s1")
	}
}

// ─── Wallet ─────────────────────────────────────────────────────────────────

func TestWallet_LazyCreation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	w, err := db.GetWallet(ctx, "fresh")
	if err != nil {
		t.Fatalf("GetWallet() error: %v", err)
	}
	if !w.Balance.Equal(decimal.Zero) {
		t.Errorf("Balance = %s, want 0", w.Balance)
	}

	// The wallet row now exists; a second read sees the same thing.
	w2, err := db.GetWallet(ctx, "fresh")
	if err != nil {
		t.Fatal(err)
	}
	if !w2.Balance.Equal(decimal.Zero) {
		t.Errorf("second read Balance = %s, want 0", w2.Balance)
	}
}

func TestWallet_ConditionalDebit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.EnsureWallet(ctx, db.db, "s1"); err != nil {
		t.Fatal(err)
	}
	if err := db.CreditWallet(ctx, db.db, "s1", 1000); err != nil {
		t.Fatal(err)
	}

	applied, err := db.DebitWallet(ctx, db.db, "s1", 1500)
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Error("debit of 1500 against 1000 applied, want refused")
	}

	applied, err = db.DebitWallet(ctx, db.db, "s1", 400)
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Error("debit of 400 against 1000 refused, want applied")
	}

	w, _ := db.GetWallet(ctx, "s1")
	if !w.Balance.Equal(decimal.RequireFromString("6.00")) {
		t.Errorf("Balance = %s, want 6.00", w.Balance)
	}
}

func TestWallet_Transactions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	db.EnsureWallet(ctx, db.db, "s1")
	orderID := int64(7)
	entries := []domain.WalletTransaction{
		{SessionID: "s1", Amount: decimal.RequireFromString("100.00"), Type: domain.TxDeposit},
		{SessionID: "s1", Amount: decimal.RequireFromString("-40.00"), Type: domain.TxPurchase},
		{SessionID: "s1", Amount: decimal.RequireFromString("40.00"), Type: domain.TxRefund, OrderID: &orderID},
	}
	for i := range entries {
		if err := db.InsertTransaction(ctx, db.db, &entries[i]); err != nil {
			t.Fatalf("InsertTransaction(%d) error: %v", i, err)
		}
	}

	txs, err := db.ListTransactions(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 3 {
		t.Fatalf("len(txs) = %d, want 3", len(txs))
	}
	// Newest first.
	if txs[0].Type != domain.TxRefund {
		t.Errorf("txs[0].Type = %s, want refund", txs[0].Type)
	}
	if txs[0].OrderID == nil || *txs[0].OrderID != 7 {
		t.Errorf("refund OrderID = %v, want 7", txs[0].OrderID)
	}

	sum, err := db.SumTransactions(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if sum != 10000 {
		t.Errorf("SumTransactions = %d, want 10000", sum)
	}
}

// ─── Orders ─────────────────────────────────────────────────────────────────

func TestOrders_InsertAndTransition(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	o := domain.Order{SessionID: "s1", Total: decimal.RequireFromString("40.00")}
	if err := db.InsertOrder(ctx, db.db, &o); err != nil {
		t.Fatalf("InsertOrder() error: %v", err)
	}
	if o.Status != domain.OrderPlaced {
		t.Errorf("Status = %s, want placed", o.Status)
	}

	applied, err := db.TransitionOrder(ctx, db.db, o.ID, domain.OrderCancelled, domain.OrderPlaced)
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Fatal("placed → cancelled refused, want applied")
	}

	// Already cancelled: nothing in the allowed prior set matches.
	applied, err = db.TransitionOrder(ctx, db.db, o.ID, domain.OrderReturned, domain.OrderPlaced, domain.OrderDelivered)
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Error("cancelled → returned applied, want refused")
	}

	got, err := db.GetOrder(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.OrderCancelled {
		t.Errorf("Status = %s, want cancelled", got.Status)
	}
}

func TestOrders_IdempotencyKey(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.GetOrderByIdempotencyKey(ctx, "key-1"); err != domain.ErrNotFound {
		t.Errorf("unused key error = %v, want ErrNotFound", err)
	}

	o := domain.Order{SessionID: "s1", Total: decimal.RequireFromString("10.00"), IdempotencyKey: "key-1"}
	if err := db.InsertOrder(ctx, db.db, &o); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetOrderByIdempotencyKey(ctx, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != o.ID {
		t.Errorf("ID = %d, want %d", got.ID, o.ID)
	}

	// Same key again violates the unique index.
	dup := domain.Order{SessionID: "s1", Total: decimal.RequireFromString("10.00"), IdempotencyKey: "key-1"}
	if err := db.InsertOrder(ctx, db.db, &dup); err == nil {
		t.Error("duplicate idempotency key insert succeeded, want error")
	}

	// Orders without keys do not collide with each other.
	for i := 0; i < 2; i++ {
		o := domain.Order{SessionID: "s1", Total: decimal.RequireFromString("1.00")}
		if err := db.InsertOrder(ctx, db.db, &o); err != nil {
			t.Fatalf("keyless insert %d error: %v", i, err)
		}
	}
}

func TestOrders_ListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		o := domain.Order{SessionID: "s1", Total: decimal.New(int64(i+1), 0)}
		if err := db.InsertOrder(ctx, db.db, &o); err != nil {
			t.Fatal(err)
		}
	}
	orders, err := db.ListOrders(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 3 {
		t.Fatalf("len(orders) = %d, want 3", len(orders))
	}
	if orders[0].ID < orders[2].ID {
		t.Error("orders not newest first")
	}
}

// ─── Documents ──────────────────────────────────────────────────────────────

func TestDocuments_FullRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	doc := domain.Document{Title: "Invoice Q3", Vendor: "Acme", Amount: decimal.RequireFromString("120.50")}
	if err := db.InsertDocument(ctx, db.db, &doc); err != nil {
		t.Fatalf("InsertDocument() error: %v", err)
	}
	if doc.Status != domain.DocNew {
		t.Errorf("Status = %s, want New", doc.Status)
	}

	if err := db.InsertExtractedFields(ctx, db.db, &domain.ExtractedFields{
		DocumentID:    doc.ID,
		InvoiceNumber: "INV-1",
		Vendor:        "Acme",
		Amount:        doc.Amount,
		InvoiceDate:   doc.CreatedAt,
		Confidence:    0.88,
	}); err != nil {
		t.Fatal(err)
	}

	f, err := db.GetExtractedFields(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if f.Confidence != 0.88 {
		t.Errorf("Confidence = %f, want 0.88", f.Confidence)
	}

	ok, err := db.SetDocumentStatus(ctx, db.db, doc.ID, domain.DocApproved)
	if err != nil || !ok {
		t.Fatalf("SetDocumentStatus() = %v, %v", ok, err)
	}
	got, _ := db.GetDocument(ctx, doc.ID)
	if got.Status != domain.DocApproved {
		t.Errorf("Status = %s, want Approved", got.Status)
	}

	ok, err = db.SetDocumentStatus(ctx, db.db, 999, domain.DocApproved)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("status update of missing document reported applied")
	}
}

func TestDocuments_ListFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		doc := domain.Document{Title: title, Amount: decimal.Zero}
		if err := db.InsertDocument(ctx, db.db, &doc); err != nil {
			t.Fatal(err)
		}
	}
	docs, _ := db.ListDocuments(ctx, "")
	if len(docs) != 3 {
		t.Fatalf("len(docs) = %d, want 3", len(docs))
	}

	db.SetDocumentStatus(ctx, db.db, docs[0].ID, domain.DocApproved)
	approved, _ := db.ListDocuments(ctx, domain.DocApproved)
	if len(approved) != 1 {
		t.Errorf("approved filter = %d docs, want 1", len(approved))
	}
}

func TestAuditLog_AppendOnlyOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	doc := domain.Document{Title: "x", Amount: decimal.Zero}
	if err := db.InsertDocument(ctx, db.db, &doc); err != nil {
		t.Fatal(err)
	}
	actions := []domain.AuditAction{domain.AuditUpload, domain.AuditApprove, domain.AuditDeliver}
	for _, a := range actions {
		e := domain.AuditLogEntry{DocumentID: doc.ID, Actor: "student", Action: a}
		if err := db.InsertAuditEntry(ctx, db.db, &e); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := db.ListAuditEntries(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].Action != domain.AuditDeliver {
		t.Errorf("entries[0].Action = %s, want DELIVER (newest first)", entries[0].Action)
	}
}
