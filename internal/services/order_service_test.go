package services_test

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"coffeehub/internal/domain"
	"coffeehub/internal/repos"
	"coffeehub/internal/services"
)

type countingNotifier struct {
	calls int
	last  *domain.Order
}

func (n *countingNotifier) OrderConfirmation(o *domain.Order) error {
	n.calls++
	n.last = o
	return nil
}

func newOrderEnv(db *sqlx.DB) (*services.OrderService, *services.CartService, *countingNotifier) {
	cart := newCartService(db)
	notifier := &countingNotifier{}
	svc := services.NewOrderService(
		repos.NewOrderRepo(db),
		repos.NewProductRepo(db),
		repos.NewVariantRepo(db),
		repos.NewUserRepo(db),
		repos.NewSessionRepo(db),
		cart,
		notifier,
	)
	svc.WebhookRetries = 1
	svc.WebhookRetryDelay = 0
	return svc, cart, notifier
}

func testContact() domain.ShippingContact {
	return domain.ShippingContact{
		FullName:       "Maya Tester",
		Email:          "maya@coffeehub.test",
		PhoneNumber:    "+1 301 555 0100",
		Country:        "US",
		Postcode:       "20740",
		TownOrCity:     "College Park",
		StreetAddress1: "1 Bean St",
	}
}

func commitReq(id domain.Identity, ref string, lines []services.CommitLine) services.CommitRequest {
	return services.CommitRequest{
		PaymentRef: ref,
		Identity:   id,
		Contact:    testContact(),
		Lines:      lines,
	}
}

func TestOrderCommit(t *testing.T) {
	db := memdb(t)
	orders, cart, notifier := newOrderEnv(db)
	id := domain.Identity{SID: "sess-1"}

	if err := cart.Add(id, "house-blend", "250g", 2); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(id, "yirgacheffe", "500g", 1); err != nil {
		t.Fatal(err)
	}
	view, err := cart.View(id)
	if err != nil {
		t.Fatal(err)
	}

	order, created, err := orders.Commit(commitReq(id, "pi_100", services.CommitLinesFromView(view)))
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("first commit should create the order")
	}
	if order.OrderNumber == "" || len(order.OrderNumber) != 32 {
		t.Fatalf("bad order number %q", order.OrderNumber)
	}
	if order.Total.StringFixed(2) != "47.50" {
		t.Fatalf("want total 47.50, got %s", order.Total.StringFixed(2))
	}
	if len(order.Lines) != 2 {
		t.Fatalf("want 2 lines, got %+v", order.Lines)
	}
	if order.Status != domain.OrderStatusPaid {
		t.Fatalf("want status paid, got %s", order.Status)
	}

	// stock decremented: 40 - 2 = 38
	variants := repos.NewVariantRepo(db)
	n, err := variants.Stock("house-blend", "250g")
	if err != nil {
		t.Fatal(err)
	}
	if n != 38 {
		t.Fatalf("want stock 38, got %d", n)
	}

	// cart consumed
	after, err := cart.View(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Lines) != 0 {
		t.Fatalf("cart should be cleared: %+v", after.Lines)
	}

	if notifier.calls != 1 {
		t.Fatalf("want exactly one confirmation, got %d", notifier.calls)
	}
}

func TestOrderCommitIsIdempotent(t *testing.T) {
	db := memdb(t)
	orders, cart, notifier := newOrderEnv(db)
	id := domain.Identity{SID: "sess-1"}

	if err := cart.Add(id, "house-blend", "250g", 2); err != nil {
		t.Fatal(err)
	}
	view, _ := cart.View(id)
	lines := services.CommitLinesFromView(view)

	first, created, err := orders.Commit(commitReq(id, "pi_dup", lines))
	if err != nil || !created {
		t.Fatalf("first commit: created=%v err=%v", created, err)
	}

	// same payment reference again, as a racing webhook would deliver it
	second, created, err := orders.Commit(commitReq(id, "pi_dup", lines))
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("second commit must not create a new order")
	}
	if second.OrderNumber != first.OrderNumber {
		t.Fatalf("want same order, got %s vs %s", second.OrderNumber, first.OrderNumber)
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM orders WHERE payment_ref='pi_dup'`); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("want one order row, got %d", count)
	}

	// stock decremented exactly once: 40 - 2 = 38
	n, err := repos.NewVariantRepo(db).Stock("house-blend", "250g")
	if err != nil {
		t.Fatal(err)
	}
	if n != 38 {
		t.Fatalf("stock decremented twice: %d", n)
	}

	if notifier.calls != 1 {
		t.Fatalf("confirmation sent %d times", notifier.calls)
	}
}

func TestOrderCommitEmptyLines(t *testing.T) {
	db := memdb(t)
	orders, _, _ := newOrderEnv(db)

	_, _, err := orders.Commit(commitReq(domain.Identity{SID: "sess-1"}, "pi_empty", nil))
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("want ErrEmptyCart, got %v", err)
	}
}

func TestOrderCommitMissingPaymentRef(t *testing.T) {
	db := memdb(t)
	orders, _, _ := newOrderEnv(db)

	_, _, err := orders.Commit(commitReq(domain.Identity{SID: "sess-1"}, "", nil))
	if !domain.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestOrderCommitRollbackOnMissingProduct(t *testing.T) {
	db := memdb(t)
	orders, cart, notifier := newOrderEnv(db)
	id := domain.Identity{SID: "sess-1"}

	if err := cart.Add(id, "house-blend", "250g", 1); err != nil {
		t.Fatal(err)
	}

	lines := []services.CommitLine{
		{ProductID: "house-blend", Size: "250g", Quantity: 1, UnitPrice: decimal.RequireFromString("10.50")},
		{ProductID: "gone-product", Size: "250g", Quantity: 1, UnitPrice: decimal.RequireFromString("9.99")},
	}
	_, _, err := orders.Commit(commitReq(id, "pi_rollback", lines))
	if err == nil {
		t.Fatal("commit should fail on a missing product")
	}

	// half-built order rolled back
	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM orders WHERE payment_ref='pi_rollback'`); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("order should be rolled back, found %d rows", count)
	}

	// no side effects: stock and cart untouched, no confirmation
	n, _ := repos.NewVariantRepo(db).Stock("house-blend", "250g")
	if n != 40 {
		t.Fatalf("stock should be untouched, got %d", n)
	}
	view, _ := cart.View(id)
	if len(view.Lines) != 1 {
		t.Fatalf("cart should survive the failed commit: %+v", view.Lines)
	}
	if notifier.calls != 0 {
		t.Fatalf("no confirmation on failure, got %d", notifier.calls)
	}
}

func TestOrderCommitStockFloorsAtZero(t *testing.T) {
	db := memdb(t)
	orders, _, _ := newOrderEnv(db)

	// colombia-supremo 1kg has 4 in stock; commit 6 (stock raced down
	// between checkout and the webhook)
	lines := []services.CommitLine{
		{ProductID: "colombia-supremo", Size: "1kg", Quantity: 6, UnitPrice: decimal.RequireFromString("42.00")},
	}
	_, created, err := orders.Commit(commitReq(domain.Identity{SID: "sess-1"}, "pi_floor", lines))
	if err != nil || !created {
		t.Fatalf("created=%v err=%v", created, err)
	}

	n, err := repos.NewVariantRepo(db).Stock("colombia-supremo", "1kg")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("stock should floor at zero, got %d", n)
	}
}

func TestOrderCommitSavesProfileDefaults(t *testing.T) {
	db := memdb(t)
	orders, cart, _ := newOrderEnv(db)
	id := domain.Identity{SID: "sess-1", UserID: "u-maya"}

	if err := cart.Add(id, "house-blend", "250g", 1); err != nil {
		t.Fatal(err)
	}
	view, _ := cart.View(id)

	req := commitReq(id, "pi_profile", services.CommitLinesFromView(view))
	req.SaveInfo = true
	if _, _, err := orders.Commit(req); err != nil {
		t.Fatal(err)
	}

	profile, err := repos.NewUserRepo(db).Profile("u-maya")
	if err != nil {
		t.Fatal(err)
	}
	if profile.TownOrCity != "College Park" || profile.StreetAddress1 != "1 Bean St" {
		t.Fatalf("profile defaults not saved: %+v", profile)
	}
}

func TestCommitFromWebhookFindsExistingOrder(t *testing.T) {
	db := memdb(t)
	orders, cart, notifier := newOrderEnv(db)
	id := domain.Identity{SID: "sess-1"}

	if err := cart.Add(id, "house-blend", "250g", 1); err != nil {
		t.Fatal(err)
	}
	view, _ := cart.View(id)
	lines := services.CommitLinesFromView(view)

	first, _, err := orders.Commit(commitReq(id, "pi_wh", lines))
	if err != nil {
		t.Fatal(err)
	}

	// webhook arrives after the synchronous commit already won
	got, created, err := orders.CommitFromWebhook(commitReq(id, "pi_wh", lines))
	if err != nil {
		t.Fatal(err)
	}
	if created || got.OrderNumber != first.OrderNumber {
		t.Fatalf("webhook should observe the existing order: created=%v", created)
	}
	if notifier.calls != 1 {
		t.Fatalf("confirmation sent %d times", notifier.calls)
	}
}

func TestOrderCommitSurvivesSideEffectFailures(t *testing.T) {
	db := memdb(t)
	orders, cart, notifier := newOrderEnv(db)
	id := domain.Identity{SID: "sess-1", UserID: "u-maya"}

	if err := cart.Add(id, "house-blend", "250g", 1); err != nil {
		t.Fatal(err)
	}
	view, err := cart.View(id)
	if err != nil {
		t.Fatal(err)
	}
	lines := services.CommitLinesFromView(view)

	// side-effect tables vanish mid-flight: the decrement and the profile
	// snapshot both fail, the commit must not
	if _, err := db.Exec(`DROP TABLE user_profiles`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`DROP TABLE variants`); err != nil {
		t.Fatal(err)
	}

	req := commitReq(id, "pi_sidefx", lines)
	req.SaveInfo = true
	order, created, err := orders.Commit(req)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("commit should create the order despite failed side effects")
	}
	if order.Total.StringFixed(2) != "10.50" {
		t.Fatalf("want total 10.50, got %s", order.Total.StringFixed(2))
	}

	// the order is durable and a redelivery sees it as committed
	again, created, err := orders.Commit(req)
	if err != nil {
		t.Fatal(err)
	}
	if created || again.OrderNumber != order.OrderNumber {
		t.Fatalf("redelivery should observe the committed order: created=%v", created)
	}
	if notifier.calls != 1 {
		t.Fatalf("want one confirmation, got %d", notifier.calls)
	}
}

func TestParseCommittedCart(t *testing.T) {
	lines, err := services.ParseCommittedCart(`[{"id":"house-blend","size":"250g","quantity":2,"price":"10.50"}]`)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0].Quantity != 2 || lines[0].UnitPrice.StringFixed(2) != "10.50" {
		t.Fatalf("bad parse: %+v", lines)
	}

	if _, err := services.ParseCommittedCart(`not json`); err == nil {
		t.Fatal("want error on malformed metadata")
	}
	if _, err := services.ParseCommittedCart(`[{"id":"x","size":"250g","quantity":1,"price":"oops"}]`); err == nil {
		t.Fatal("want error on malformed price")
	}
}
