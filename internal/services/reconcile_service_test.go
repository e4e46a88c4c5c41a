package services_test

import (
	"testing"

	"coffeehub/internal/domain"
	"coffeehub/internal/repos"
	"coffeehub/internal/services"
)

func TestReconcileEmptySessionCartIsNoop(t *testing.T) {
	db := memdb(t)
	cart := newCartService(db)
	rec := services.NewReconcileService(cart, repos.NewSessionRepo(db))

	pending, err := rec.OnLogin("sess-1", "u-maya")
	if err != nil {
		t.Fatal(err)
	}
	if pending {
		t.Fatal("nothing to reconcile, no choice should be pending")
	}
}

func TestReconcileSilentTransfer(t *testing.T) {
	db := memdb(t)
	cart := newCartService(db)
	rec := services.NewReconcileService(cart, repos.NewSessionRepo(db))
	anon := domain.Identity{SID: "sess-1"}

	if err := cart.Add(anon, "house-blend", "250g", 2); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(anon, "yirgacheffe", "250g", 1); err != nil {
		t.Fatal(err)
	}

	pending, err := rec.OnLogin("sess-1", "u-maya")
	if err != nil {
		t.Fatal(err)
	}
	if pending {
		t.Fatal("empty account cart means silent transfer, not a pending choice")
	}

	authed := domain.Identity{SID: "sess-1", UserID: "u-maya"}
	view, err := cart.View(authed)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Lines) != 2 {
		t.Fatalf("want 2 transferred lines, got %+v", view.Lines)
	}

	sessView, err := cart.View(anon)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessView.Lines) != 0 {
		t.Fatalf("session cart should be cleared after transfer: %+v", sessView.Lines)
	}
}

func TestReconcileTransferSkipsVanishedProducts(t *testing.T) {
	db := memdb(t)
	cart := newCartService(db)
	rec := services.NewReconcileService(cart, repos.NewSessionRepo(db))
	anon := domain.Identity{SID: "sess-1"}

	if err := cart.Add(anon, "house-blend", "250g", 2); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(anon, "yirgacheffe", "250g", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE products SET active = 0 WHERE id='yirgacheffe'`); err != nil {
		t.Fatal(err)
	}

	if _, err := rec.OnLogin("sess-1", "u-maya"); err != nil {
		t.Fatal(err)
	}

	view, err := cart.View(domain.Identity{SID: "sess-1", UserID: "u-maya"})
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Lines) != 1 || view.Lines[0].ProductID != "house-blend" {
		t.Fatalf("vanished product should be skipped: %+v", view.Lines)
	}
}

func TestReconcileBothCartsPendChoice(t *testing.T) {
	db := memdb(t)
	cart := newCartService(db)
	sessions := repos.NewSessionRepo(db)
	rec := services.NewReconcileService(cart, sessions)
	anon := domain.Identity{SID: "sess-1"}
	authed := domain.Identity{SID: "sess-1", UserID: "u-maya"}

	if err := cart.Add(anon, "house-blend", "250g", 2); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(authed, "colombia-supremo", "250g", 1); err != nil {
		t.Fatal(err)
	}

	pending, err := rec.OnLogin("sess-1", "u-maya")
	if err != nil {
		t.Fatal(err)
	}
	if !pending {
		t.Fatal("both carts held items, choice should be pending")
	}
	flag, err := sessions.PendingChoice("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if !flag {
		t.Fatal("pending flag not stored")
	}

	// neither cart is touched until the user decides
	sv, _ := cart.View(anon)
	av, _ := cart.View(authed)
	if len(sv.Lines) != 1 || len(av.Lines) != 1 {
		t.Fatalf("carts changed before choice: session=%+v account=%+v", sv.Lines, av.Lines)
	}
}

func TestReconcileResolveMergeSumsQuantities(t *testing.T) {
	db := memdb(t)
	cart := newCartService(db)
	sessions := repos.NewSessionRepo(db)
	rec := services.NewReconcileService(cart, sessions)
	anon := domain.Identity{SID: "sess-1"}
	authed := domain.Identity{SID: "sess-1", UserID: "u-maya"}

	if err := cart.Add(anon, "house-blend", "250g", 2); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(authed, "house-blend", "250g", 3); err != nil {
		t.Fatal(err)
	}
	if _, err := rec.OnLogin("sess-1", "u-maya"); err != nil {
		t.Fatal(err)
	}

	if err := rec.Resolve("sess-1", "u-maya", services.ChoiceMerge); err != nil {
		t.Fatal(err)
	}

	view, err := cart.View(authed)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 5 {
		t.Fatalf("merge should sum to 5: %+v", view.Lines)
	}
	flag, _ := sessions.PendingChoice("sess-1")
	if flag {
		t.Fatal("pending flag should be consumed")
	}
}

func TestReconcileResolveKeepAccount(t *testing.T) {
	db := memdb(t)
	cart := newCartService(db)
	sessions := repos.NewSessionRepo(db)
	rec := services.NewReconcileService(cart, sessions)
	anon := domain.Identity{SID: "sess-1"}
	authed := domain.Identity{SID: "sess-1", UserID: "u-maya"}

	if err := cart.Add(anon, "house-blend", "250g", 2); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(authed, "colombia-supremo", "250g", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := rec.OnLogin("sess-1", "u-maya"); err != nil {
		t.Fatal(err)
	}

	if err := rec.Resolve("sess-1", "u-maya", services.ChoiceKeepAccount); err != nil {
		t.Fatal(err)
	}

	view, _ := cart.View(authed)
	if len(view.Lines) != 1 || view.Lines[0].ProductID != "colombia-supremo" {
		t.Fatalf("account cart should win: %+v", view.Lines)
	}
	sessView, _ := cart.View(anon)
	if len(sessView.Lines) != 0 {
		t.Fatalf("session cart should be discarded: %+v", sessView.Lines)
	}
}

func TestReconcileResolveKeepSession(t *testing.T) {
	db := memdb(t)
	cart := newCartService(db)
	sessions := repos.NewSessionRepo(db)
	rec := services.NewReconcileService(cart, sessions)
	anon := domain.Identity{SID: "sess-1"}
	authed := domain.Identity{SID: "sess-1", UserID: "u-maya"}

	if err := cart.Add(anon, "house-blend", "250g", 2); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(authed, "colombia-supremo", "250g", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := rec.OnLogin("sess-1", "u-maya"); err != nil {
		t.Fatal(err)
	}

	if err := rec.Resolve("sess-1", "u-maya", services.ChoiceKeepSession); err != nil {
		t.Fatal(err)
	}

	view, _ := cart.View(authed)
	if len(view.Lines) != 1 || view.Lines[0].ProductID != "house-blend" {
		t.Fatalf("session cart should win: %+v", view.Lines)
	}
}

func TestReconcileResolveUnknownChoice(t *testing.T) {
	db := memdb(t)
	cart := newCartService(db)
	rec := services.NewReconcileService(cart, repos.NewSessionRepo(db))

	if err := rec.Resolve("sess-1", "u-maya", "coin-flip"); !domain.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}
