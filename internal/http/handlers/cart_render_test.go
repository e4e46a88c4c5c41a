package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"

	"coffeehub/internal/domain"
	"coffeehub/internal/http/handlers"
	"coffeehub/internal/repos"
	"coffeehub/internal/services"
)

// The cart page must render the clamp warning with the live view struct;
// a field drift between template and view surfaces as a 500 exactly when
// the shopper needs the warning.
func TestCartPageRendersAdjustmentWarning(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	cartSvc := services.NewCartService(
		repos.NewSessionCartRepo(db),
		repos.NewPersistentCartRepo(db),
		repos.NewVariantRepo(db),
	)
	h := &handlers.CartHandler{
		Cart:      cartSvc,
		Reconcile: services.NewReconcileService(cartSvc, repos.NewSessionRepo(db)),
	}

	id := domain.Identity{SID: "sess-clamp"}
	if err := cartSvc.Add(id, "house-blend", "250g", 4); err != nil {
		t.Fatal(err)
	}
	// stock drops behind the cart's back, forcing a clamp on view
	if _, err := db.Exec(`UPDATE variants SET stock_count = 2 WHERE product_id='house-blend' AND size='250g'`); err != nil {
		t.Fatal(err)
	}

	engine := html.New("../../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Get("/cart", h.View)

	req := httptest.NewRequest("GET", "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sess-clamp"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	page := string(body)
	if !strings.Contains(page, "quantity reduced to 2") {
		t.Fatalf("clamp warning missing from page:\n%s", page)
	}
	if !strings.Contains(page, "House Blend") {
		t.Fatalf("clamped line missing from page:\n%s", page)
	}
}
