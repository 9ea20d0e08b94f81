//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/puzzlerush/platform/test/integration/testutil"
)

func TestStoreCatalog(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.SignInPlayer(testutil.NewGoogleID())

	resp := env.GETAuth("/store/catalog", token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Items []struct {
			Type     string `json:"type"`
			Variant  string `json:"variant"`
			UnitCost int64  `json:"unit_cost"`
		} `json:"items"`
	}
	testutil.DecodeJSON(t, resp, &result)

	if len(result.Items) == 0 {
		t.Fatal("catalog is empty")
	}
	for _, item := range result.Items {
		if item.UnitCost <= 0 {
			t.Errorf("%s/%s has non-positive cost %d", item.Type, item.Variant, item.UnitCost)
		}
	}
}

func TestPurchase_DebitsPointsAndCreditsInventory(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, playerID := env.SignInPlayer(testutil.NewGoogleID())
	env.GrantPoints(playerID, 500)

	resp := env.POST("/store/purchase", map[string]interface{}{
		"item_type": "power_up",
		"variant":   "shield",
		"quantity":  2,
	}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Player struct {
			Points int64 `json:"points"`
		} `json:"player"`
	}
	testutil.DecodeJSON(t, resp, &result)

	// 2 shields at 50 points each.
	if result.Player.Points != 400 {
		t.Errorf("expected 400 points after purchase, got %d", result.Player.Points)
	}
	if got := testutil.InventoryQuantity(t, env, playerID, "power_up", "shield"); got != 2 {
		t.Errorf("expected 2 shields in inventory, got %d", got)
	}
	if n := testutil.CountOutboxEvents(t, env, playerID, "core.store.purchase.completed"); n != 1 {
		t.Errorf("expected 1 purchase outbox event, got %d", n)
	}
}

func TestPurchase_InsufficientPointsIsAtomic(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, playerID := env.SignInPlayer(testutil.NewGoogleID())
	env.GrantPoints(playerID, 30)

	resp := env.POST("/store/purchase", map[string]interface{}{
		"item_type": "power_up",
		"variant":   "shield",
		"quantity":  1,
	}, token)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "INSUFFICIENT_QUANTITY")

	// Nothing was applied: the debit and the credit stand or fall together.
	if got := testutil.PlayerPoints(t, env, playerID); got != 30 {
		t.Errorf("expected untouched balance 30, got %d", got)
	}
	if got := testutil.InventoryQuantity(t, env, playerID, "power_up", "shield"); got != 0 {
		t.Errorf("expected empty inventory, got %d", got)
	}
}

func TestPurchase_UnknownCatalogItem(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.SignInPlayer(testutil.NewGoogleID())

	resp := env.POST("/store/purchase", map[string]interface{}{
		"item_type": "power_up",
		"variant":   "jetpack",
		"quantity":  1,
	}, token)
	testutil.AssertStatus(t, resp, http.StatusNotFound)
	testutil.AssertErrorCode(t, resp, "NOT_FOUND")
}

func TestInventory_Endpoint(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, playerID := env.SignInPlayer(testutil.NewGoogleID())
	env.GrantPoints(playerID, 1000)

	env.POST("/store/purchase", map[string]interface{}{
		"item_type": "power_up", "variant": "magnet", "quantity": 3,
	}, token).Body.Close()
	env.POST("/store/purchase", map[string]interface{}{
		"item_type": "skin", "variant": "neon", "quantity": 1,
	}, token).Body.Close()

	resp := env.GETAuth("/players/me/inventory", token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Items []struct {
			Type     string `json:"type"`
			Variant  string `json:"variant"`
			Quantity int64  `json:"quantity"`
		} `json:"items"`
	}
	testutil.DecodeJSON(t, resp, &result)

	if len(result.Items) != 2 {
		t.Fatalf("expected 2 inventory rows, got %d", len(result.Items))
	}
}
