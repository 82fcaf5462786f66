package seo

import (
	"encoding/json"
	"testing"
)

func TestProductIncludesOffer(t *testing.T) {
	raw := JSON(Product("Gorra", "Gorra de algodón", "/?fragment=product-4#product-4", "https://img", "4", Offer{Price: "14.75", Currency: "USD"}))

	var got map[string]any
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["@type"] != "Product" || got["sku"] != "4" {
		t.Fatalf("unexpected product payload: %v", got)
	}
	offer, ok := got["offers"].(map[string]any)
	if !ok || offer["price"] != "14.75" || offer["priceCurrency"] != "USD" {
		t.Fatalf("unexpected offer: %v", got["offers"])
	}
}

func TestOrganizationOmitsEmptyURL(t *testing.T) {
	org := Organization("Mi Tienda", "")
	if _, ok := org["url"]; ok {
		t.Fatalf("url must be omitted when empty: %v", org)
	}
}

func TestJSONEscapesMarkup(t *testing.T) {
	raw := JSON(map[string]any{"name": "</script>"})
	if raw != `{"name":"\u003c/script\u003e"}` {
		t.Fatalf("markup must be escaped for script embedding, got %s", raw)
	}
}
