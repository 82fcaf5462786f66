package nav

import "testing"

func TestBuildMarksActiveEntry(t *testing.T) {
	items := Build("carrito")
	if len(items) != len(Main) {
		t.Fatalf("expected %d items, got %d", len(Main), len(items))
	}
	for _, it := range items {
		want := it.Fragment == "carrito"
		if it.Active != want {
			t.Fatalf("item %s active=%v, want %v", it.ID, it.Active, want)
		}
	}
}

func TestHrefCarriesFragmentInQuery(t *testing.T) {
	if got := Href("product-3"); got != "/?fragment=product-3#product-3" {
		t.Fatalf("unexpected href %q", got)
	}
	if got := Href(""); got != "/" {
		t.Fatalf("unexpected href for empty fragment %q", got)
	}
}
