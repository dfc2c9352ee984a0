package validate

import "testing"

func TestEmail(t *testing.T) {
	if got, ok := Email("  Jane.Doe@Example.COM "); !ok || got != "jane.doe@example.com" {
		t.Fatalf("Email normalise: %q %v", got, ok)
	}
	for _, bad := range []string{"", "no-at-sign", "a@b", "<script>@x.io"} {
		if _, ok := Email(bad); ok {
			t.Errorf("Email(%q) accepted", bad)
		}
	}
}

func TestQ(t *testing.T) {
	if got, ok := Q("  desk lamp "); !ok || got != "desk lamp" {
		t.Fatalf("Q trim: %q %v", got, ok)
	}
	for _, bad := range []string{"", "   ", "100%", "a;b", "<b>"} {
		if _, ok := Q(bad); ok {
			t.Errorf("Q(%q) accepted", bad)
		}
	}
}

func TestLimit(t *testing.T) {
	cases := map[string]int{"": 50, "abc": 50, "0": 50, "-3": 50, "10": 10, "1000": 100}
	for in, want := range cases {
		if got := Limit(in, 50, 100); got != want {
			t.Errorf("Limit(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestSort(t *testing.T) {
	if got, ok := Sort(""); !ok || got != Sorts[DefaultSort] {
		t.Fatalf("default sort: %q %v", got, ok)
	}
	if got, ok := Sort("-salesCount"); !ok || got != "sales_count DESC" {
		t.Fatalf("salesCount sort: %q %v", got, ok)
	}
	if _, ok := Sort("price; DROP TABLE products"); ok {
		t.Fatal("unknown sort accepted")
	}
}

func TestIDAndPaymentReference(t *testing.T) {
	if _, ok := ID("p-headphones"); !ok {
		t.Error("ID rejected a slug")
	}
	if _, ok := ID("../etc/passwd"); ok {
		t.Error("ID accepted a path")
	}
	if got, ok := PaymentReference(" pi_3Nx_secret "); !ok || got != "pi_3Nx_secret" {
		t.Errorf("PaymentReference: %q %v", got, ok)
	}
	if _, ok := PaymentReference("pi 1"); ok {
		t.Error("PaymentReference accepted whitespace")
	}
}
