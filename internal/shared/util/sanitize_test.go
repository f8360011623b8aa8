package util

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "report.pdf", "report.pdf", false},
		{"slashes", "a/b\\c.pdf", "a_b_c.pdf", false},
		{"traversal", "../../etc/passwd", "", true},
		{"empty", "   ", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SanitizeFileName(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSanitizeDisplayName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"reserved chars removed", `Invoice: Acme?*.pdf`, "Invoice_Acme.pdf"},
		{"whitespace collapsed", "Contract   Acme  Corp.pdf", "Contract_Acme_Corp.pdf"},
		{"mixed", `a/b "c"   d`, "ab_c_d"},
		{"clean", "Invoice_Acme_2025-01-02.pdf", "Invoice_Acme_2025-01-02.pdf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeDisplayName(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
