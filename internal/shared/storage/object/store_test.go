package object

import "testing"

func TestJoinURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{name: "plain", base: "http://localhost:8080/files", key: "u1/1_a.pdf", want: "http://localhost:8080/files/u1/1_a.pdf"},
		{name: "trailing slash", base: "https://cdn.example/", key: "/u1/1_a.pdf", want: "https://cdn.example/u1/1_a.pdf"},
		{name: "escaped segment", base: "https://cdn.example", key: "u1/1_my receipt#2.jpg", want: "https://cdn.example/u1/1_my%20receipt%232.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinURL(tt.base, tt.key); got != tt.want {
				t.Fatalf("JoinURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
			}
		})
	}
}
