package minio

import "testing"

func TestPublicURL(t *testing.T) {
	s := &Store{bucket: "invoices", baseURL: "http://localhost:9000/invoices"}
	if got := s.PublicURL("u1/17_receipt.png"); got != "http://localhost:9000/invoices/u1/17_receipt.png" {
		t.Fatalf("unexpected url %q", got)
	}
}
