package s3

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "user/1_file.pdf", want: "user/1_file.pdf"},
		{name: "simple prefix", prefix: "uploads", key: "user/1_file.pdf", want: "uploads/user/1_file.pdf"},
		{name: "prefix and key slashes", prefix: "/uploads/", key: "/user/1_file.pdf", want: "uploads/user/1_file.pdf"},
		{name: "empty key", prefix: "uploads", key: "", want: "uploads"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestIsConditionFailure(t *testing.T) {
	precondition := fmt.Errorf("put: %w", &smithy.GenericAPIError{Code: "PreconditionFailed"})
	if !isConditionFailure(precondition) {
		t.Fatalf("expected PreconditionFailed to be a condition failure")
	}
	denied := &smithy.GenericAPIError{Code: "AccessDenied"}
	if isConditionFailure(denied) {
		t.Fatalf("AccessDenied is not a condition failure")
	}
	if isConditionFailure(errors.New("dial tcp: timeout")) {
		t.Fatalf("transport errors are not condition failures")
	}
}

func TestPublicURLUsesPrefix(t *testing.T) {
	s := &Store{bucket: "invoices", prefix: "uploads", baseURL: "https://cdn.example"}
	if got := s.PublicURL("u1/1_a b.pdf"); got != "https://cdn.example/uploads/u1/1_a%20b.pdf" {
		t.Fatalf("unexpected url %q", got)
	}
}
