package mongo

import (
	"testing"

	"github.com/your-org/forms-backend/internal/domain/sequence"
)

func TestDocumentID(t *testing.T) {
	if got := DocumentID(sequence.Key{Prefix: "INS", Year: 2026}); got != "INS:2026" {
		t.Fatalf("DocumentID() = %q", got)
	}
}
