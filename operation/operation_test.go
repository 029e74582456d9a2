package operation

import (
	"testing"
	"time"

	"github.com/xraph/coffer/id"
)

func TestNew(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := New(KindTransfer, at)

	if r.Kind != KindTransfer {
		t.Errorf("Kind = %q, want %q", r.Kind, KindTransfer)
	}
	if !r.At.Equal(at) {
		t.Errorf("At = %v, want %v", r.At, at)
	}
	if r.ID.Prefix() != id.PrefixOperation {
		t.Errorf("ID prefix = %q, want %q", r.ID.Prefix(), id.PrefixOperation)
	}
	if New(KindTransfer, at).ID.String() == r.ID.String() {
		t.Error("expected distinct operation IDs")
	}
}

func TestKindIsValid(t *testing.T) {
	for _, k := range []Kind{KindCredit, KindDebit, KindTransfer, KindSet, KindReset, KindResetAll} {
		if !k.IsValid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if Kind("refund").IsValid() {
		t.Error("unknown kind reported valid")
	}
}
