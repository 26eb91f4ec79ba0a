package dispatch

import "testing"

func TestTable_RegisterLookup(t *testing.T) {
	tbl := NewTable[func(int) int]()
	tbl.Register(1, func(x int) int { return x * 2 })

	h, ok := tbl.Lookup(1)
	if !ok {
		t.Fatal("expected handler to be found")
	}
	if got := h(21); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	if _, ok := tbl.Lookup(2); ok {
		t.Error("expected no handler for unregistered id")
	}
	if tbl.Len() != 1 {
		t.Errorf("expected 1 handler, got %d", tbl.Len())
	}
}

func TestTable_All(t *testing.T) {
	tbl := NewTable[int]()
	tbl.Register(1, 10)
	tbl.Register(2, 20)

	all := tbl.All()
	if len(all) != 2 || all[1] != 10 || all[2] != 20 {
		t.Errorf("unexpected snapshot: %v", all)
	}

	all[1] = 999
	if v, _ := tbl.Lookup(1); v != 10 {
		t.Error("mutating the snapshot must not affect the table")
	}
}

func TestTable_RegisterReplaces(t *testing.T) {
	tbl := NewTable[func() string]()
	tbl.Register(1, func() string { return "first" })
	tbl.Register(1, func() string { return "second" })

	h, ok := tbl.Lookup(1)
	if !ok || h() != "second" {
		t.Error("expected second registration to replace the first")
	}
	if tbl.Len() != 1 {
		t.Errorf("expected 1 handler, got %d", tbl.Len())
	}
}
