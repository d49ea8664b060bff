package graph

import (
	"testing"
)

type layoutCounter struct {
	changes int
}

func (c *layoutCounter) LayoutChanged() { c.changes++ }

func TestTicketTable_Create(t *testing.T) {
	tt := NewTicketTable()

	a, err := tt.Create(nil, "color")
	if err != nil {
		t.Fatal(err)
	}
	if a == 0 {
		t.Fatal("Expected non-zero ticket")
	}
	if tt.Name(a) != "color" {
		t.Fatalf("Expected name 'color', got %q", tt.Name(a))
	}
	if tt.LocalIndex(a) != -1 || tt.ObjectID(a) != -1 {
		t.Fatal("Fresh ticket should have no index and no object")
	}
	if tt.Validate(a) {
		t.Fatal("Ticket without an index should not validate")
	}
}

func TestTicketTable_ReservedName(t *testing.T) {
	tt := NewTicketTable()

	if _, err := tt.Create(nil, "#internal"); err == nil {
		t.Fatal("Expected rejection of reserved prefix")
	}
	a, _ := tt.Create(nil, "ok")
	if err := tt.SetName(a, "#renamed"); err == nil {
		t.Fatal("Expected rejection of reserved prefix on rename")
	}
}

func TestTicketTable_WorldIndexForwarding(t *testing.T) {
	tt := NewTicketTable()
	src, _ := tt.Create(nil, "depth")
	dst, _ := tt.Create(nil, "depth-in")

	tt.setLocalIndex(src, 4)
	if err := tt.SetSource(dst, src); err != nil {
		t.Fatal(err)
	}

	// forwarding resolves through the source
	if tt.WorldIndex(dst) != 4 {
		t.Fatalf("Expected world index 4, got %d", tt.WorldIndex(dst))
	}
	if tt.LocalIndex(dst) != -1 {
		t.Fatal("Forwarding must not touch the local index")
	}

	// an unset source falls back to the ticket's own index
	tt.setLocalIndex(src, -1)
	tt.setLocalIndex(dst, 7)
	if tt.WorldIndex(dst) != 7 {
		t.Fatalf("Expected fallback to local index 7, got %d", tt.WorldIndex(dst))
	}
}

func TestTicketTable_WorldIndexChain(t *testing.T) {
	tt := NewTicketTable()
	a, _ := tt.Create(nil, "a")
	b, _ := tt.Create(nil, "b")
	c, _ := tt.Create(nil, "c")

	if err := tt.SetSource(b, a); err != nil {
		t.Fatal(err)
	}
	if err := tt.SetSource(c, b); err != nil {
		t.Fatal(err)
	}
	tt.setLocalIndex(a, 2)
	if tt.WorldIndex(c) != 2 {
		t.Fatalf("Expected chain resolution to 2, got %d", tt.WorldIndex(c))
	}
}

func TestTicketTable_SetSourceRewires(t *testing.T) {
	tt := NewTicketTable()
	owner := &layoutCounter{}
	oldSrc, _ := tt.Create(nil, "old")
	newSrc, _ := tt.Create(nil, "new")
	dst, _ := tt.Create(owner, "dst")

	if err := tt.SetSource(dst, oldSrc); err != nil {
		t.Fatal(err)
	}
	if err := tt.SetSource(dst, newSrc); err != nil {
		t.Fatal(err)
	}

	if len(tt.Targets(oldSrc)) != 0 {
		t.Fatal("Old source should lose the target")
	}
	if got := tt.Targets(newSrc); len(got) != 1 || got[0] != dst {
		t.Fatalf("New source targets wrong: %v", got)
	}
	if owner.changes != 2 {
		t.Fatalf("Expected 2 layout notifications, got %d", owner.changes)
	}

	// detaching
	if err := tt.SetSource(dst, 0); err != nil {
		t.Fatal(err)
	}
	if tt.HasSource(dst) || len(tt.Targets(newSrc)) != 0 {
		t.Fatal("Detach left forwarding state behind")
	}
}

func TestTicketTable_SetSourceRejectsCycle(t *testing.T) {
	tt := NewTicketTable()
	a, _ := tt.Create(nil, "a")
	b, _ := tt.Create(nil, "b")
	c, _ := tt.Create(nil, "c")

	if err := tt.SetSource(b, a); err != nil {
		t.Fatal(err)
	}
	if err := tt.SetSource(c, b); err != nil {
		t.Fatal(err)
	}
	if err := tt.SetSource(a, c); err == nil {
		t.Fatal("Expected cycle rejection")
	}
	if err := tt.SetSource(a, a); err == nil {
		t.Fatal("Expected self-cycle rejection")
	}
}

func TestTicketTable_ClearTargets(t *testing.T) {
	tt := NewTicketTable()
	src, _ := tt.Create(nil, "src")
	d1, _ := tt.Create(nil, "d1")
	d2, _ := tt.Create(nil, "d2")

	if err := tt.SetSource(d1, src); err != nil {
		t.Fatal(err)
	}
	if err := tt.SetSource(d2, src); err != nil {
		t.Fatal(err)
	}
	tt.ClearTargets(src)

	if tt.HasSource(d1) || tt.HasSource(d2) {
		t.Fatal("Targets still forward after ClearTargets")
	}
	if len(tt.Targets(src)) != 0 {
		t.Fatal("Target set not emptied")
	}
}

func TestTicketTable_Copies(t *testing.T) {
	tt := NewTicketTable()
	src, _ := tt.Create(nil, "src")
	tt.setLocalIndex(src, 5)
	tt.SetObjectID(src, 42)

	idx := tt.CopyIndexTo(src, 0)
	if tt.LocalIndex(idx) != 5 || tt.ObjectID(idx) != -1 {
		t.Fatal("CopyIndexTo should copy only the index")
	}

	obj := tt.CopyObjectTo(src, 0)
	if tt.ObjectID(obj) != 42 || tt.LocalIndex(obj) != -1 {
		t.Fatal("CopyObjectTo should copy only the object id")
	}

	// copying into an existing ticket reuses it
	if got := tt.CopyObjectTo(src, idx); got != idx {
		t.Fatal("Existing destination should be returned")
	}
	if tt.ObjectID(idx) != 42 {
		t.Fatal("Object id not copied into existing ticket")
	}
}

func TestTicketTable_UnknownTickets(t *testing.T) {
	tt := NewTicketTable()

	if tt.WorldIndex(0) != -1 || tt.WorldIndex(99) != -1 {
		t.Fatal("Unknown tickets should resolve to -1")
	}
	if err := tt.SetSource(99, 0); err == nil {
		t.Fatal("Expected error for unknown ticket")
	}
	if tt.Validate(0) {
		t.Fatal("Zero ticket should never validate")
	}
}
