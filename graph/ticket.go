package graph

import (
	"fmt"
	"strings"

	"github.com/wippyai/framegraph/errors"
)

// ReservedPrefix marks internally generated ticket names. User tickets may
// not start with it.
const ReservedPrefix = "#"

// Ticket is an opaque reference to a declared resource slot.
// Ticket 0 is reserved and always invalid.
//
// A ticket may forward to another ticket as its source, making it point at
// the same resource; resolution follows the forwarding chain to a world
// index. Tickets also vaguely track the last pooled object they were bound
// to, which lets the pool prioritize that object on the next frame.
type Ticket uint32

// Owner is notified when a ticket it owns is rewired to a new source,
// typically a pass whose connection layout must be recomputed.
type Owner interface {
	LayoutChanged()
}

type ticketRecord struct {
	owner      Owner
	name       string
	localIndex int
	objectID   int64
	source     Ticket
	targets    []Ticket
	valid      bool
}

// TicketTable is an arena of ticket records. Forwarding relationships are
// stored as ticket ids into the arena, never as direct references, so the
// source/target graph cannot dangle and chains resolve in O(length).
type TicketTable struct {
	records []ticketRecord
}

// NewTicketTable creates an empty ticket arena.
func NewTicketTable() *TicketTable {
	return &TicketTable{
		records: make([]ticketRecord, 0, 32),
	}
}

// ValidateName rejects names that start with the reserved prefix.
func ValidateName(name string) error {
	if strings.HasPrefix(name, ReservedPrefix) {
		return errors.InvalidArgument(errors.PhaseDeclare,
			"cannot start ticket name with reserved %q", ReservedPrefix)
	}
	return nil
}

// Create allocates a ticket with the given owner and name.
// The owner may be nil. Names starting with the reserved prefix are
// rejected; internal callers use createInternal.
func (tt *TicketTable) Create(owner Owner, name string) (Ticket, error) {
	if err := ValidateName(name); err != nil {
		return 0, err
	}
	return tt.createInternal(owner, name), nil
}

func (tt *TicketTable) createInternal(owner Owner, name string) Ticket {
	tt.records = append(tt.records, ticketRecord{
		owner:      owner,
		name:       name,
		localIndex: -1,
		objectID:   -1,
		valid:      true,
	})
	return Ticket(len(tt.records))
}

func (tt *TicketTable) record(t Ticket) *ticketRecord {
	if t == 0 || int(t) > len(tt.records) {
		return nil
	}
	r := &tt.records[t-1]
	if !r.valid {
		return nil
	}
	return r
}

// Validate reports whether the ticket can be used to locate a resource: it
// must exist and resolve to a non-negative world index.
func (tt *TicketTable) Validate(t Ticket) bool {
	return tt.record(t) != nil && tt.WorldIndex(t) >= 0
}

// WorldIndex resolves the ticket through its forwarding chain: the first
// non-negative index found walking up the sources wins, defaulting to the
// ticket's own local index. Returns -1 for unknown tickets.
func (tt *TicketTable) WorldIndex(t Ticket) int {
	r := tt.record(t)
	if r == nil {
		return -1
	}
	if r.source != 0 {
		if i := tt.WorldIndex(r.source); i >= 0 {
			return i
		}
	}
	return r.localIndex
}

// LocalIndex returns the ticket's own slot index, ignoring forwarding.
func (tt *TicketTable) LocalIndex(t Ticket) int {
	if r := tt.record(t); r != nil {
		return r.localIndex
	}
	return -1
}

func (tt *TicketTable) setLocalIndex(t Ticket, index int) {
	if r := tt.record(t); r != nil {
		r.localIndex = index
	}
}

// Name returns the ticket's display name.
func (tt *TicketTable) Name(t Ticket) string {
	if r := tt.record(t); r != nil {
		return r.name
	}
	return ""
}

// SetName renames the ticket, rejecting reserved-prefix names.
func (tt *TicketTable) SetName(t Ticket, name string) error {
	r := tt.record(t)
	if r == nil {
		return errors.InvalidHandle(errors.PhaseDeclare, "unknown ticket %d", t)
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	r.name = name
	return nil
}

// ObjectID returns the id of the pooled object the ticket last saw, or -1.
func (tt *TicketTable) ObjectID(t Ticket) int64 {
	if r := tt.record(t); r != nil {
		return r.objectID
	}
	return -1
}

// SetObjectID records the pooled object the ticket was bound to.
func (tt *TicketTable) SetObjectID(t Ticket, id int64) {
	if r := tt.record(t); r != nil {
		r.objectID = id
	}
}

// Source returns the ticket this ticket forwards to, or 0.
func (tt *TicketTable) Source(t Ticket) Ticket {
	if r := tt.record(t); r != nil {
		return r.source
	}
	return 0
}

// HasSource reports whether the ticket forwards to another ticket.
func (tt *TicketTable) HasSource(t Ticket) bool {
	return tt.Source(t) != 0
}

// Targets returns the tickets that forward to this ticket.
func (tt *TicketTable) Targets(t Ticket) []Ticket {
	if r := tt.record(t); r != nil {
		return r.targets
	}
	return nil
}

// SetSource rewires the ticket's forwarding chain: the ticket is removed
// from its old source's target set and added to the new one, and the
// ticket's owner is notified that the layout changed. A zero source detaches
// the ticket. Edges that would close a cycle are rejected.
func (tt *TicketTable) SetSource(t, source Ticket) error {
	r := tt.record(t)
	if r == nil {
		return errors.InvalidHandle(errors.PhaseDeclare, "unknown ticket %d", t)
	}
	if r.source == source {
		return nil
	}
	if source != 0 {
		if tt.record(source) == nil {
			return errors.InvalidHandle(errors.PhaseDeclare, "unknown source ticket %d", source)
		}
		// walk the chain upward; linking below any ancestor of t closes a cycle
		for s := source; s != 0; s = tt.Source(s) {
			if s == t {
				return errors.InvalidArgument(errors.PhaseDeclare,
					"setting ticket %d as source of ticket %d would create a cycle", source, t)
			}
		}
	}
	if r.source != 0 {
		tt.removeTarget(r.source, t)
	}
	if r.owner != nil {
		r.owner.LayoutChanged()
	}
	r.source = source
	if source != 0 {
		sr := tt.record(source)
		sr.targets = append(sr.targets, t)
	}
	return nil
}

// ClearTargets detaches every ticket forwarding to this one.
func (tt *TicketTable) ClearTargets(t Ticket) {
	r := tt.record(t)
	if r == nil {
		return
	}
	for _, target := range r.targets {
		if tr := tt.record(target); tr != nil && tr.source == t {
			tr.source = 0
		}
	}
	r.targets = nil
}

func (tt *TicketTable) removeTarget(t, target Ticket) {
	r := tt.record(t)
	if r == nil {
		return
	}
	for i, cand := range r.targets {
		if cand == target {
			r.targets = append(r.targets[:i], r.targets[i+1:]...)
			return
		}
	}
}

// CopyIndexTo copies the ticket's local index to dst, never the forwarding
// relationship. A zero dst allocates a fresh ticket.
func (tt *TicketTable) CopyIndexTo(src, dst Ticket) Ticket {
	if dst == 0 {
		dst = tt.createInternal(nil, tt.Name(src))
	}
	tt.setLocalIndex(dst, tt.LocalIndex(src))
	return dst
}

// CopyObjectTo copies the ticket's last-seen object id to dst. A zero dst
// allocates a fresh ticket.
func (tt *TicketTable) CopyObjectTo(src, dst Ticket) Ticket {
	if dst == 0 {
		dst = tt.createInternal(nil, tt.Name(src))
	}
	tt.SetObjectID(dst, tt.ObjectID(src))
	return dst
}

// Len returns the number of live tickets.
func (tt *TicketTable) Len() int {
	n := 0
	for i := range tt.records {
		if tt.records[i].valid {
			n++
		}
	}
	return n
}

// Clear drops every ticket. Outstanding Ticket values become invalid.
func (tt *TicketTable) Clear() {
	tt.records = tt.records[:0]
}

// Describe returns a human-readable form of the ticket for diagnostics.
func (tt *TicketTable) Describe(t Ticket) string {
	return fmt.Sprintf("Ticket[name=%s, worldIndex=%d]", tt.Name(t), tt.WorldIndex(t))
}
