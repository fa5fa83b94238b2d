package queue

import (
	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/types"
)

// Field selects the item fields a transaction captures.
type Field uint8

const (
	FieldStatus Field = 1 << iota
	FieldMessage
)

type snapshotEntry struct {
	clientID     string
	fields       Field
	priorStatus  types.Status
	priorMessage string
}

// Tx captures prior field values of a set of items before a speculative
// mutation, so the mutation can be reverted as a unit. A Tx is single level:
// it does not compose with another Tx over the same items.
type Tx struct {
	store   *Store
	entries []snapshotEntry
	done    bool
}

// BeginProcessing resolves ids (server or client identifiers), keeps the items
// that may be included in a processing request, captures their status and
// message and applies the optimistic transition: status processing, message
// cleared, progress raised to at least 5. All of it happens in one critical
// section, so an item can be part of at most one batch at a time.
// Unknown, repeated and ineligible ids are skipped.
func (s *Store) BeginProcessing(ids []string) (*Tx, []Item) {
	s.mu.Lock()
	tx := &Tx{store: s, entries: make([]snapshotEntry, 0, len(ids))}
	var begun []Item
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		item := s.lookupLocked(id)
		if item == nil {
			tool.DefaultLogger.Debugf("Skipping unknown item %s", id)
			continue
		}
		if _, dup := seen[item.ClientID]; dup {
			continue
		}
		seen[item.ClientID] = struct{}{}
		if !CanRequestProcessing(item.view()) {
			tool.DefaultLogger.Debugf("Skipping %s in state %s", item.Name, item.Status)
			continue
		}
		tx.entries = append(tx.entries, snapshotEntry{
			clientID:     item.ClientID,
			fields:       FieldStatus | FieldMessage,
			priorStatus:  item.Status,
			priorMessage: item.Message,
		})
		item.Status = types.StatusProcessing
		item.Message = ""
		item.Progress = max(item.Progress, 5)
		item.enforce()
		begun = append(begun, item.view())
	}
	s.mu.Unlock()
	if len(begun) > 0 {
		s.changed()
	}
	return tx, begun
}

// Commit keeps the speculative state.
func (tx *Tx) Commit() {
	tx.done = true
}

// Rollback restores exactly the captured fields of every item in one critical
// section. Fields outside the captured set keep whatever they hold now.
// Calling Rollback after Commit or a previous Rollback is a no-op.
func (tx *Tx) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	s := tx.store
	s.mu.Lock()
	for _, e := range tx.entries {
		item, ok := s.byClient[e.clientID]
		if !ok {
			continue
		}
		if e.fields&FieldStatus != 0 {
			item.Status = e.priorStatus
		}
		if e.fields&FieldMessage != 0 {
			item.Message = e.priorMessage
		}
		item.enforce()
	}
	s.mu.Unlock()
	s.changed()
}
