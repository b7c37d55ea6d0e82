/*
memory.go - In-memory claims Directory

PURPOSE:
  Backs tests and examples with a claim graph held in maps. Thread-safe;
  validation passes only read.
*/
package claims

import (
	"context"
	"sync"
)

// MemoryDirectory is an in-memory Directory.
type MemoryDirectory struct {
	mu     sync.RWMutex
	claims map[string]*memClaim
	queues map[string]bool
}

type memClaim struct {
	coverages []Coverage
	lineItems map[string]LineItem
}

// NewMemoryDirectory returns an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		claims: make(map[string]*memClaim),
		queues: make(map[string]bool),
	}
}

// AddClaim registers a claim.
func (d *MemoryDirectory) AddClaim(claimID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ensureClaim(claimID)
}

// AddCoverage registers an active coverage on a claim.
func (d *MemoryDirectory) AddCoverage(claimID string, c Coverage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cl := d.ensureClaim(claimID)
	cl.coverages = append(cl.coverages, c)
}

// AddLineItem registers an active line item on a claim.
func (d *MemoryDirectory) AddLineItem(claimID string, li LineItem) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cl := d.ensureClaim(claimID)
	cl.lineItems[li.ID] = li
}

// AddQueue registers a claim queue name.
func (d *MemoryDirectory) AddQueue(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queues[name] = true
}

func (d *MemoryDirectory) ensureClaim(claimID string) *memClaim {
	cl, ok := d.claims[claimID]
	if !ok {
		cl = &memClaim{lineItems: make(map[string]LineItem)}
		d.claims[claimID] = cl
	}
	return cl
}

// ClaimExists implements Directory.
func (d *MemoryDirectory) ClaimExists(_ context.Context, claimID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.claims[claimID]
	return ok, nil
}

// ActiveCoverages implements Directory.
func (d *MemoryDirectory) ActiveCoverages(_ context.Context, claimID string) ([]Coverage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cl, ok := d.claims[claimID]
	if !ok {
		return nil, nil
	}
	out := make([]Coverage, len(cl.coverages))
	copy(out, cl.coverages)
	return out, nil
}

// ActiveLineItem implements Directory.
func (d *MemoryDirectory) ActiveLineItem(_ context.Context, claimID, lineItemID string) (*LineItem, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cl, ok := d.claims[claimID]
	if !ok {
		return nil, nil
	}
	li, ok := cl.lineItems[lineItemID]
	if !ok {
		return nil, nil
	}
	return &li, nil
}

// QueueExists implements Directory.
func (d *MemoryDirectory) QueueExists(_ context.Context, name string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.queues[name], nil
}
