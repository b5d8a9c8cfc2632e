// Package memory is an in-process staging Source.
package memory

import (
	"context"
	"maps"
	"sync"

	"radar/internal/staging"
)

// Source serves a fixed snapshot. Tables are present once Stage has been
// called for them, even with zero rows.
type Source struct {
	mu   sync.RWMutex
	snap staging.Snapshot
}

func New() *Source {
	return &Source{snap: staging.Snapshot{Inventory: staging.Inventory{}}}
}

// Stage replaces the rows of one table. rows must be a slice of the record
// type matching table.
func (s *Source) Stage(table staging.Table, rows any) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	switch table {
	case staging.TableCompanies:
		s.snap.Companies = rows.([]staging.CompanyRecord)
		n = len(s.snap.Companies)
	case staging.TablePartners:
		s.snap.Partners = rows.([]staging.PartnerRecord)
		n = len(s.snap.Partners)
	case staging.TableContracts:
		s.snap.Contracts = rows.([]staging.ContractRecord)
		n = len(s.snap.Contracts)
	case staging.TableSanctions:
		s.snap.Sanctions = rows.([]staging.SanctionRecord)
		n = len(s.snap.Sanctions)
	case staging.TableDonations:
		s.snap.Donations = rows.([]staging.DonationRecord)
		n = len(s.snap.Donations)
	case staging.TableServants:
		s.snap.Servants = rows.([]staging.ServantRecord)
		n = len(s.snap.Servants)
	case staging.TableEmployeeCounts:
		s.snap.EmployeeCounts = rows.([]staging.EmployeeCountRecord)
		n = len(s.snap.EmployeeCounts)
	default:
		panic("memory: unknown staging table " + string(table))
	}
	s.snap.Inventory[table] = n
	return s
}

// Drop removes a table as if it had never been staged.
func (s *Source) Drop(table staging.Table) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch table {
	case staging.TableCompanies:
		s.snap.Companies = nil
	case staging.TablePartners:
		s.snap.Partners = nil
	case staging.TableContracts:
		s.snap.Contracts = nil
	case staging.TableSanctions:
		s.snap.Sanctions = nil
	case staging.TableDonations:
		s.snap.Donations = nil
	case staging.TableServants:
		s.snap.Servants = nil
	case staging.TableEmployeeCounts:
		s.snap.EmployeeCounts = nil
	}
	delete(s.snap.Inventory, table)
	return s
}

func (s *Source) Inventory(_ context.Context) (staging.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.snap.Inventory), nil
}

func (s *Source) Load(_ context.Context) (*staging.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	snap.Inventory = maps.Clone(s.snap.Inventory)
	return &snap, nil
}
