// Package snapshot persists the in-memory registry as a versioned JSON document.
//
// Version history:
//
//	1: fee, balance, domains with subdomains, events
//	2: adds fee_paid on records and the withdrawal history
//	3: adds status on withdrawals; earlier withdrawals were all completed
//
// Older documents load into the current model: fields added later take their
// zero value and existing name, controller and registered_at values are kept as
// written. Field names are never reused for a different meaning.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"registrar/internal/registry/models"
)

// CurrentVersion is the version written by Save.
const CurrentVersion = 3

// Document is the serialized registry state.
type Document struct {
	Version     int                        `json:"version"`
	Fee         decimal.Decimal            `json:"fee"`
	Balance     decimal.Decimal            `json:"balance"`
	Domains     []Domain                   `json:"domains"`
	Events      []models.RegistrationEvent `json:"events"`
	Withdrawals []models.Withdrawal        `json:"withdrawals,omitempty"`
}

// Domain is a domain record with its subdomains, both in registration order.
type Domain struct {
	models.DomainRecord
	Subdomains []models.SubdomainRecord `json:"subdomains,omitempty"`
}

// Decode parses a document of any supported version and upgrades it in place.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	if doc.Version > CurrentVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", doc.Version, CurrentVersion)
	}
	upgrade(&doc)
	return &doc, nil
}

// upgrade fills fields that older versions did not carry.
func upgrade(doc *Document) {
	if doc.Version < 2 {
		for i := range doc.Domains {
			for j := range doc.Domains[i].Subdomains {
				if doc.Domains[i].Subdomains[j].Parent == "" {
					doc.Domains[i].Subdomains[j].Parent = doc.Domains[i].Name
				}
			}
		}
	}
	if doc.Version < 3 {
		for i := range doc.Withdrawals {
			if doc.Withdrawals[i].Status == "" {
				doc.Withdrawals[i].Status = models.WithdrawalCompleted
			}
		}
	}
	doc.Version = CurrentVersion
}

// Load reads a snapshot file. A missing file yields (nil, nil).
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Decode(data)
}

// Save writes doc atomically by renaming a temporary file over path.
func Save(path string, doc *Document) error {
	doc.Version = CurrentVersion
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
