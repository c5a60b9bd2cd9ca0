package evidence

import (
	"fmt"
	"time"

	"hipaa-compliance/internal/catalog"
)

// Item is one piece of proof attached to a question.
type Item struct {
	ID          string               `json:"id"`
	Kind        catalog.EvidenceType `json:"kind"`
	Name        string               `json:"name,omitempty"`
	URL         string               `json:"url,omitempty"`
	Path        string               `json:"path,omitempty"`
	Size        int64                `json:"size,omitempty"`
	ContentType string               `json:"content_type,omitempty"`
	Note        string               `json:"note,omitempty"`
	Signer      string               `json:"signer,omitempty"`
	AddedAt     time.Time            `json:"added_at"`
	AddedBy     uint                 `json:"added_by"`
}

// Data groups the items of one evidence record by kind. A question can
// accumulate any number of items of each kind over time.
type Data struct {
	Documents    []Item `json:"documents,omitempty"`
	Screenshots  []Item `json:"screenshots,omitempty"`
	Links        []Item `json:"links,omitempty"`
	Attestations []Item `json:"attestations,omitempty"`
	Logs         []Item `json:"logs,omitempty"`
	VendorProofs []Item `json:"vendor_proofs,omitempty"`
	Narratives   []Item `json:"narratives,omitempty"`
}

func (d *Data) slot(kind catalog.EvidenceType) *[]Item {
	switch kind {
	case catalog.EvidenceDocument:
		return &d.Documents
	case catalog.EvidenceScreenshot:
		return &d.Screenshots
	case catalog.EvidenceLink:
		return &d.Links
	case catalog.EvidenceAttestation:
		return &d.Attestations
	case catalog.EvidenceLog:
		return &d.Logs
	case catalog.EvidenceVendorProof:
		return &d.VendorProofs
	case catalog.EvidenceNarrative:
		return &d.Narratives
	}
	return nil
}

// Add appends an item under its kind.
func (d *Data) Add(it Item) error {
	s := d.slot(it.Kind)
	if s == nil {
		return fmt.Errorf("unknown evidence kind %q", it.Kind)
	}
	*s = append(*s, it)
	return nil
}

// Remove deletes the item with the given id, wherever it is filed.
func (d *Data) Remove(id string) (Item, bool) {
	for _, kind := range catalog.EvidenceTypes {
		s := d.slot(kind)
		for i, it := range *s {
			if it.ID == id {
				*s = append((*s)[:i:i], (*s)[i+1:]...)
				return it, true
			}
		}
	}
	return Item{}, false
}

// Items returns all items, grouped in catalog kind order.
func (d Data) Items() []Item {
	var out []Item
	for _, kind := range catalog.EvidenceTypes {
		out = append(out, *d.slot(kind)...)
	}
	return out
}

func (d Data) Count() int {
	n := 0
	for _, kind := range catalog.EvidenceTypes {
		n += len(*d.slot(kind))
	}
	return n
}

// HasAny backs the evidence_provided flag of a record.
func (d Data) HasAny() bool { return d.Count() > 0 }
