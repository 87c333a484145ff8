package models

import "time"

// DocumentSlot names one of the three upload fields on the identification step.
type DocumentSlot string

const (
	SlotIDFront        DocumentSlot = "idFront"
	SlotIDBack         DocumentSlot = "idBack"
	SlotProofOfAddress DocumentSlot = "proofOfAddress"
)

var DocumentSlots = []DocumentSlot{SlotIDFront, SlotIDBack, SlotProofOfAddress}

func (s DocumentSlot) Valid() bool {
	switch s {
	case SlotIDFront, SlotIDBack, SlotProofOfAddress:
		return true
	}
	return false
}

// Label is the operator-facing name of the slot.
func (s DocumentSlot) Label() string {
	switch s {
	case SlotIDFront:
		return "ID Document (Front)"
	case SlotIDBack:
		return "ID Document (Back)"
	case SlotProofOfAddress:
		return "Proof of Address"
	}
	return string(s)
}

// DocumentRef points at an accepted upload held in the document store.
type DocumentRef struct {
	Key         string    `json:"key"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

func (r *DocumentRef) clone() *DocumentRef {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Document returns the reference held in slot, or nil.
func (d ApplicationDraft) Document(slot DocumentSlot) *DocumentRef {
	switch slot {
	case SlotIDFront:
		return d.Identification.IDFront
	case SlotIDBack:
		return d.Identification.IDBack
	case SlotProofOfAddress:
		return d.Identification.ProofOfAddress
	}
	return nil
}

// SetDocument stores ref in slot. Unknown slots are ignored.
func (d *ApplicationDraft) SetDocument(slot DocumentSlot, ref *DocumentRef) {
	switch slot {
	case SlotIDFront:
		d.Identification.IDFront = ref
	case SlotIDBack:
		d.Identification.IDBack = ref
	case SlotProofOfAddress:
		d.Identification.ProofOfAddress = ref
	}
}

// Documents returns the uploaded documents in slot order.
func (d ApplicationDraft) Documents() []DocumentRef {
	var out []DocumentRef
	for _, slot := range DocumentSlots {
		if ref := d.Document(slot); ref != nil {
			out = append(out, *ref)
		}
	}
	return out
}
