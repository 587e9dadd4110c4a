package models

import (
	"time"

	"github.com/google/uuid"
)

// PetStatus is the verification status of a pet.
type PetStatus string

const (
	PetStatusPending        PetStatus = "pending"
	PetStatusApproved       PetStatus = "approved"
	PetStatusRejected       PetStatus = "rejected"
	PetStatusActionRequired PetStatus = "action_required"
	PetStatusAppealed       PetStatus = "appealed"
)

// ValidPetStatus reports whether s is a known pet status.
func ValidPetStatus(s PetStatus) bool {
	switch s {
	case PetStatusPending, PetStatusApproved, PetStatusRejected, PetStatusActionRequired, PetStatusAppealed:
		return true
	}
	return false
}

// PetSize buckets used for coverage pricing.
type PetSize string

const (
	PetSizeSmall  PetSize = "small"
	PetSizeMedium PetSize = "medium"
	PetSizeLarge  PetSize = "large"
)

// Pet is a member's pet going through document verification. Pets are never
// hard-deleted; a rejected pet stays on record.
type Pet struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`

	Name    string  `json:"name"`
	Species string  `json:"species"`
	Breed   string  `json:"breed"`
	Size    PetSize `json:"size,omitempty"`

	// Waiting-period inputs captured at registration.
	IsOriginal bool `json:"is_original"` // false = replacement for a previously covered pet
	IsAdopted  bool `json:"is_adopted"`
	HasRUAC    bool `json:"has_ruac"` // registered in the national pet registry

	Status        PetStatus  `json:"status"`
	AdminNotes    string     `json:"admin_notes,omitempty"`
	AppealMessage string     `json:"appeal_message,omitempty"`
	AppealedAt    *time.Time `json:"appealed_at,omitempty"`

	WaitingPeriodStart time.Time `json:"waiting_period_start"`
	WaitingPeriodEnd   time.Time `json:"waiting_period_end"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentKind identifies the verification document type attached to a pet.
type DocumentKind string

const (
	DocumentPhoto           DocumentKind = "photo"
	DocumentVaccinationCard DocumentKind = "vaccination_card"
	DocumentRUACCertificate DocumentKind = "ruac_certificate"
	DocumentAdoptionPapers  DocumentKind = "adoption_papers"
)

// ValidDocumentKind reports whether k is a known document kind.
func ValidDocumentKind(k DocumentKind) bool {
	switch k {
	case DocumentPhoto, DocumentVaccinationCard, DocumentRUACCertificate, DocumentAdoptionPapers:
		return true
	}
	return false
}

// PetDocument is an S3-stored verification document for a pet.
type PetDocument struct {
	ID          uuid.UUID    `json:"id"`
	PetID       uuid.UUID    `json:"pet_id"`
	Kind        DocumentKind `json:"kind"`
	S3Key       string       `json:"s3_key"`
	ContentType string       `json:"content_type"`
	UploadedAt  time.Time    `json:"uploaded_at"`
}
