package service

import (
	"strings"

	"github.com/emprestai/emprestai-go/internal/domain"
)

// DiffAddresses computes the three-way reconciliation plan between an
// entity's stored address set and the submitted set. Submitted entries with
// a known id are updated, entries without one (or with an unknown id) are
// inserted, and stored rows absent from the submission are deleted.
func DiffAddresses(existing []domain.Address, submitted []domain.AddressInput) domain.AddressDiff {
	existingIDs := make(map[string]bool, len(existing))
	for _, a := range existing {
		existingIDs[a.ID] = true
	}

	var diff domain.AddressDiff
	kept := make(map[string]bool, len(submitted))
	for _, in := range submitted {
		if in.ID != "" && existingIDs[in.ID] {
			diff.Update = append(diff.Update, in)
			kept[in.ID] = true
			continue
		}
		in.ID = ""
		diff.Insert = append(diff.Insert, in)
	}

	for _, a := range existing {
		if !kept[a.ID] {
			diff.Delete = append(diff.Delete, a.ID)
		}
	}
	return diff
}

// normalizeAddress applies the storage invariants: postal code as 8 digits
// zero-padded, state upper-cased, default label.
func normalizeAddress(in domain.AddressInput) domain.AddressInput {
	in.PostalCode = normalizePostalCode(in.PostalCode)
	in.State = strings.ToUpper(strings.TrimSpace(in.State))
	if in.Label == "" {
		in.Label = domain.AddressPrimary
	}
	return in
}

func normalizeAddresses(in []domain.AddressInput) []domain.AddressInput {
	out := make([]domain.AddressInput, len(in))
	for i, a := range in {
		out[i] = normalizeAddress(a)
	}
	return out
}

// digitsOnly strips every non-digit rune.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizePostalCode keeps digits and left-pads to 8.
func normalizePostalCode(s string) string {
	digits := digitsOnly(s)
	if digits == "" {
		return ""
	}
	for len(digits) < 8 {
		digits = "0" + digits
	}
	return digits
}
