package domain_test

import (
	"testing"

	"github.com/emprestai/emprestai-go/internal/domain"
)

func TestMetaFor_RoundsUpPartialPages(t *testing.T) {
	meta := domain.MetaFor(domain.Page{Number: 2, Size: 20}, 41)

	if meta.TotalPages != 3 {
		t.Errorf("expected 3 pages for 41 rows of 20, got %d", meta.TotalPages)
	}
	if meta.Page != 2 || meta.PageSize != 20 || meta.Total != 41 {
		t.Errorf("unexpected meta: %+v", meta)
	}
}

func TestMetaFor_ZeroPageSize(t *testing.T) {
	meta := domain.MetaFor(domain.Page{Number: 1, Size: 0}, 10)

	if meta.TotalPages != 0 {
		t.Errorf("expected 0 pages for zero page size, got %d", meta.TotalPages)
	}
	if meta.Total != 10 {
		t.Errorf("expected total 10, got %d", meta.Total)
	}
}
