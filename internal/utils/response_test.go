package utils

import (
	"encoding/json"
	"testing"
)

func TestPaginationJSONShape(t *testing.T) {
	b, err := json.Marshal(NewPagination(2, 10, 25))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"page", "limit", "total", "totalPages"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("pagination payload %s is missing %q", b, key)
		}
	}
	if got := m["totalPages"].(float64); got != 3 {
		t.Fatalf("totalPages = %v, want 3", got)
	}
}

func TestPaginationZeroLimit(t *testing.T) {
	if p := NewPagination(1, 0, 10); p.TotalPages != 0 {
		t.Fatalf("totalPages = %d, want 0 when limit is 0", p.TotalPages)
	}
}
