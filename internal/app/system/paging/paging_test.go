package paging

import (
	"net/http/httptest"
	"testing"
)

func page(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func TestTrimPage_ForwardOverflow(t *testing.T) {
	rows := page(PageSize + 1)
	res := TrimPage(&rows, "", "")

	if len(rows) != PageSize {
		t.Errorf("got %d rows, want %d", len(rows), PageSize)
	}
	if !res.HasNext || res.HasPrev {
		t.Errorf("first page overflow: %+v", res)
	}
}

func TestTrimPage_ForwardExact(t *testing.T) {
	rows := page(PageSize)
	res := TrimPage(&rows, "", "cursor")

	if len(rows) != PageSize {
		t.Errorf("got %d rows, want %d", len(rows), PageSize)
	}
	if res.HasNext {
		t.Error("exact page should have no next")
	}
	if !res.HasPrev {
		t.Error("after-cursor page should have prev")
	}
}

func TestTrimPage_Backward(t *testing.T) {
	rows := page(PageSize + 1)
	res := TrimPage(&rows, "cursor", "")

	if len(rows) != PageSize {
		t.Errorf("got %d rows, want %d", len(rows), PageSize)
	}
	if !res.HasPrev || !res.HasNext {
		t.Errorf("backward overflow: %+v", res)
	}
}

func TestComputeRange(t *testing.T) {
	r := ComputeRange(1, 25)
	if r.Start != 1 || r.End != 25 || r.PrevStart != 1 || r.NextStart != 26 {
		t.Errorf("first page: %+v", r)
	}

	r = ComputeRange(26, 10)
	if r.Start != 26 || r.End != 35 || r.PrevStart != 1 || r.NextStart != 36 {
		t.Errorf("second page: %+v", r)
	}

	r = ComputeRange(1, 0)
	if r.Start != 0 || r.End != 0 {
		t.Errorf("empty page: %+v", r)
	}
}

func TestParseStart(t *testing.T) {
	tests := []struct {
		url  string
		want int
	}{
		{"/admin/orders", 1},
		{"/admin/orders?start=26", 26},
		{"/admin/orders?start=0", 1},
		{"/admin/orders?start=abc", 1},
	}
	for _, tt := range tests {
		if got := ParseStart(httptest.NewRequest("GET", tt.url, nil)); got != tt.want {
			t.Errorf("ParseStart(%q) = %d, want %d", tt.url, got, tt.want)
		}
	}
}

func TestReverse(t *testing.T) {
	rows := []int{1, 2, 3}
	Reverse(rows)
	if rows[0] != 3 || rows[2] != 1 {
		t.Errorf("got %v", rows)
	}
}
