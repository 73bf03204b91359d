package params

import (
	"net/url"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantPage   int
		wantOffset int
	}{
		{name: "defaults", query: "", wantLimit: 20, wantPage: 1, wantOffset: 0},
		{name: "explicit", query: "limit=30&page=2", wantLimit: 30, wantPage: 2, wantOffset: 30},
		{name: "limit capped", query: "limit=500", wantLimit: 100, wantPage: 1, wantOffset: 0},
		{name: "bad values fall back", query: "limit=abc&page=-1", wantLimit: 20, wantPage: 1, wantOffset: 0},
		{name: "zero limit falls back", query: "limit=0&page=3", wantLimit: 20, wantPage: 3, wantOffset: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			p := ParsePagination(q)
			if p.Limit != tt.wantLimit || p.Page != tt.wantPage || p.Offset != tt.wantOffset {
				t.Errorf("got limit=%d page=%d offset=%d, want limit=%d page=%d offset=%d",
					p.Limit, p.Page, p.Offset, tt.wantLimit, tt.wantPage, tt.wantOffset)
			}
		})
	}
}

func TestComputeMeta(t *testing.T) {
	p := Pagination{Limit: 20, Page: 2, Offset: 20}
	p.ComputeMeta(45)

	if p.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", p.TotalPages)
	}
	if !p.HasPrev {
		t.Error("HasPrev should be true on page 2")
	}
	if !p.HasNext {
		t.Error("HasNext should be true with 45 total and 40 seen")
	}

	p = Pagination{Limit: 20, Page: 3, Offset: 40}
	p.ComputeMeta(45)
	if p.HasNext {
		t.Error("HasNext should be false on the last page")
	}
}
