package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, target string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		target string
		want   Params
	}{
		{"/", Params{Limit: DefaultLimit}},
		{"/?limit=2&offset=4", Params{Limit: 2, Offset: 4}},
		{"/?limit=1000", Params{Limit: MaxLimit}},
		{"/?limit=-1&offset=-3", Params{Limit: DefaultLimit}},
		{"/?limit=abc", Params{Limit: DefaultLimit}},
	}
	for _, tt := range tests {
		if got := paramsFor(t, tt.target); got != tt.want {
			t.Errorf("%s: expected %+v, got %+v", tt.target, tt.want, got)
		}
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	first := Slice(items, Params{Limit: 2}, "/patients")
	if len(first.Items) != 2 || first.Items[0] != 1 {
		t.Errorf("unexpected first page %v", first.Items)
	}
	if first.Prev != "" {
		t.Errorf("expected no previous link, got %q", first.Prev)
	}
	if first.Next != "/patients?limit=2&offset=2" {
		t.Errorf("unexpected next link %q", first.Next)
	}

	last := Slice(items, Params{Limit: 2, Offset: 4}, "/patients")
	if len(last.Items) != 1 || last.Items[0] != 5 || last.Next != "" {
		t.Errorf("unexpected last page %+v", last)
	}
	if last.Prev != "/patients?limit=2&offset=2" {
		t.Errorf("unexpected previous link %q", last.Prev)
	}
	if last.Total != 5 {
		t.Errorf("expected total 5, got %d", last.Total)
	}
}

func TestSlice_OffsetPastEnd(t *testing.T) {
	page := Slice([]string{"a"}, Params{Limit: 10, Offset: 50}, "/p")
	if len(page.Items) != 0 || page.Next != "" {
		t.Errorf("expected an empty page, got %+v", page)
	}
	if page.Prev != "/p?limit=10&offset=0" {
		t.Errorf("unexpected previous link %q", page.Prev)
	}

	items := make([]int, 25)
	page2 := Slice(items, Params{Limit: 10, Offset: 50}, "/p")
	if len(page2.Items) != 0 {
		t.Errorf("expected an empty page, got %d items", len(page2.Items))
	}
	if page2.Prev != "/p?limit=10&offset=20" {
		t.Errorf("expected previous link to the last page, got %q", page2.Prev)
	}

	empty := Slice([]int{}, Params{Limit: 10, Offset: 30}, "/p")
	if empty.Prev != "" || empty.Next != "" {
		t.Errorf("expected no links for an empty listing, got %+v", empty)
	}
}
