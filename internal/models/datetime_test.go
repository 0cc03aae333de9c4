package models

import (
	"testing"
	"time"
)

func TestFormatMacedonianDate(t *testing.T) {
	got := FormatMacedonianDate(time.Date(2025, time.March, 5, 18, 30, 0, 0, time.UTC))
	want := "среда, 5 март 2025"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	cases := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"seconds", 42 * time.Second, "пред 42 секунди"},
		{"minutes", 5 * time.Minute, "пред 5 минути"},
		{"hours", 3 * time.Hour, "пред 3 часа"},
		{"days", 50 * time.Hour, "пред 2 дена"},
		{"future clamps to zero", -time.Minute, "пред 0 секунди"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := TimeAgo(now.Add(-c.elapsed).UnixMilli(), now)
			if got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestIsCategory(t *testing.T) {
	if !IsCategory("Бизнис") {
		t.Error("expected Бизнис to be a category")
	}
	if IsCategory("Basketball") {
		t.Error("did not expect Basketball to be a category")
	}
}

func TestUpdatePostRequestFields(t *testing.T) {
	title := "New title"
	req := UpdatePostRequest{ID: "abc", Title: &title}
	fields := req.Fields()
	if len(fields) != 1 {
		t.Fatalf("got %d fields, want 1: %v", len(fields), fields)
	}
	if fields["title"] != title {
		t.Errorf("got title %v, want %q", fields["title"], title)
	}
}
