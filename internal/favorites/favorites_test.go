package favorites

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/temidaradev/coinwatch/internal/coin"
)

var (
	orange = Color{R: 255, G: 165, B: 0}
	black  = Color{}
	teal   = Color{R: 0, G: 128, B: 128}
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func openTemp(t *testing.T) (*Collection, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "favorite_tickers.json")
	c, err := Open(NewFileStore(path, quietLogger()))
	if err != nil {
		t.Fatalf("Failed to open collection: %v", err)
	}
	return c, path
}

type failingStore struct {
	saves int
}

func (s *failingStore) Load() ([]Entry, error) { return nil, nil }

func (s *failingStore) Save([]Entry) error {
	s.saves++
	return errors.New("disk full")
}

func TestCollection_AddGetRemove(t *testing.T) {
	c, _ := openTemp(t)

	if err := c.Add("BitCoin", orange, black); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	e, ok := c.Get("bitcoin")
	if !ok {
		t.Fatal("Expected bitcoin to be a favorite")
	}
	if e.Ticker != "bitcoin" {
		t.Errorf("Ticker should be lower-cased, got %q", e.Ticker)
	}
	if e.Low.Valid || e.High.Valid {
		t.Error("Thresholds should start unset")
	}

	if err := c.Add("bitcoin", teal, black); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
	if err := c.Add("  ", teal, black); !errors.Is(err, coin.ErrEmptyTicker) {
		t.Errorf("Expected ErrEmptyTicker, got %v", err)
	}

	if err := c.Remove("bitcoin"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := c.Remove("bitcoin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if c.Has("bitcoin") {
		t.Error("bitcoin should be gone")
	}
}

func TestCollection_InsertionOrder(t *testing.T) {
	c, path := openTemp(t)
	for _, tk := range []coin.Ticker{"solana", "bitcoin", "ethereum", "cardano"} {
		if err := c.Add(tk, orange, black); err != nil {
			t.Fatalf("Add(%s) failed: %v", tk, err)
		}
	}
	if err := c.Remove("bitcoin"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	want := []coin.Ticker{"solana", "ethereum", "cardano"}
	check := func(name string, got []Entry) {
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d entries, got %d", name, len(want), len(got))
		}
		for i := range want {
			if got[i].Ticker != want[i] {
				t.Errorf("%s: entry %d = %s, want %s", name, i, got[i].Ticker, want[i])
			}
		}
	}
	check("in memory", c.All())

	reopened, err := Open(NewFileStore(path, quietLogger()))
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	check("reloaded", reopened.All())
}

func TestCollection_Update(t *testing.T) {
	c, path := openTemp(t)
	if err := c.Add("bitcoin", orange, black); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	low := decimal.NewNullDecimal(decimal.NewFromInt(40000))
	if err := c.Update("bitcoin", Patch{Low: &low}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	e, _ := c.Get("bitcoin")
	if !e.Low.Valid || !e.Low.Decimal.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("Low threshold not applied: %+v", e.Low)
	}
	if e.High.Valid {
		t.Error("High threshold should be untouched")
	}
	if e.Background != orange || e.Text != black {
		t.Error("Colors should be untouched by a threshold patch")
	}

	if err := c.Update("bitcoin", Patch{Text: &teal}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	e, _ = c.Get("bitcoin")
	if e.Text != teal || e.Background != orange || !e.Low.Valid {
		t.Errorf("Partial color patch changed other fields: %+v", e)
	}

	cleared := decimal.NullDecimal{}
	if err := c.Update("bitcoin", Patch{Low: &cleared}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	reopened, err := Open(NewFileStore(path, quietLogger()))
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	e, _ = reopened.Get("bitcoin")
	if e.Low.Valid {
		t.Error("Cleared threshold should persist as unset")
	}
	if e.Text != teal {
		t.Errorf("Expected persisted text color %s, got %s", teal, e.Text)
	}

	if err := c.Update("dogecoin", Patch{Text: &teal}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCollection_AddRemoveRoundTrip(t *testing.T) {
	c, path := openTemp(t)
	if err := c.Add("ethereum", teal, black); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	high := decimal.NewNullDecimal(decimal.RequireFromString("4000.5"))
	if err := c.Update("ethereum", Patch{High: &high}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if err := c.Add("bitcoin", orange, black); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := c.Remove("bitcoin"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("Persisted state changed:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestCollection_PersistFailureKeepsMutation(t *testing.T) {
	store := &failingStore{}
	c, err := Open(store)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	err = c.Add("bitcoin", orange, black)
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("Expected ErrPersist, got %v", err)
	}
	if !c.Has("bitcoin") {
		t.Error("In-memory add should survive a failed save")
	}
	if store.saves != 1 {
		t.Errorf("Expected one save attempt, got %d", store.saves)
	}
}

func TestCollection_Next(t *testing.T) {
	c, _ := openTemp(t)
	if _, ok := c.Next("bitcoin"); ok {
		t.Error("Empty collection has no next favorite")
	}
	for _, tk := range []coin.Ticker{"bitcoin", "ethereum", "solana"} {
		_ = c.Add(tk, orange, black)
	}

	tests := []struct {
		after, want coin.Ticker
	}{
		{"bitcoin", "ethereum"},
		{"ethereum", "solana"},
		{"solana", "bitcoin"},
		{"dogecoin", "bitcoin"},
	}
	for _, tt := range tests {
		got, ok := c.Next(tt.after)
		if !ok || got != tt.want {
			t.Errorf("Next(%s) = %s, want %s", tt.after, got, tt.want)
		}
	}
}

func TestCollection_Colors(t *testing.T) {
	c, _ := openTemp(t)
	_ = c.Add("bitcoin", orange, black)

	bg, fg := c.Colors("bitcoin")
	if bg.R != 255 || bg.G != 165 || bg.A != 204 {
		t.Errorf("Unexpected favorite background %+v", bg)
	}
	if fg.R != 0 || fg.A != 255 {
		t.Errorf("Unexpected favorite text %+v", fg)
	}

	bg, fg = c.Colors("ethereum")
	if bg.R != 75 || bg.G != 0 || bg.B != 130 || bg.A != 204 {
		t.Errorf("Unexpected default background %+v", bg)
	}
	if fg.R != 255 || fg.G != 255 || fg.B != 255 {
		t.Errorf("Unexpected default text %+v", fg)
	}
}

func TestCollection_Thresholds(t *testing.T) {
	c, _ := openTemp(t)
	_ = c.Add("bitcoin", orange, black)
	low := decimal.NewNullDecimal(decimal.NewFromInt(40000))
	_ = c.Update("bitcoin", Patch{Low: &low})

	l, h, ok := c.Thresholds("BITCOIN")
	if !ok || !l.Valid || h.Valid {
		t.Errorf("Unexpected thresholds: low=%+v high=%+v ok=%v", l, h, ok)
	}
	if _, _, ok := c.Thresholds("ethereum"); ok {
		t.Error("ethereum is not a favorite")
	}
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		in      string
		valid   bool
		want    string
		wantErr bool
	}{
		{"", false, "", false},
		{"   ", false, "", false},
		{"40000", true, "40000", false},
		{" 0.25 ", true, "0.25", false},
		{"-3", true, "-3", false},
		{"abc", false, "", true},
		{"1,000", false, "", true},
	}
	for _, tt := range tests {
		got, err := ParseThreshold(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidNumber) {
				t.Errorf("ParseThreshold(%q): expected ErrInvalidNumber, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseThreshold(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got.Valid != tt.valid {
			t.Errorf("ParseThreshold(%q).Valid = %v", tt.in, got.Valid)
		}
		if FormatThreshold(got) != tt.want {
			t.Errorf("ParseThreshold(%q) = %q, want %q", tt.in, FormatThreshold(got), tt.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"#4b0082", Color{75, 0, 130}, true},
		{"4B0082", Color{75, 0, 130}, true},
		{"#fff", Color{255, 255, 255}, true},
		{"#12345", Color{}, false},
		{"#gggggg", Color{}, false},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("ParseColor(%q) error = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseColor(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidColor) {
			t.Errorf("ParseColor(%q): expected ErrInvalidColor, got %v", tt.in, err)
		}
	}
	if s := (Color{75, 0, 130}).String(); s != "#4b0082" {
		t.Errorf("Expected #4b0082, got %s", s)
	}
}
