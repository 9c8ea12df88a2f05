package panel

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/temidaradev/coinwatch/internal/coin"
	"github.com/temidaradev/coinwatch/internal/controller"
	"github.com/temidaradev/coinwatch/internal/favorites"
	"github.com/temidaradev/coinwatch/internal/tracker"
)

type memStore struct{}

func (memStore) Load() ([]favorites.Entry, error) { return nil, nil }
func (memStore) Save([]favorites.Entry) error     { return nil }

// fakeController applies commands directly to a collection.
type fakeController struct {
	ticker   coin.Ticker
	interval int
	favs     *favorites.Collection
	tickers  []string
}

func newFake(t *testing.T, ticker coin.Ticker) *fakeController {
	t.Helper()
	favs, err := favorites.Open(memStore{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return &fakeController{ticker: ticker, interval: 60, favs: favs}
}

func (f *fakeController) Latest() controller.Snapshot {
	return controller.Snapshot{
		Ticker:     f.ticker,
		Interval:   f.interval,
		IsFavorite: f.favs.Has(f.ticker),
		Favorites:  f.favs.All(),
	}
}

func (f *fakeController) SetTicker(input string) error {
	t, err := coin.Parse(input)
	if err != nil {
		return err
	}
	f.ticker = t
	f.tickers = append(f.tickers, input)
	return nil
}

func (f *fakeController) SetInterval(seconds int) error {
	if seconds < tracker.MinIntervalSeconds || seconds > tracker.MaxIntervalSeconds {
		return tracker.ErrIntervalRange
	}
	f.interval = seconds
	return nil
}

func (f *fakeController) AddFavorite(input string, bg, fg favorites.Color) error {
	return f.favs.Add(coin.Normalize(input), bg, fg)
}

func (f *fakeController) UpdateFavorite(input string, patch favorites.Patch) error {
	return f.favs.Update(coin.Normalize(input), patch)
}

func (f *fakeController) RemoveFavorite(input string) error {
	return f.favs.Remove(coin.Normalize(input))
}

func TestPanel_TypeAndCommitTicker(t *testing.T) {
	ctrl := newFake(t, "bitcoin")
	p := New(ctrl)
	if p.Input(FieldTicker) != "bitcoin" {
		t.Fatalf("Ticker input should start with the active ticker, got %q", p.Input(FieldTicker))
	}

	for range "bitcoin" {
		p.Backspace()
	}
	p.Backspace()
	p.Type([]rune("EtHereum\n"))
	if p.Input(FieldTicker) != "EtHereum" {
		t.Fatalf("Control characters should be dropped, got %q", p.Input(FieldTicker))
	}
	p.Commit()

	if ctrl.ticker != "ethereum" {
		t.Errorf("Expected active ticker ethereum, got %s", ctrl.ticker)
	}
	if p.Input(FieldTicker) != "ethereum" {
		t.Errorf("Input should be normalized, got %q", p.Input(FieldTicker))
	}

	p.inputs[FieldTicker] = "  "
	p.Commit()
	if p.Message == "" || ctrl.ticker != "ethereum" {
		t.Errorf("Blank ticker should be rejected, message=%q ticker=%s", p.Message, ctrl.ticker)
	}
}

func TestPanel_Focus(t *testing.T) {
	p := New(newFake(t, "bitcoin"))
	p.FocusNext()
	if p.Focus != FieldLow {
		t.Errorf("Expected FieldLow, got %s", p.Focus)
	}
	p.FocusNext()
	p.FocusNext()
	if p.Focus != FieldTicker {
		t.Errorf("Focus should wrap to the ticker, got %s", p.Focus)
	}
	p.FocusPrev()
	if p.Focus != FieldHigh {
		t.Errorf("Expected FieldHigh, got %s", p.Focus)
	}
}

func TestPanel_Thresholds(t *testing.T) {
	ctrl := newFake(t, "bitcoin")
	p := New(ctrl)

	p.Focus = FieldLow
	p.Type([]rune("40000"))
	p.Commit()
	if !strings.Contains(p.Message, "Select a favorite") {
		t.Errorf("Thresholds need a selected favorite, message=%q", p.Message)
	}

	p.AddFavorite()
	if p.Selected != "bitcoin" {
		t.Fatalf("New favorite should be selected, got %q", p.Selected)
	}

	p.Focus = FieldLow
	p.inputs[FieldLow] = "40000"
	p.Commit()
	e, _ := ctrl.favs.Get("bitcoin")
	if !e.Low.Valid || !e.Low.Decimal.Equal(decimal.NewFromInt(40000)) {
		t.Fatalf("Low threshold not saved: %+v", e.Low)
	}

	p.inputs[FieldLow] = "forty"
	p.Commit()
	e, _ = ctrl.favs.Get("bitcoin")
	if !e.Low.Decimal.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("Invalid input must keep the previous value, got %s", e.Low.Decimal)
	}
	if p.Input(FieldLow) != "40000" {
		t.Errorf("Input should be restored, got %q", p.Input(FieldLow))
	}
	if !strings.Contains(p.Message, "numeric") {
		t.Errorf("Unexpected message %q", p.Message)
	}

	p.Focus = FieldHigh
	p.inputs[FieldHigh] = "70000.5"
	p.Commit()
	p.Focus = FieldLow
	p.inputs[FieldLow] = ""
	p.Commit()
	e, _ = ctrl.favs.Get("bitcoin")
	if e.Low.Valid {
		t.Error("Blank input should clear the low threshold")
	}
	if !e.High.Valid || e.High.Decimal.String() != "70000.5" {
		t.Errorf("High threshold not saved: %+v", e.High)
	}
}

func TestPanel_StepInterval(t *testing.T) {
	ctrl := newFake(t, "bitcoin")
	p := New(ctrl)

	p.StepInterval(3)
	if ctrl.interval != 90 {
		t.Errorf("Expected 90, got %d", ctrl.interval)
	}
	p.StepInterval(-100)
	if ctrl.interval != tracker.MinIntervalSeconds {
		t.Errorf("Expected clamp to %d, got %d", tracker.MinIntervalSeconds, ctrl.interval)
	}
	p.StepInterval(1000)
	if ctrl.interval != tracker.MaxIntervalSeconds {
		t.Errorf("Expected clamp to %d, got %d", tracker.MaxIntervalSeconds, ctrl.interval)
	}
}

func TestPanel_AddSelectRemove(t *testing.T) {
	ctrl := newFake(t, "bitcoin")
	p := New(ctrl)

	p.CycleBackground()
	p.AddFavorite()
	p.AddFavorite()
	if !strings.Contains(p.Message, "already a favorite") {
		t.Errorf("Unexpected duplicate message %q", p.Message)
	}
	e, _ := ctrl.favs.Get("bitcoin")
	if e.Background != BackgroundPalette[1] || e.Text != TextPalette[0] {
		t.Errorf("Favorite should use the selected palette colors: %+v", e)
	}

	p.inputs[FieldTicker] = "solana"
	p.AddFavorite()
	p.Select("bitcoin")
	if p.Selected != "bitcoin" || ctrl.ticker != "bitcoin" || p.Input(FieldTicker) != "bitcoin" {
		t.Errorf("Select should switch ticker: selected=%s active=%s", p.Selected, ctrl.ticker)
	}
	if p.BgIndex != 1 {
		t.Errorf("Palette index should follow the selected favorite, got %d", p.BgIndex)
	}

	p.Select("dogecoin")
	if p.Selected != "bitcoin" {
		t.Error("Selecting a non-favorite should be ignored")
	}

	p.CycleText()
	e, _ = ctrl.favs.Get("bitcoin")
	if e.Text != TextPalette[1] {
		t.Errorf("CycleText should recolor the selected favorite, got %s", e.Text)
	}

	p.RemoveSelected()
	if ctrl.favs.Has("bitcoin") || p.Selected != "" {
		t.Error("bitcoin should be removed and deselected")
	}
	p.RemoveSelected()
	if !strings.Contains(p.Message, "Select a favorite") {
		t.Errorf("Unexpected message %q", p.Message)
	}
}

func TestPanel_SyncDropsMissingSelection(t *testing.T) {
	ctrl := newFake(t, "bitcoin")
	_ = ctrl.favs.Add("bitcoin", favorites.DefaultBackground, favorites.DefaultText)
	p := New(ctrl)
	if p.Selected != "bitcoin" {
		t.Fatalf("Active favorite should start selected, got %q", p.Selected)
	}

	_ = ctrl.favs.Remove("bitcoin")
	p.Sync(ctrl.Latest())
	if p.Selected != "" {
		t.Errorf("Selection should be dropped, got %q", p.Selected)
	}
}

func TestPanel_SyncFollowsTickerSwitch(t *testing.T) {
	ctrl := newFake(t, "bitcoin")
	_ = ctrl.favs.Add("solana", favorites.Color{R: 20, G: 160, B: 110}, favorites.DefaultText)
	p := New(ctrl)

	ctrl.ticker = "solana"
	p.Sync(ctrl.Latest())
	if p.Input(FieldTicker) != "solana" || p.Selected != "solana" {
		t.Errorf("Form should follow the active ticker: input=%q selected=%q", p.Input(FieldTicker), p.Selected)
	}
	if p.BgIndex != 3 {
		t.Errorf("Palette should follow the favorite color, got %d", p.BgIndex)
	}
}
