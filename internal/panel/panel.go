// Package panel holds the settings form behind the widget: the ticker and
// threshold inputs, favorite selection, palettes and interval stepping. It
// turns edits into controller commands and has no rendering code.
package panel

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/temidaradev/coinwatch/internal/coin"
	"github.com/temidaradev/coinwatch/internal/controller"
	"github.com/temidaradev/coinwatch/internal/favorites"
	"github.com/temidaradev/coinwatch/internal/tracker"
)

type Field int

const (
	FieldTicker Field = iota
	FieldLow
	FieldHigh
	fieldCount
)

func (f Field) String() string {
	switch f {
	case FieldLow:
		return "Low Threshold"
	case FieldHigh:
		return "High Threshold"
	default:
		return "Ticker"
	}
}

// IntervalStep is the change applied by one StepInterval call.
const IntervalStep = 10

var BackgroundPalette = []favorites.Color{
	favorites.DefaultBackground,
	{R: 247, G: 147, B: 26},
	{R: 98, G: 126, B: 234},
	{R: 20, G: 160, B: 110},
	{R: 0, G: 51, B: 173},
	{R: 186, G: 33, B: 45},
	{R: 40, G: 40, B: 40},
}

var TextPalette = []favorites.Color{
	favorites.DefaultText,
	{R: 0, G: 0, B: 0},
	{R: 255, G: 215, B: 0},
	{R: 200, G: 200, B: 200},
}

// Controller is the subset of *controller.Controller the form drives.
type Controller interface {
	Latest() controller.Snapshot
	SetTicker(input string) error
	SetInterval(seconds int) error
	AddFavorite(input string, background, text favorites.Color) error
	UpdateFavorite(input string, patch favorites.Patch) error
	RemoveFavorite(input string) error
}

type Panel struct {
	ctrl   Controller
	active coin.Ticker

	Focus     Field
	inputs    [fieldCount]string
	Selected  coin.Ticker
	BgIndex   int
	TextIndex int
	Message   string
}

func New(ctrl Controller) *Panel {
	snap := ctrl.Latest()
	p := &Panel{ctrl: ctrl, active: snap.Ticker}
	p.inputs[FieldTicker] = snap.Ticker.String()
	if snap.IsFavorite {
		p.selectEntry(snap.Ticker, snap.Favorites)
	}
	return p
}

func (p *Panel) Input(f Field) string {
	return p.inputs[f]
}

func (p *Panel) Background() favorites.Color {
	return BackgroundPalette[p.BgIndex%len(BackgroundPalette)]
}

func (p *Panel) Text() favorites.Color {
	return TextPalette[p.TextIndex%len(TextPalette)]
}

// Type appends printable runes to the focused input.
func (p *Panel) Type(runes []rune) {
	for _, r := range runes {
		if unicode.IsPrint(r) {
			p.inputs[p.Focus] += string(r)
		}
	}
}

func (p *Panel) Backspace() {
	s := []rune(p.inputs[p.Focus])
	if len(s) > 0 {
		p.inputs[p.Focus] = string(s[:len(s)-1])
	}
}

func (p *Panel) FocusNext() {
	p.Focus = (p.Focus + 1) % fieldCount
}

func (p *Panel) FocusPrev() {
	p.Focus = (p.Focus + fieldCount - 1) % fieldCount
}

// Commit applies the focused input.
func (p *Panel) Commit() {
	switch p.Focus {
	case FieldTicker:
		p.commitTicker()
	case FieldLow, FieldHigh:
		p.commitThreshold(p.Focus)
	}
}

func (p *Panel) commitTicker() {
	ticker, err := coin.Parse(p.inputs[FieldTicker])
	if err != nil {
		p.Message = "Enter a ticker"
		return
	}
	p.inputs[FieldTicker] = ticker.String()
	if err := p.ctrl.SetTicker(ticker.String()); err != nil {
		p.Message = err.Error()
		return
	}
	p.Message = ""
	favs := p.ctrl.Latest().Favorites
	if _, ok := find(favs, ticker); ok {
		p.selectEntry(ticker, favs)
	}
}

// commitThreshold keeps the previous value when the input is not a number.
func (p *Panel) commitThreshold(f Field) {
	entry, ok := find(p.ctrl.Latest().Favorites, p.Selected)
	if !ok {
		p.Message = "Select a favorite first"
		return
	}
	previous := entry.Low
	if f == FieldHigh {
		previous = entry.High
	}

	value, err := favorites.ParseThreshold(p.inputs[f])
	if err != nil {
		p.inputs[f] = favorites.FormatThreshold(previous)
		p.Message = "Invalid input. Please enter numeric values."
		return
	}

	patch := favorites.Patch{Low: &value}
	if f == FieldHigh {
		patch = favorites.Patch{High: &value}
	}
	if err := p.ctrl.UpdateFavorite(p.Selected.String(), patch); err != nil {
		p.Message = err.Error()
		return
	}
	p.inputs[f] = favorites.FormatThreshold(value)
	p.Message = fmt.Sprintf("%s saved for %s", f, p.Selected)
}

// StepInterval moves the interval by steps*IntervalStep seconds, clamped
// to the allowed range.
func (p *Panel) StepInterval(steps int) {
	cur := p.ctrl.Latest().Interval
	next := cur + steps*IntervalStep
	if next < tracker.MinIntervalSeconds {
		next = tracker.MinIntervalSeconds
	}
	if next > tracker.MaxIntervalSeconds {
		next = tracker.MaxIntervalSeconds
	}
	if next == cur {
		return
	}
	if err := p.ctrl.SetInterval(next); err != nil {
		p.Message = err.Error()
	}
}

// Select makes ticker the selected favorite and the active ticker.
func (p *Panel) Select(ticker coin.Ticker) {
	favs := p.ctrl.Latest().Favorites
	if _, ok := find(favs, ticker); !ok {
		return
	}
	p.selectEntry(ticker, favs)
	p.inputs[FieldTicker] = ticker.String()
	if err := p.ctrl.SetTicker(ticker.String()); err != nil {
		p.Message = err.Error()
	}
}

// AddFavorite adds the ticker input (or the active ticker when the input
// is blank) with the selected palette colors.
func (p *Panel) AddFavorite() {
	input := strings.TrimSpace(p.inputs[FieldTicker])
	if input == "" {
		input = p.ctrl.Latest().Ticker.String()
	}
	err := p.ctrl.AddFavorite(input, p.Background(), p.Text())
	switch {
	case errors.Is(err, favorites.ErrDuplicate):
		p.Message = fmt.Sprintf("%s is already a favorite", coin.Normalize(input))
		return
	case errors.Is(err, favorites.ErrPersist):
		p.Message = "Favorite added but could not be saved"
	case err != nil:
		p.Message = err.Error()
		return
	default:
		p.Message = fmt.Sprintf("Added %s", coin.Normalize(input))
	}
	p.selectEntry(coin.Normalize(input), p.ctrl.Latest().Favorites)
}

func (p *Panel) RemoveSelected() {
	if p.Selected == "" {
		p.Message = "Select a favorite first"
		return
	}
	removed := p.Selected
	if err := p.ctrl.RemoveFavorite(removed.String()); err != nil && !errors.Is(err, favorites.ErrPersist) {
		p.Message = err.Error()
		return
	}
	p.Selected = ""
	p.inputs[FieldLow] = ""
	p.inputs[FieldHigh] = ""
	p.Message = fmt.Sprintf("Removed %s", removed)
}

// CycleBackground advances the background palette and recolors the
// selected favorite.
func (p *Panel) CycleBackground() {
	p.BgIndex = (p.BgIndex + 1) % len(BackgroundPalette)
	if p.Selected != "" {
		bg := p.Background()
		p.recolor(favorites.Patch{Background: &bg})
	}
}

func (p *Panel) CycleText() {
	p.TextIndex = (p.TextIndex + 1) % len(TextPalette)
	if p.Selected != "" {
		fg := p.Text()
		p.recolor(favorites.Patch{Text: &fg})
	}
}

func (p *Panel) recolor(patch favorites.Patch) {
	if err := p.ctrl.UpdateFavorite(p.Selected.String(), patch); err != nil {
		p.Message = err.Error()
	}
}

// Sync follows ticker switches made outside the form and drops a
// selection whose favorite disappeared.
func (p *Panel) Sync(snap controller.Snapshot) {
	if snap.Ticker != p.active {
		p.active = snap.Ticker
		p.inputs[FieldTicker] = snap.Ticker.String()
		p.selectEntry(snap.Ticker, snap.Favorites)
	}
	if p.Selected == "" {
		return
	}
	if _, ok := find(snap.Favorites, p.Selected); !ok {
		p.Selected = ""
		p.inputs[FieldLow] = ""
		p.inputs[FieldHigh] = ""
	}
}

func (p *Panel) selectEntry(ticker coin.Ticker, favs []favorites.Entry) {
	e, ok := find(favs, ticker)
	if !ok {
		return
	}
	p.Selected = ticker
	p.inputs[FieldLow] = favorites.FormatThreshold(e.Low)
	p.inputs[FieldHigh] = favorites.FormatThreshold(e.High)
	p.BgIndex = paletteIndex(BackgroundPalette, e.Background, p.BgIndex)
	p.TextIndex = paletteIndex(TextPalette, e.Text, p.TextIndex)
}

func find(favs []favorites.Entry, ticker coin.Ticker) (favorites.Entry, bool) {
	for _, e := range favs {
		if e.Ticker == ticker {
			return e, true
		}
	}
	return favorites.Entry{}, false
}

func paletteIndex(palette []favorites.Color, c favorites.Color, fallback int) int {
	for i, pc := range palette {
		if pc == c {
			return i
		}
	}
	return fallback
}
