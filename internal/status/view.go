package status

import (
	"fmt"
	"image/color"
	"time"

	"github.com/mailru/easyjson/jwriter"

	"github.com/temidaradev/coinwatch/internal/controller"
	"github.com/temidaradev/coinwatch/internal/tracker"
)

// statusView is the JSON body of GET /status.
type statusView struct {
	snap controller.Snapshot
}

func newStatusView(snap controller.Snapshot) statusView {
	return statusView{snap: snap}
}

// MarshalEasyJSON implements easyjson.Marshaler.
func (v statusView) MarshalEasyJSON(w *jwriter.Writer) {
	snap := v.snap
	res := snap.Result
	// Only a result for the active ticker describes what is shown.
	current := snap.HasResult && res.Ticker == snap.Ticker

	w.RawString(`{"ticker":`)
	w.String(snap.Ticker.String())
	w.RawString(`,"label":`)
	w.String(snap.Label)

	w.RawString(`,"price":`)
	if current && res.OK() {
		w.RawString(res.Price.String())
	} else {
		w.RawString("null")
	}

	w.RawString(`,"change_percent":`)
	if current && res.Change != nil {
		w.RawString(res.Change.Percent.Round(4).String())
	} else {
		w.RawString("null")
	}
	w.RawString(`,"direction":`)
	if current && res.Change != nil {
		w.String(res.Change.Direction.String())
	} else {
		w.RawString("null")
	}

	state := tracker.NoFavorite
	if current && res.OK() {
		state = res.State
	}
	w.RawString(`,"state":`)
	w.String(state.String())
	w.RawString(`,"opacity":`)
	w.Float64(state.Opacity())

	w.RawString(`,"error":`)
	if snap.HasResult && !res.OK() {
		w.String(res.Err.Error())
	} else {
		w.RawString("null")
	}

	w.RawString(`,"observed_at":`)
	if current && res.OK() {
		w.String(res.ObservedAt.UTC().Format(time.RFC3339))
	} else {
		w.RawString("null")
	}

	w.RawString(`,"interval_seconds":`)
	w.Int(snap.Interval)
	w.RawString(`,"polling":`)
	w.Bool(snap.Polling)
	w.RawString(`,"favorite":`)
	w.Bool(snap.IsFavorite)
	w.RawString(`,"background":`)
	w.String(hex(snap.Background))
	w.RawString(`,"text":`)
	w.String(hex(snap.Text))
	w.RawByte('}')
}

func hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
