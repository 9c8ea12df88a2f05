// Package widget is the ebiten shell: a small undecorated window showing
// the price label, with a settings view toggled by Tab. It renders
// controller snapshots and turns input into controller commands.
package widget

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sirupsen/logrus"
	"github.com/temidaradev/esset/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/temidaradev/coinwatch/internal/config"
	"github.com/temidaradev/coinwatch/internal/controller"
	"github.com/temidaradev/coinwatch/internal/icon"
	"github.com/temidaradev/coinwatch/internal/panel"
)

const glyphsToPreload = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789.,:/$%#*>()[]+- ↑↓"

const (
	settingsWidth  = 440
	settingsHeight = 380
	iconSize       = 64
	padding        = 10.0
)

const defaultTitle = "CoinWatch"

var (
	settingsBg   = color.RGBA{25, 25, 25, 255}
	settingsText = color.RGBA{255, 255, 255, 255}
	dimText      = color.RGBA{150, 150, 150, 255}
	focusText    = color.RGBA{255, 215, 0, 255}
	messageText  = color.RGBA{255, 120, 120, 255}
)

// Controller is what the window needs from *controller.Controller.
type Controller interface {
	panel.Controller
	Subscribe() <-chan controller.Snapshot
	NextFavorite() error
	Refresh() error
}

type favoriteHit struct {
	bounds image.Rectangle
	entry  int
}

type Game struct {
	ctx     context.Context
	ctrl    Controller
	form    *panel.Panel
	logger  *logrus.Entry
	cfg     config.WidgetConfig
	updates <-chan controller.Snapshot

	snap       controller.Snapshot
	fontFace   text.Face
	lineHeight float64
	coinImage  *ebiten.Image

	settings   bool
	dragging   bool
	dragX      int
	dragY      int
	title      string
	favoriteAt []favoriteHit
}

// Run opens the window and blocks until it is closed, Escape is pressed
// or ctx is done. It must be called from the main goroutine.
func Run(ctx context.Context, ctrl Controller, cfg config.WidgetConfig, logger *logrus.Logger) error {
	fontFace, err := esset.GetFont(goregular.TTF, int(cfg.FontSize))
	if err != nil {
		return fmt.Errorf("font could not be loaded with size %v: %w", cfg.FontSize, err)
	}

	log := logger.WithField("component", "widget")
	log.Debug("Glyph caching...")
	tempImage := ebiten.NewImage(1, 1)
	text.Draw(tempImage, glyphsToPreload, fontFace, &text.DrawOptions{})
	log.Debug("Glyph caching done")

	g := &Game{
		ctx:        ctx,
		ctrl:       ctrl,
		form:       panel.New(ctrl),
		logger:     log,
		cfg:        cfg,
		updates:    ctrl.Subscribe(),
		snap:       ctrl.Latest(),
		fontFace:   fontFace,
		lineHeight: cfg.FontSize * 1.5,
	}
	g.setIcon(icon.Coin(iconSize))
	g.setTitle(g.snap)

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowDecorated(false)
	ebiten.SetWindowFloating(cfg.Floating)

	err = ebiten.RunGameWithOptions(g, &ebiten.RunGameOptions{ScreenTransparent: true})
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("widget run failure: %w", err)
	}
	return nil
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	g.drainUpdates()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.logger.Info("Quit requested")
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.toggleSettings()
		return nil
	}

	if g.settings {
		g.updateSettings()
	} else {
		g.updateWidget()
	}
	return nil
}

func (g *Game) drainUpdates() {
	for {
		select {
		case snap := <-g.updates:
			g.apply(snap)
		default:
			return
		}
	}
}

func (g *Game) apply(snap controller.Snapshot) {
	g.snap = snap
	g.form.Sync(snap)
	g.setTitle(snap)
	if !snap.HasResult || snap.Result.Ticker != snap.Ticker {
		return
	}
	if img, ok := icon.ForResult(iconSize, snap.Tint, snap.Result); ok {
		g.setIcon(img)
	}
}

// setTitle shows the label in the window title, which desktop task bars
// use as a tooltip. Failed polls fall back to the app name.
func (g *Game) setTitle(snap controller.Snapshot) {
	title := snap.Label
	if !snap.HasResult || !snap.Result.OK() || snap.Result.Ticker != snap.Ticker {
		title = defaultTitle
	}
	if title == g.title {
		return
	}
	g.title = title
	ebiten.SetWindowTitle(title)
}

func (g *Game) setIcon(img *image.NRGBA) {
	ebiten.SetWindowIcon([]image.Image{img})
	g.coinImage = ebiten.NewImageFromImage(img)
}

func (g *Game) toggleSettings() {
	g.settings = !g.settings
	g.dragging = false
	if g.settings {
		ebiten.SetWindowSize(settingsWidth, settingsHeight)
		return
	}
	ebiten.SetWindowSize(g.cfg.Width, g.cfg.Height)
}

func (g *Game) updateWidget() {
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight):
		g.toggleSettings()
		return
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.report(g.ctrl.NextFavorite())
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.report(g.ctrl.Refresh())
	}
	g.updateDrag()
}

// updateDrag moves the window by the cursor offset from where the drag
// started. Cursor coordinates are window-relative, so the offset stays
// small while the window follows.
func (g *Game) updateDrag() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.dragging = true
		g.dragX, g.dragY = ebiten.CursorPosition()
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.dragging = false
		return
	}
	if !g.dragging {
		return
	}
	mx, my := ebiten.CursorPosition()
	dx, dy := mx-g.dragX, my-g.dragY
	if dx == 0 && dy == 0 {
		return
	}
	wx, wy := ebiten.WindowPosition()
	ebiten.SetWindowPosition(wx+dx, wy+dy)
}

func (g *Game) updateSettings() {
	ctrlDown := ebiten.IsKeyPressed(ebiten.KeyControl)

	if ctrlDown {
		switch {
		case inpututil.IsKeyJustPressed(ebiten.KeyA):
			g.form.AddFavorite()
		case inpututil.IsKeyJustPressed(ebiten.KeyC):
			g.form.CycleBackground()
		case inpututil.IsKeyJustPressed(ebiten.KeyT):
			g.form.CycleText()
		case inpututil.IsKeyJustPressed(ebiten.KeyD):
			g.form.RemoveSelected()
		}
	} else {
		g.form.Type(ebiten.AppendInputChars(nil))
	}

	switch {
	case repeatingKeyPressed(ebiten.KeyBackspace):
		g.form.Backspace()
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter), inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter):
		g.form.Commit()
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		g.form.FocusNext()
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		g.form.FocusPrev()
	case repeatingKeyPressed(ebiten.KeyArrowRight):
		g.form.StepInterval(1)
	case repeatingKeyPressed(ebiten.KeyArrowLeft):
		g.form.StepInterval(-1)
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		pt := image.Pt(mx, my)
		for _, hit := range g.favoriteAt {
			if pt.In(hit.bounds) && hit.entry < len(g.snap.Favorites) {
				ticker := g.snap.Favorites[hit.entry].Ticker
				g.logger.WithField("ticker", ticker).Debug("Favorite clicked")
				g.form.Select(ticker)
				break
			}
		}
	}
}

func (g *Game) report(err error) {
	if err != nil {
		g.logger.WithError(err).Warn("Command failed")
	}
}

// repeatingKeyPressed fires on press and then repeatedly while held.
func repeatingKeyPressed(key ebiten.Key) bool {
	const (
		delay    = 30
		interval = 3
	)
	d := inpututil.KeyPressDuration(key)
	if d == 1 {
		return true
	}
	return d >= delay && (d-delay)%interval == 0
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.settings {
		g.drawSettings(screen)
		return
	}
	g.drawWidget(screen)
}

func (g *Game) drawWidget(screen *ebiten.Image) {
	screen.Fill(g.snap.Background)

	bounds := screen.Bounds()
	height := float64(bounds.Dy())
	iconSide := height - 2*padding
	if g.coinImage != nil && iconSide > 0 {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(iconSide/iconSize, iconSide/iconSize)
		op.GeoM.Translate(padding, padding)
		screen.DrawImage(g.coinImage, op)
	}

	left := padding + iconSide + padding
	label := g.snap.Label
	textWidth, textHeight := text.Measure(label, g.fontFace, g.lineHeight)
	drawX := left + (float64(bounds.Dx())-left-textWidth)/2.0
	if drawX < left {
		drawX = left
	}
	drawY := (height - textHeight) / 2.0
	esset.DrawText(screen, label, 0, drawX, drawY, g.fontFace, toRGBA(g.snap.Text))
}

func (g *Game) drawSettings(screen *ebiten.Image) {
	screen.Fill(settingsBg)

	y := padding
	for f := panel.FieldTicker; f <= panel.FieldHigh; f++ {
		clr, marker := settingsText, "  "
		if f == g.form.Focus {
			clr, marker = focusText, "> "
		}
		esset.DrawText(screen, fmt.Sprintf("%s%s: %s", marker, f, g.form.Input(f)), 0, padding, y, g.fontFace, clr)
		y += g.lineHeight
	}

	esset.DrawText(screen, fmt.Sprintf("  Interval: %d s", g.snap.Interval), 0, padding, y, g.fontFace, settingsText)
	y += g.lineHeight

	swatch := float32(g.lineHeight * 0.6)
	esset.DrawText(screen, "  Colors:", 0, padding, y, g.fontFace, settingsText)
	colorsWidth, _ := text.Measure("  Colors: ", g.fontFace, g.lineHeight)
	sx := float32(padding + colorsWidth)
	vector.DrawFilledRect(screen, sx, float32(y), swatch, swatch, toRGBA(g.form.Background().NRGBA(1)), false)
	vector.DrawFilledRect(screen, sx+swatch+4, float32(y), swatch, swatch, toRGBA(g.form.Text().NRGBA(1)), false)
	y += g.lineHeight * 1.5

	esset.DrawText(screen, "Favorites:", 0, padding, y, g.fontFace, dimText)
	y += g.lineHeight

	g.favoriteAt = g.favoriteAt[:0]
	for i, e := range g.snap.Favorites {
		entryText := e.Ticker.String()
		if e.Ticker == g.form.Selected {
			entryText = "* " + entryText
		}
		w, h := text.Measure(entryText, g.fontFace, g.lineHeight)
		vector.DrawFilledRect(screen, float32(padding), float32(y), float32(w+padding), float32(h), toRGBA(e.Background.NRGBA(1)), false)
		esset.DrawText(screen, entryText, 0, padding*1.5, y, g.fontFace, toRGBA(e.Text.NRGBA(1)))
		g.favoriteAt = append(g.favoriteAt, favoriteHit{
			bounds: image.Rect(int(padding), int(y), int(padding*2+w), int(y+h)),
			entry:  i,
		})
		y += g.lineHeight
	}

	bottom := float64(screen.Bounds().Dy())
	if g.form.Message != "" {
		esset.DrawText(screen, g.form.Message, 0, padding, bottom-3*g.lineHeight, g.fontFace, messageText)
	}
	esset.DrawText(screen, "Enter apply  Up/Down field  Left/Right interval", 0, padding, bottom-2*g.lineHeight, g.fontFace, dimText)
	esset.DrawText(screen, "Ctrl+A add  Ctrl+D remove  Ctrl+C/T colors  Tab back", 0, padding, bottom-g.lineHeight, g.fontFace, dimText)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return outsideWidth, outsideHeight
}

func toRGBA(c color.NRGBA) color.RGBA {
	r, gr, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(gr >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
