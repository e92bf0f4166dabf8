// Package view switches between the schematic and the interactive map view
// of a route result.
//
// A [Controller] owns the [RenderState]: the last successful result, the
// selected endpoints, the active mode and, once the map has been opened,
// the overlay scene. Only the active view is repainted when the result
// changes; the other one catches up when it is selected.
package view

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pampasroute/pkg/errors"
	"github.com/matzehuels/pampasroute/pkg/overlay"
	"github.com/matzehuels/pampasroute/pkg/route"
)

// Mode is a presentation mode.
type Mode string

const (
	ModeSchematic   Mode = "schematic"
	ModeInteractive Mode = "interactive"
)

// Modes lists the modes in display order.
var Modes = []Mode{ModeSchematic, ModeInteractive}

// ParseMode parses a mode name. Besides the canonical names it accepts the
// short aliases used on the command line.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "schematic", "esquema", "graph":
		return ModeSchematic, nil
	case "interactive", "mapa", "map":
		return ModeInteractive, nil
	}
	return "", errors.New(errors.ErrCodeInvalidView, "unknown view %q (want schematic or interactive)", s)
}

// Title returns the heading shown above a view.
func Title(m Mode) string {
	if m == ModeInteractive {
		return "Mapa Interactivo - Pampas, Tayacaja, Huancavelica"
	}
	return "Esquema de Rutas Turísticas de Pampas"
}

// Other returns the mode a toggle switches to.
func (m Mode) Other() Mode {
	if m == ModeInteractive {
		return ModeSchematic
	}
	return ModeInteractive
}

// RenderState is the data both views are drawn from.
type RenderState struct {
	Result *route.Result // last successful result; nil until one exists
	Start  string
	End    string
	Mode   Mode
	Scene  *overlay.Scene // nil until the map has been opened
}

// Notice classifies a user-facing notification.
type Notice string

const (
	NoticeNoRoute      Notice = "no-route"
	NoticeFailure      Notice = "failure"
	NoticeInvalidInput Notice = "invalid-input"
)

// UI is the presentation surface the controller drives. SetBusy also
// serves as the street route resolver's indicator, so it may be called
// from any goroutine.
type UI interface {
	ShowView(m Mode, title string)
	SetBusy(busy bool, msg string)
	ShowResult(r *route.Result)
	Notify(n Notice, msg string)
}

// Computer computes routes.
type Computer interface {
	Compute(ctx context.Context, start, dest string) (*route.Result, error)
}

// LogUI is a UI that only logs. The one-shot commands use it.
type LogUI struct {
	Logger *log.Logger
}

func (u LogUI) logger() *log.Logger {
	if u.Logger == nil {
		return log.Default()
	}
	return u.Logger
}

func (u LogUI) ShowView(m Mode, title string) {
	u.logger().Debug("view", "mode", m, "title", title)
}

func (u LogUI) SetBusy(busy bool, msg string) {
	if busy {
		u.logger().Debug(msg)
	}
}

func (u LogUI) ShowResult(r *route.Result) {
	u.logger().Info("route ready", "stops", len(r.Stops), "minutes", r.Cost)
}

func (u LogUI) Notify(n Notice, msg string) {
	if n == NoticeFailure {
		u.logger().Error(msg)
		return
	}
	u.logger().Warn(msg)
}
