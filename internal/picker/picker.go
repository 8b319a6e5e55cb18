// Package picker is an interactive terminal window selector. It lists the
// visible top-level windows with their geometry, supports vim-style
// navigation, and hands the chosen handle back to the caller.
package picker

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/glimpse/internal/native"
)

// ErrCanceled is returned by Pick when the user quits without choosing.
var ErrCanceled = errors.New("selection canceled")

// windowSource is the slice of the native service the picker reads.
// Narrow on purpose so tests can substitute a fake without a window
// system present.
type windowSource interface {
	Windows(ctx context.Context) ([]native.WindowHandle, error)
	Title(ctx context.Context, h native.WindowHandle) (string, error)
	WindowRect(ctx context.Context, h native.WindowHandle) (native.Rect, error)
	Focused(ctx context.Context, h native.WindowHandle) (bool, error)
}

// Load lists the source's windows as picker entries. Windows that vanish
// between enumeration and inspection are skipped, not errors.
func Load(ctx context.Context, source windowSource) ([]Entry, error) {
	handles, err := source.Windows(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(handles))
	for _, h := range handles {
		entry, err := loadEntry(ctx, source, h)
		if err != nil {
			if errors.Is(err, native.ErrWindowGone) {
				continue
			}
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func loadEntry(ctx context.Context, source windowSource, h native.WindowHandle) (Entry, error) {
	title, err := source.Title(ctx, h)
	if err != nil {
		return Entry{}, err
	}
	rect, err := source.WindowRect(ctx, h)
	if err != nil {
		return Entry{}, err
	}
	focused, err := source.Focused(ctx, h)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Handle: h, Title: title, Rect: rect, Focused: focused}, nil
}

// Pick runs the picker TUI over the source's windows and returns the
// chosen entry. The UI renders on stderr so stdout stays free for the
// selection, which lets callers pipe it. Quitting without a choice returns
// ErrCanceled.
func Pick(ctx context.Context, source windowSource) (Entry, error) {
	entries, err := Load(ctx, source)
	if err != nil {
		return Entry{}, err
	}

	program := tea.NewProgram(NewModel(entries), tea.WithAltScreen(), tea.WithOutput(os.Stderr))
	final, err := program.Run()
	if err != nil {
		return Entry{}, fmt.Errorf("picker failed: %w", err)
	}

	model, ok := final.(Model)
	if !ok || model.choice == nil {
		return Entry{}, ErrCanceled
	}
	return *model.choice, nil
}
