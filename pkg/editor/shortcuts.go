package editor

import "strings"

// Action is an editor command bound to a keyboard shortcut
type Action int

const (
	ActionNone Action = iota
	ActionUndo
	ActionRedo
)

// KeyEvent is a key press with its modifiers. Meta is the Cmd key on macOS.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
}

// ShortcutAction maps Ctrl/Cmd+Z to undo and Ctrl/Cmd+Y or Ctrl/Cmd+Shift+Z to redo
func ShortcutAction(ev KeyEvent) Action {
	if !ev.Ctrl && !ev.Meta {
		return ActionNone
	}
	switch strings.ToLower(ev.Key) {
	case "z":
		if ev.Shift {
			return ActionRedo
		}
		return ActionUndo
	case "y":
		return ActionRedo
	}
	return ActionNone
}

// HandleShortcut runs the action bound to ev and reports whether the state changed
func (e *TemplateEditor) HandleShortcut(ev KeyEvent) bool {
	var changed bool
	switch ShortcutAction(ev) {
	case ActionUndo:
		_, changed = e.Undo()
	case ActionRedo:
		_, changed = e.Redo()
	}
	return changed
}
