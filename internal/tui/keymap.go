package tui

// Key bindings handled in handleKey.
const (
	KeyQuit       = "q"
	KeyCtrlC      = "ctrl+c"
	KeyRecord     = " "
	KeyTab        = "tab"
	KeyUp         = "up"
	KeyDown       = "down"
	KeyJ          = "j"
	KeyK          = "k"
	KeyEnter      = "enter"
	KeyEsc        = "esc"
	KeyNewNote    = "n"
	KeyDelete     = "D"
	KeyUndo       = "u"
	KeyRedo       = "ctrl+r"
	KeySearch     = "/"
	KeyTitle      = "t"
	KeyEdit       = "e"
	KeyTag        = "#"
	KeyTagFilter  = "g"
	KeyFolder     = "f"
	KeyNewFolder  = "F"
	KeyMove       = "m"
	KeySummarize  = "s"
	KeyExport     = "x"
	KeyExportAll  = "X"
	KeyDiscard    = "c"
	KeyTheme      = "T"
	KeySave       = "ctrl+s"
	KeyConfirmYes = "y"
)

// Intent is a UI action independent of the key that triggers it.
type Intent string

const (
	IntentQuit           Intent = "quit"
	IntentToggleRecord   Intent = "toggle-record"
	IntentSwitchFocus    Intent = "switch-focus"
	IntentDown           Intent = "down"
	IntentUp             Intent = "up"
	IntentOpen           Intent = "open"
	IntentNewNote        Intent = "new-note"
	IntentDeleteNote     Intent = "delete-note"
	IntentUndo           Intent = "undo"
	IntentRedo           Intent = "redo"
	IntentSearch         Intent = "search"
	IntentEditTitle      Intent = "edit-title"
	IntentAddTag         Intent = "add-tag"
	IntentNewFolder      Intent = "new-folder"
	IntentCycleFolder    Intent = "cycle-folder"
	IntentMoveNote       Intent = "move-note"
	IntentCycleTag       Intent = "cycle-tag"
	IntentEditTranscript Intent = "edit-transcript"
	IntentSummarize      Intent = "summarize"
	IntentExportNote     Intent = "export-note"
	IntentExportAll      Intent = "export-all"
	IntentDiscard        Intent = "discard"
	IntentToggleTheme    Intent = "toggle-theme"
)

// keyIntents maps normal-mode keys to intents.
var keyIntents = map[string]Intent{
	KeyQuit:      IntentQuit,
	KeyCtrlC:     IntentQuit,
	KeyRecord:    IntentToggleRecord,
	KeyTab:       IntentSwitchFocus,
	KeyJ:         IntentDown,
	KeyDown:      IntentDown,
	KeyK:         IntentUp,
	KeyUp:        IntentUp,
	KeyEnter:     IntentOpen,
	KeyNewNote:   IntentNewNote,
	KeyDelete:    IntentDeleteNote,
	KeyUndo:      IntentUndo,
	KeyRedo:      IntentRedo,
	KeySearch:    IntentSearch,
	KeyTitle:     IntentEditTitle,
	KeyTag:       IntentAddTag,
	KeyNewFolder: IntentNewFolder,
	KeyFolder:    IntentCycleFolder,
	KeyMove:      IntentMoveNote,
	KeyTagFilter: IntentCycleTag,
	KeyEdit:      IntentEditTranscript,
	KeySummarize: IntentSummarize,
	KeyExport:    IntentExportNote,
	KeyExportAll: IntentExportAll,
	KeyDiscard:   IntentDiscard,
	KeyTheme:     IntentToggleTheme,
}
