package messages

// Message is the base interface for everything posted into the event loop
// or published by it.
type Message interface {
	Type() string
}

// MessageType constants for type identification
const (
	TypeCaptureRequested = "CaptureRequested"
	TypeStatusChanged    = "StatusChanged"
)

// Trigger sources
const (
	SourceHotkey   = "hotkey"
	SourceFAB      = "fab"
	SourceTray     = "tray"
	SourceScanNext = "scan-next"
	SourceRemote   = "remote"
)

// CaptureRequested - a local trigger asked for a new capture
type CaptureRequested struct {
	Source string
}

func (m CaptureRequested) Type() string { return TypeCaptureRequested }

// StatusChanged - the loop became busy or idle; Tooltip is the tray text
type StatusChanged struct {
	Busy    bool
	Tooltip string
}

func (m StatusChanged) Type() string { return TypeStatusChanged }
