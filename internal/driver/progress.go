package driver

// Stage identifies a step of processing one file.
type Stage string

const (
	// StageLoad reads the file (or opens it for streaming).
	StageLoad Stage = "load"
	// StageScan runs the lexer.
	StageScan Stage = "scan"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is currently being processed.
	StatusWorking Status = "working"
	// StatusDone indicates the file finished without errors.
	StatusDone Status = "done"
	// StatusError indicates the file produced an error diagnostic.
	StatusError Status = "error"
)

// Event reports progress for a file. Tokens and Cached are set on the final
// event of a scanned file.
type Event struct {
	File   string
	Stage  Stage
	Status Status
	Err    error
	Tokens int
	Cached bool
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
