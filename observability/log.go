package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter writes events to a writer, either as key=value text or as
// JSON lines.
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter. A nil writer defaults to os.Stdout.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
		return
	}
	l.emitText(event)
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		SessionID string                 `json:"sessionId"`
		Turn      int                    `json:"turn"`
		Phase     string                 `json:"phase"`
		Msg       string                 `json:"msg"`
		Meta      map[string]interface{} `json:"meta,omitempty"`
	}{
		SessionID: event.SessionID,
		Turn:      event.Turn,
		Phase:     event.Phase,
		Msg:       event.Msg,
		Meta:      event.Meta,
	})
	if err != nil {
		fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	fmt.Fprintf(l.writer, "[%s] sessionId=%s turn=%d phase=%s",
		event.Msg, event.SessionID, event.Turn, event.Phase)

	if len(event.Meta) > 0 {
		if metaJSON, err := json.Marshal(event.Meta); err == nil {
			fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		} else {
			fmt.Fprintf(l.writer, " meta=%v", event.Meta)
		}
	}
	fmt.Fprint(l.writer, "\n")
}
