// Package panel speaks the message protocol between a parquet viewer panel
// and the process that decodes files for it.
package panel

import (
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"

	"github.com/polarsignals/pqexplorer"
	"github.com/polarsignals/pqexplorer/pqarrow/convert"
)

type MessageType string

// Messages posted to the panel.
const (
	TypeLoading          MessageType = "loading"
	TypeData             MessageType = "data"
	TypeError            MessageType = "error"
	TypeShowNotification MessageType = "showNotification"
	TypeExportComplete   MessageType = "exportComplete"
	TypeExportError      MessageType = "exportError"
	TypeCopyComplete     MessageType = "copyComplete"
	TypeCopyError        MessageType = "copyError"
)

// Requests received from the panel. TypeShowNotification is both.
const (
	TypeGetData         MessageType = "getData"
	TypeExportCSV       MessageType = "exportCSV"
	TypeExportJSON      MessageType = "exportJSON"
	TypeCopyToClipboard MessageType = "copyToClipboard"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is a message posted to the panel.
type Message interface {
	MessageType() MessageType
}

type Loading struct {
	Stage    string `json:"stage"`
	Message  string `json:"message"`
	Progress int    `json:"progress"`
	LoadID   string `json:"loadId"`
}

type Data struct {
	Schema  *convert.SchemaNode `json:"schema"`
	Records []pqexplorer.Record `json:"records"`
	Header  []string            `json:"header"`
	Total   int64               `json:"total"`
	LoadID  string              `json:"loadId"`
}

type Error struct {
	Message string `json:"message"`
}

type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

type ExportComplete struct {
	Format  string `json:"format"`
	Message string `json:"message"`
}

type ExportError struct {
	Format  string `json:"format"`
	Message string `json:"message"`
}

type CopyComplete struct {
	Message string `json:"message"`
}

type CopyError struct {
	Message string `json:"message"`
}

func (Loading) MessageType() MessageType        { return TypeLoading }
func (Data) MessageType() MessageType           { return TypeData }
func (Error) MessageType() MessageType          { return TypeError }
func (Notification) MessageType() MessageType   { return TypeShowNotification }
func (ExportComplete) MessageType() MessageType { return TypeExportComplete }
func (ExportError) MessageType() MessageType    { return TypeExportError }
func (CopyComplete) MessageType() MessageType   { return TypeCopyComplete }
func (CopyError) MessageType() MessageType      { return TypeCopyError }

// Encode renders m as the JSON object the panel receives, with its type in
// the "type" key.
func Encode(m Message) ([]byte, error) {
	body, err := json.MarshalWithOption(m, json.DisableHTMLEscape())
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s message", m.MessageType())
	}
	typ, err := json.Marshal(m.MessageType())
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+len(typ)+9)
	out = append(out, `{"type":`...)
	out = append(out, typ...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}

// Request is a message received from the panel.
type Request struct {
	Type MessageType `json:"type"`
	// Data holds the records to export for exportCSV and exportJSON, and the
	// text to copy for copyToClipboard.
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Level   Level           `json:"level,omitempty"`
}

// DecodeRequest parses a message received from the panel.
func DecodeRequest(b []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(b, &req); err != nil {
		return Request{}, errors.Wrap(err, "decode panel request")
	}
	if req.Type == "" {
		return Request{}, errors.New("panel request has no type")
	}
	return req, nil
}
