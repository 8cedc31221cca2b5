package panel

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/polarsignals/pqexplorer"
	"github.com/polarsignals/pqexplorer/export"
)

const noFilePath = "No file path available. Please open a Parquet file first."

// Host is the editor the panel lives in.
type Host interface {
	// PostMessage sends m to the panel.
	PostMessage(ctx context.Context, m Message) error
	// SaveFile asks the user where to store content, suggesting name. It
	// returns the chosen path, or the empty string if the user cancelled.
	SaveFile(ctx context.Context, name string, content []byte) (string, error)
	WriteClipboard(ctx context.Context, text string) error
	// Notify shows a message outside of the panel.
	Notify(ctx context.Context, lvl Level, message string)
}

// Handler answers the requests of one panel showing one file.
type Handler struct {
	logger log.Logger
	host   Host
	loader Loader
	path   string
}

func NewHandler(logger log.Logger, host Host, loader Loader, path string) *Handler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Handler{
		logger: log.With(logger, "component", "panel", "file", path),
		host:   host,
		loader: loader,
		path:   path,
	}
}

// HandleMessage decodes and handles a raw message from the panel.
func (h *Handler) HandleMessage(ctx context.Context, b []byte) error {
	req, err := DecodeRequest(b)
	if err != nil {
		return err
	}
	return h.Handle(ctx, req)
}

// Handle dispatches req. Unknown request types are logged and ignored.
// The returned error is set only when a message could not be posted.
func (h *Handler) Handle(ctx context.Context, req Request) error {
	level.Debug(h.logger).Log("msg", "received message", "type", req.Type)

	switch req.Type {
	case TypeGetData:
		return h.getData(ctx)
	case TypeExportCSV:
		return h.export(ctx, export.FormatCSV, req.Data)
	case TypeExportJSON:
		return h.export(ctx, export.FormatJSON, req.Data)
	case TypeCopyToClipboard:
		return h.copyToClipboard(ctx, req.Data)
	case TypeShowNotification:
		lvl := req.Level
		if lvl != LevelError && lvl != LevelWarning {
			lvl = LevelInfo
		}
		h.host.Notify(ctx, lvl, req.Message)
		return nil
	default:
		level.Warn(h.logger).Log("msg", "unknown message type", "type", req.Type)
		return nil
	}
}

func (h *Handler) getData(ctx context.Context) error {
	if h.path == "" {
		return h.host.PostMessage(ctx, Error{Message: noFilePath})
	}

	loadID := uuid.NewString()
	if err := h.host.PostMessage(ctx, Loading{
		Stage:   "reading",
		Message: "Reading Parquet file...",
		LoadID:  loadID,
	}); err != nil {
		return err
	}

	res, err := h.loader.Load(ctx, h.path)
	if err != nil {
		level.Error(h.logger).Log("msg", "failed to load parquet file", "err", err, "load_id", loadID)
		return h.host.PostMessage(ctx, Error{Message: pqexplorer.UserMessage(err)})
	}

	if err := h.host.PostMessage(ctx, Data{
		Schema:  res.Schema,
		Records: res.Records,
		Header:  res.Columns,
		Total:   res.NumRows,
		LoadID:  loadID,
	}); err != nil {
		return err
	}

	if res.Truncated() {
		return h.host.PostMessage(ctx, Notification{
			Level:   LevelWarning,
			Message: TruncationNotice(len(res.Records), res.NumRows),
		})
	}
	return nil
}

// TruncationNotice tells the user that only shown of total rows are loaded.
func TruncationNotice(shown int, total int64) string {
	return fmt.Sprintf(
		"Loaded %s of %s rows for performance. Use export to get full data.",
		humanize.Comma(int64(shown)),
		humanize.Comma(total),
	)
}

func (h *Handler) export(ctx context.Context, f export.Format, data json.RawMessage) error {
	content, err := encodeExport(f, data)
	if err != nil {
		return h.exportFailed(ctx, f, err)
	}
	path, err := h.host.SaveFile(ctx, "export."+f.Extension(), content)
	if err != nil {
		return h.exportFailed(ctx, f, err)
	}
	if path == "" {
		// Cancelled.
		return nil
	}

	h.host.Notify(ctx, LevelInfo, fmt.Sprintf("%s exported successfully to %s", f, path))
	return h.host.PostMessage(ctx, ExportComplete{
		Format:  string(f),
		Message: fmt.Sprintf("%s exported successfully", f),
	})
}

func (h *Handler) exportFailed(ctx context.Context, f export.Format, err error) error {
	level.Warn(h.logger).Log("msg", "export failed", "format", f, "err", err)
	return h.host.PostMessage(ctx, ExportError{Format: string(f), Message: err.Error()})
}

func encodeExport(f export.Format, data json.RawMessage) ([]byte, error) {
	var recs []pqexplorer.Record
	if len(data) > 0 {
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, errors.Wrap(err, "decode records to export")
		}
	}
	buf := &bytes.Buffer{}
	if err := export.Write(buf, f, recs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *Handler) copyToClipboard(ctx context.Context, data json.RawMessage) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return h.host.PostMessage(ctx, CopyError{Message: "clipboard data must be a string"})
	}
	if err := h.host.WriteClipboard(ctx, text); err != nil {
		return h.host.PostMessage(ctx, CopyError{Message: err.Error()})
	}
	return h.host.PostMessage(ctx, CopyComplete{Message: "Copied to clipboard"})
}
