// Package runner drives a picker session from a line-oriented stream, so
// scripts and editors can pick capabilities without a terminal UI.
package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/teamboard/internal/logging"
	"github.com/aretw0/teamboard/pkg/domain"
)

// Control commands accepted besides the picker actions.
const (
	CommandConfirm = "confirm"
	CommandCancel  = "cancel"
)

// Board is the part of teamboard.Board a runner needs.
type Board interface {
	UpdatePicker(ctx context.Context, sessionID string, action domain.PickerAction) (domain.PickerView, *domain.PickerDiff, error)
	ConfirmPicker(ctx context.Context, sessionID string) (*domain.Team, error)
	CancelPicker(ctx context.Context, sessionID string) error
}

// Frame is one line written by the runner.
type Frame struct {
	View     *domain.PickerView `json:"view,omitempty"`
	Diff     *domain.PickerDiff `json:"diff,omitempty"`
	Team     *domain.Team       `json:"team,omitempty"`
	Canceled bool               `json:"canceled,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// JSONRunner reads one JSON command per line and answers with one Frame per
// line. Commands are picker actions ({"type":"set_query","query":"tax"}) or
// {"type":"confirm"} and {"type":"cancel"}. Invalid lines produce an error
// frame and the session stays open.
type JSONRunner struct {
	board   Board
	reader  *bufio.Reader
	encoder *json.Encoder
	logger  *slog.Logger
}

// Option configures a JSONRunner.
type Option func(*JSONRunner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *JSONRunner) {
		r.logger = logger
	}
}

// NewJSONRunner creates a runner over r and w (stdin and stdout when nil).
func NewJSONRunner(board Board, r io.Reader, w io.Writer, opts ...Option) *JSONRunner {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	jr := &JSONRunner{
		board:   board,
		reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(jr)
	}
	return jr
}

// Run writes the opening view and processes commands until the session is
// confirmed or canceled. End of input cancels the session. It returns the
// saved team on confirm and nil otherwise.
func (r *JSONRunner) Run(ctx context.Context, view domain.PickerView) (*domain.Team, error) {
	sessionID := view.SessionID
	if err := r.encoder.Encode(Frame{View: &view}); err != nil {
		return nil, err
	}

	for {
		line, err := r.readLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.logger.Debug("Input closed; canceling picker", "session_id", sessionID)
				return nil, r.board.CancelPicker(context.WithoutCancel(ctx), sessionID)
			}
			_ = r.board.CancelPicker(context.WithoutCancel(ctx), sessionID)
			return nil, err
		}
		if line == "" {
			continue
		}

		var action domain.PickerAction
		if err := json.Unmarshal([]byte(line), &action); err != nil {
			if err := r.encoder.Encode(Frame{Error: fmt.Sprintf("invalid command: %v", err)}); err != nil {
				return nil, err
			}
			continue
		}

		switch string(action.Type) {
		case CommandConfirm:
			team, err := r.board.ConfirmPicker(ctx, sessionID)
			if err != nil {
				return nil, err
			}
			return team, r.encoder.Encode(Frame{Team: team})
		case CommandCancel:
			if err := r.board.CancelPicker(ctx, sessionID); err != nil {
				return nil, err
			}
			return nil, r.encoder.Encode(Frame{Canceled: true})
		}

		v, diff, err := r.board.UpdatePicker(ctx, sessionID, action)
		frame := Frame{View: &v, Diff: diff}
		if err != nil {
			r.logger.Debug("Rejected picker command", "session_id", sessionID, "err", err)
			frame = Frame{Error: err.Error()}
		}
		if err := r.encoder.Encode(frame); err != nil {
			return nil, err
		}
	}
}

// readLine returns the next trimmed line. A final line without a newline is
// still returned; io.EOF is reported only once input is exhausted.
func (r *JSONRunner) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := r.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || text == "") {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
