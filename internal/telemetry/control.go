package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ControlTimeout bounds a select or mute command, both of which wait for a
// fade to finish.
const ControlTimeout = 2 * time.Second

var errUnknownOp = errors.New("telemetry: unknown op")

// Controller is the part of the engine the server can drive.
type Controller interface {
	Algorithms() []string
	SelectAlgorithmContext(ctx context.Context, idx int) error
	RequestMuteContext(ctx context.Context, enable bool) error
	SetParameterValue(slot int, v int16) error
	SetParameterDestination(ch, slot int) error
}

// Command is one control request, sent as JSON over /control or the
// websocket. Op is one of select, mute, unmute, param or dest.
type Command struct {
	Op      string `json:"op"`
	Index   int    `json:"index,omitempty"`
	Slot    int    `json:"slot,omitempty"`
	Value   int16  `json:"value,omitempty"`
	Channel int    `json:"channel,omitempty"`
}

// Reply answers a Command.
type Reply struct {
	Type  string `json:"type"`
	OK    bool   `json:"ok"`
	Op    string `json:"op,omitempty"`
	Error string `json:"error,omitempty"`
}

func apply(ctx context.Context, c Controller, cmd Command) error {
	ctx, cancel := context.WithTimeout(ctx, ControlTimeout)
	defer cancel()

	switch cmd.Op {
	case "select":
		return c.SelectAlgorithmContext(ctx, cmd.Index)
	case "mute":
		return c.RequestMuteContext(ctx, true)
	case "unmute":
		return c.RequestMuteContext(ctx, false)
	case "param":
		return c.SetParameterValue(cmd.Slot, cmd.Value)
	case "dest":
		return c.SetParameterDestination(cmd.Channel, cmd.Slot)
	default:
		return fmt.Errorf("%w %q", errUnknownOp, cmd.Op)
	}
}

// control decodes and applies one JSON command and returns the encoded
// reply together with the error, if any.
func (s *Server) control(ctx context.Context, body []byte) ([]byte, error) {
	var cmd Command

	err := json.Unmarshal(body, &cmd)
	if err != nil {
		err = fmt.Errorf("telemetry: decode command: %w", err)
	} else {
		err = apply(ctx, s.ctl, cmd)
	}

	reply := Reply{Type: "reply", OK: err == nil, Op: cmd.Op}
	if err != nil {
		reply.Error = err.Error()
		s.log.WithError(err).WithField("op", cmd.Op).Warn("control command failed")
	} else {
		s.log.WithFields(logrus.Fields{
			"op":    cmd.Op,
			"index": cmd.Index,
			"slot":  cmd.Slot,
			"value": cmd.Value,
		}).Debug("control command applied")
	}

	out, _ := json.Marshal(reply)

	return out, err
}
