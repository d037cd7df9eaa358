package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conn-castle/moonbit-up/internal/messages"
	"github.com/conn-castle/moonbit-up/internal/terminal"
)

// newLogger builds the diagnostic logger. Terminals get the console encoder;
// anything else gets JSON lines.
func newLogger(level string, out io.Writer) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf(messages.RootLogLevelFmt, level, err)
	}
	var encoder zapcore.Encoder
	if terminal.IsTerminalWriter(out) {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(out), lvl)
	return zap.New(core).Sugar(), nil
}
