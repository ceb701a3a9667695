package k720

import (
	"go.uber.org/zap"
)

// driverLog gates driver output on the configured verbosity. Trace output
// is one entry per received field, debug output one entry per frame.
type driverLog struct {
	l *zap.Logger
	v Verbosity
}

func newDriverLog(cfg Config) *driverLog {
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &driverLog{l: l.Named("k720"), v: cfg.Verbosity}
}

func (d *driverLog) enabled(level Verbosity) bool {
	return d.v != LogNone && d.v <= level
}

func (d *driverLog) field(stage Stage, b []byte) {
	if !d.enabled(LogTrace) {
		return
	}
	d.l.Debug("field",
		zap.String("stage", string(stage)),
		zap.String("bytes", FormatPacket("", b)),
	)
}

func (d *driverLog) packet(direction string, b []byte) {
	if !d.enabled(LogDebug) {
		return
	}
	d.l.Debug(direction, zap.String("packet", FormatPacket("", b)))
}

func (d *driverLog) transition(from, to TxState) {
	if !d.enabled(LogTrace) {
		return
	}
	d.l.Debug("transition",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
}

func (d *driverLog) failed(cmd string, addr Address, at TxState, err error) {
	if !d.enabled(LogWarn) {
		return
	}
	d.l.Warn("transaction failed",
		zap.String("command", cmd),
		zap.Stringer("address", addr),
		zap.Stringer("state", at),
		zap.Error(err),
	)
}
