package k720

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingObserver struct {
	reports []Report
}

func (r *recordingObserver) ObserveTransaction(rep Report) {
	r.reports = append(r.reports, rep)
}

func newTestOrchestrator(t *testing.T, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(opts...)
	require.NoError(t, err)
	return o
}

func TestRunGetVersion(t *testing.T) {
	line := newMockLine(exchange(15, []byte("K720 v1.0"))...)
	o := newTestOrchestrator(t)

	tx := o.Execute(line, "get-version", 15, []byte("GV"))
	require.NoError(t, tx.Err)
	assert.Equal(t, []byte("K720 v1.0"), tx.Result)
	assert.Equal(t, StateComplete, tx.State)
	assert.Equal(t, []TxState{
		StateIdle,
		StateCommandSent,
		StateAckAwaited,
		StateAckOK,
		StateEnquirySent,
		StateResponseAwaited,
		StateComplete,
	}, tx.History)

	cmd, _ := EncodeCommand(15, []byte("GV"))
	enq, _ := EncodeEnquiry(15)
	assert.Equal(t, append(append([]byte{}, cmd...), enq...), line.tx.Bytes())
	assert.Equal(t, 0, line.rx.Len())
}

func TestRunReturnsPayload(t *testing.T) {
	line := newMockLine(exchange(3, []byte("RF001"))...)
	line.chunk = 1

	payload, err := newTestOrchestrator(t).Run(line, 3, []byte("RF"))
	require.NoError(t, err)
	assert.Equal(t, []byte("RF001"), payload)
}

func TestRunFailures(t *testing.T) {
	good := responseFrame(15, []byte("GV"))

	tests := []struct {
		name     string
		script   [][]byte
		failedAt TxState
		stage    Stage
		cause    error
		wantENQ  bool
	}{
		{
			name:     "no acknowledgement",
			failedAt: StateAckAwaited,
			stage:    StageAck,
			cause:    ErrTimeout,
		},
		{
			name:     "negative acknowledgement",
			script:   [][]byte{{NAK, '1', '5'}},
			failedAt: StateAckAwaited,
			stage:    StageAck,
			cause:    ErrNAK,
		},
		{
			name:     "unexpected marker",
			script:   [][]byte{{STX, '1', '5'}},
			failedAt: StateAckAwaited,
			stage:    StageAck,
		},
		{
			name:     "acknowledged by another device",
			script:   [][]byte{ackFrame(14)},
			failedAt: StateAckAwaited,
			stage:    StageAck,
		},
		{
			name:     "no response",
			script:   [][]byte{ackFrame(15)},
			failedAt: StateResponseAwaited,
			stage:    StageSTX,
			cause:    ErrTimeout,
			wantENQ:  true,
		},
		{
			name:     "truncated response",
			script:   [][]byte{ackFrame(15), good[:3]},
			failedAt: StateResponseAwaited,
			stage:    StageLength,
			cause:    ErrTimeout,
			wantENQ:  true,
		},
		{
			name:     "bad checksum",
			script:   [][]byte{ackFrame(15), append(append([]byte{}, good[:len(good)-1]...), good[len(good)-1]^0xFF)},
			failedAt: StateResponseAwaited,
			stage:    StageChecksum,
			wantENQ:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := newMockLine(tt.script...)
			tx := newTestOrchestrator(t).Execute(line, "get-version", 15, []byte("GV"))

			require.ErrorIs(t, tx.Err, ErrProtocol)
			assert.Nil(t, tx.Result)
			assert.Equal(t, StateFailed, tx.State)
			assert.Equal(t, tt.failedAt, tx.FailedAt())
			assert.Equal(t, StateFailed, tx.History[len(tx.History)-1])

			var pe *ProtocolError
			require.True(t, errors.As(tx.Err, &pe))
			assert.Equal(t, tt.stage, pe.Stage)
			if tt.cause != nil {
				assert.ErrorIs(t, tx.Err, tt.cause)
			}

			cmd, _ := EncodeCommand(15, []byte("GV"))
			want := []byte(cmd)
			if tt.wantENQ {
				want = append(want, ENQ, '1', '5')
			}
			assert.Equal(t, want, line.tx.Bytes())
		})
	}
}

func TestRunWriteFailure(t *testing.T) {
	line := newMockLine()
	line.writeErr = errLineDown

	tx := newTestOrchestrator(t).Execute(line, "reset", 15, []byte("RS"))
	require.ErrorIs(t, tx.Err, ErrProtocol)
	assert.ErrorIs(t, tx.Err, errLineDown)
	assert.Equal(t, []TxState{StateIdle, StateFailed}, tx.History)
	assert.Equal(t, StateIdle, tx.FailedAt())
}

func TestRunRejectsBeforeIO(t *testing.T) {
	obs := &recordingObserver{}
	o := newTestOrchestrator(t, WithObserver(obs))

	line := newMockLine(exchange(15, []byte("x"))...)
	_, err := o.Run(line, 16, []byte("GV"))
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.NotErrorIs(t, err, ErrProtocol)

	_, err = o.Run(line, 15, nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	assert.Zero(t, line.tx.Len())
	assert.Zero(t, line.reads)
	assert.Empty(t, obs.reports)
}

func TestRunObserver(t *testing.T) {
	obs := &recordingObserver{}
	o := newTestOrchestrator(t, WithObserver(obs))

	_, err := o.Run(newMockLine(exchange(15, []byte("ok"))...), 15, []byte("GV"))
	require.NoError(t, err)
	_, err = o.Run(newMockLine(), 15, []byte("GV"))
	require.Error(t, err)

	require.Len(t, obs.reports, 2)
	assert.Equal(t, "raw", obs.reports[0].Command)
	assert.Equal(t, StateComplete, obs.reports[0].State)
	assert.NoError(t, obs.reports[0].Err)
	assert.Equal(t, StateFailed, obs.reports[1].State)
	assert.Equal(t, StateAckAwaited, obs.reports[1].Failed)
	assert.ErrorIs(t, obs.reports[1].Err, ErrTimeout)
}

func TestTransitions(t *testing.T) {
	happy := []TxState{
		StateIdle,
		StateCommandSent,
		StateAckAwaited,
		StateAckOK,
		StateEnquirySent,
		StateResponseAwaited,
		StateComplete,
	}
	for i := 0; i+1 < len(happy); i++ {
		assert.True(t, CanTransition(happy[i], happy[i+1]), "%s -> %s", happy[i], happy[i+1])
		assert.True(t, CanTransition(happy[i], StateFailed), "%s -> failed", happy[i])
	}

	assert.False(t, CanTransition(StateIdle, StateAckOK))
	assert.False(t, CanTransition(StateAckAwaited, StateEnquirySent))
	assert.False(t, CanTransition(StateComplete, StateFailed))
	assert.False(t, CanTransition(StateFailed, StateIdle))
	assert.True(t, StateComplete.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateAckOK.Terminal())
}

func TestIllegalTransition(t *testing.T) {
	tx := &Transaction{State: StateIdle, History: []TxState{StateIdle}, log: newDriverLog(DefaultConfig())}

	err := tx.advance(StateEnquirySent)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StateIdle, tx.State)

	assert.False(t, tx.step(StateCommandSent, StateComplete))
	assert.Equal(t, StateFailed, tx.State)
	assert.Equal(t, StateCommandSent, tx.FailedAt())
	assert.ErrorIs(t, tx.Err, ErrIllegalTransition)
}

func TestTxStateString(t *testing.T) {
	assert.Equal(t, "ack-awaited", StateAckAwaited.String())
	assert.Equal(t, "TxState(42)", TxState(42).String())
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestVerbosity(t *testing.T) {
	tests := []struct {
		name        string
		verbosity   Verbosity
		fields      int
		packets     int
		transitions bool
	}{
		{"none", LogNone, 0, 0, false},
		{"trace", LogTrace, 8, 3, true},
		{"debug", LogDebug, 0, 3, false},
		{"info", LogInfo, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := observedLogger()
			o := newTestOrchestrator(t, WithLogger(logger), WithVerbosity(tt.verbosity))

			_, err := o.Run(newMockLine(exchange(15, []byte("K720 v1.0"))...), 15, []byte("GV"))
			require.NoError(t, err)

			assert.Equal(t, tt.fields, logs.FilterMessage("field").Len())
			packets := logs.FilterMessage("sent").Len() + logs.FilterMessage("received").Len()
			assert.Equal(t, tt.packets, packets)
			assert.Equal(t, tt.transitions, logs.FilterMessage("transition").Len() > 0)
			assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
		})
	}
}

func TestVerbosityFailureLogging(t *testing.T) {
	logger, logs := observedLogger()
	o := newTestOrchestrator(t, WithLogger(logger), WithVerbosity(LogWarn))

	_, err := o.Run(newMockLine(), 15, []byte("GV"))
	require.Error(t, err)

	entries := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "transaction failed", entries[0].Message)
	assert.Equal(t, "ack-awaited", entries[0].ContextMap()["state"])

	logger, logs = observedLogger()
	o = newTestOrchestrator(t, WithLogger(logger), WithVerbosity(LogError))
	_, err = o.Run(newMockLine(), 15, []byte("GV"))
	require.Error(t, err)
	assert.Zero(t, logs.Len())
}

func TestOptions(t *testing.T) {
	_, err := NewOrchestrator(WithLogger(nil))
	assert.Error(t, err)

	_, err = NewOrchestrator(WithVerbosity(Verbosity(9)))
	assert.Error(t, err)

	v, err := ParseVerbosity("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LogDebug, v)
	assert.Equal(t, "debug", v.String())

	_, err = ParseVerbosity("loud")
	assert.Error(t, err)
}
