package k720

import (
	"fmt"
	"io"
	"time"
)

// TxState is the position of a transaction in the command/ACK/ENQ/response
// handshake.
type TxState int

const (
	StateIdle TxState = iota
	StateCommandSent
	StateAckAwaited
	StateAckOK
	StateEnquirySent
	StateResponseAwaited
	StateComplete
	StateFailed
)

var txStateNames = [...]string{
	"idle",
	"command-sent",
	"ack-awaited",
	"ack-ok",
	"enquiry-sent",
	"response-awaited",
	"complete",
	"failed",
}

func (s TxState) String() string {
	if s < StateIdle || s > StateFailed {
		return fmt.Sprintf("TxState(%d)", int(s))
	}
	return txStateNames[s]
}

// Terminal reports whether no further transitions are possible.
func (s TxState) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// transitions lists every legal edge. Failure is reachable from every
// non-terminal state, including Idle when the command write itself fails.
var transitions = map[TxState][]TxState{
	StateIdle:            {StateCommandSent, StateFailed},
	StateCommandSent:     {StateAckAwaited, StateFailed},
	StateAckAwaited:      {StateAckOK, StateFailed},
	StateAckOK:           {StateEnquirySent, StateFailed},
	StateEnquirySent:     {StateResponseAwaited, StateFailed},
	StateResponseAwaited: {StateComplete, StateFailed},
}

// CanTransition reports whether from -> to is an edge of the state table.
func CanTransition(from, to TxState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transport is the byte stream a transaction runs over. Read must block
// until data arrives or the transport's read timeout elapses, returning
// 0, nil on timeout.
type Transport interface {
	io.Reader
	io.Writer
}

// Transaction records one command/response exchange.
type Transaction struct {
	Command  string
	Address  Address
	Request  []byte
	State    TxState
	History  []TxState
	Response *ResponseFrame
	Result   []byte
	Err      error
	Started  time.Time
	Duration time.Duration

	failedAt TxState
	log      *driverLog
}

// FailedAt returns the state the transaction was in when it failed.
func (t *Transaction) FailedAt() TxState {
	return t.failedAt
}

func (t *Transaction) advance(to TxState) error {
	if !CanTransition(t.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, t.State, to)
	}
	t.log.transition(t.State, to)
	t.State = to
	t.History = append(t.History, to)
	return nil
}

// fail moves the transaction to StateFailed and records err.
func (t *Transaction) fail(err error) {
	t.failedAt = t.State
	t.Err = err
	if t.State.Terminal() {
		return
	}
	t.log.transition(t.State, StateFailed)
	t.State = StateFailed
	t.History = append(t.History, StateFailed)
}

// step advances through each state in order, failing the transaction on
// the first illegal edge.
func (t *Transaction) step(states ...TxState) bool {
	for _, s := range states {
		if err := t.advance(s); err != nil {
			t.fail(err)
			return false
		}
	}
	return true
}

// Orchestrator runs transactions: command frame, ACK, enquiry, response.
// It keeps no per-line state; callers serialize access to a transport.
type Orchestrator struct {
	config Config
	log    *driverLog
}

// NewOrchestrator creates an Orchestrator with the given options.
func NewOrchestrator(opts ...Option) (*Orchestrator, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{config: cfg, log: newDriverLog(cfg)}, nil
}

// Run performs one exchange and returns the response payload. There are no
// retries; any failure ends the transaction.
func (o *Orchestrator) Run(t Transport, addr Address, payload []byte) ([]byte, error) {
	tx := o.Execute(t, "raw", addr, payload)
	return tx.Result, tx.Err
}

// Execute is Run returning the full transaction record. name labels the
// transaction in logs and observer reports.
func (o *Orchestrator) Execute(t Transport, name string, addr Address, payload []byte) *Transaction {
	tx := &Transaction{
		Command: name,
		Address: addr,
		Request: payload,
		State:   StateIdle,
		History: []TxState{StateIdle},
		Started: time.Now(),
		log:     o.log,
	}
	o.exchange(t, tx)
	o.finish(tx)
	return tx
}

func (o *Orchestrator) exchange(t Transport, tx *Transaction) {
	cmd, err := EncodeCommand(tx.Address, tx.Request)
	if err != nil {
		tx.Err = err
		return
	}

	o.log.packet("sent", cmd)
	if err := writeFrame(t, cmd); err != nil {
		tx.fail(protocolErr(StageWriteCommand, "write failed", err))
		return
	}
	if !tx.step(StateCommandSent, StateAckAwaited) {
		return
	}

	if err := readAck(t, tx.Address, o.log); err != nil {
		tx.fail(err)
		return
	}
	if !tx.step(StateAckOK) {
		return
	}

	enq, err := EncodeEnquiry(tx.Address)
	if err != nil {
		tx.fail(err)
		return
	}
	o.log.packet("sent", enq)
	if err := writeFrame(t, enq); err != nil {
		tx.fail(protocolErr(StageWriteEnquiry, "write failed", err))
		return
	}
	if !tx.step(StateEnquirySent, StateResponseAwaited) {
		return
	}

	resp, err := decodeResponse(t, tx.Address, o.log)
	if err != nil {
		tx.fail(err)
		return
	}
	tx.Response = resp

	payload, ok := ExtractPayload(resp.Bytes())
	if !ok {
		tx.fail(protocolErr(StageExtract, "frame shorter than declared length", nil))
		return
	}
	tx.Result = payload
	tx.step(StateComplete)
}

func (o *Orchestrator) finish(tx *Transaction) {
	tx.Duration = time.Since(tx.Started)
	if tx.State == StateIdle {
		// rejected before any I/O
		return
	}
	if tx.State == StateFailed {
		o.log.failed(tx.Command, tx.Address, tx.failedAt, tx.Err)
	}
	if o.config.Observer != nil {
		o.config.Observer.ObserveTransaction(Report{
			Command:  tx.Command,
			Address:  tx.Address,
			State:    tx.State,
			Failed:   tx.failedAt,
			Duration: tx.Duration,
			Err:      tx.Err,
		})
	}
}

// readAck expects ACK followed by the address digits.
func readAck(r io.Reader, addr Address, log *driverLog) error {
	b, err := readField(r, 1, StageAck, log)
	if err != nil {
		return err
	}
	switch b[0] {
	case ACK:
	case NAK:
		return protocolErr(StageAck, "negative acknowledgement", ErrNAK)
	default:
		return protocolErr(StageAck, fmt.Sprintf("expected ACK, got 0x%02x", b[0]), nil)
	}

	got, err := readField(r, 2, StageAck, log)
	if err != nil {
		return err
	}
	if !addressMatches(got, addr) {
		return protocolErr(StageAck, fmt.Sprintf("acknowledged by %q, expected %q", got, addr.Digits()), nil)
	}
	return nil
}

func writeFrame(w io.Writer, f Frame) error {
	for len(f) > 0 {
		n, err := w.Write(f)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		f = f[n:]
	}
	return nil
}
