// internal/console/console.go
package console

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tamzrod/routine-runner/internal/status"
	"github.com/tamzrod/routine-runner/internal/store"
)

// Command letters. A command is one line; the letter is its first non-space byte.
const (
	CommandWrite        = 'w'
	CommandRead         = 'r'
	CommandFactoryReset = 'f'
	CommandDump         = 'd'
	CommandPins         = 'p'
	CommandStatus       = 's'
)

// ProtocolVersion is announced in the banner.
const ProtocolVersion = 1

// Scheduler is what the console needs from the interpreter.
type Scheduler interface {
	Reset()
	Snapshot() status.Snapshot
}

// Handler executes programming and diagnostic commands against the store.
// It must run on the goroutine that owns the store and the scheduler, so a
// command never interleaves with a tick.
type Handler struct {
	store *store.Store
	sched Scheduler
	out   io.Writer
	log   *slog.Logger
}

func New(st *store.Store, sched Scheduler, out io.Writer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{store: st, sched: sched, out: out, log: log}
}

// Banner announces the console and its limits.
func (h *Handler) Banner() error {
	_, err := fmt.Fprintf(h.out, "Serial ready\nVersion: %d\nCONFIG_MAX_ROUTINES: %d\n", ProtocolVersion, h.store.Limit())
	return err
}

// Handle executes one command line. Command failures are reported to the
// peer as an "E: ..." line; the returned error is only for output failures.
func (h *Handler) Handle(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	cmd, payload := line[0], line[1:]
	h.log.Debug("console command", "cmd", string(cmd))

	switch cmd {
	case CommandWrite:
		return h.writeRoutines(payload)
	case CommandRead:
		return h.println(EncodeRoutines(h.store))
	case CommandFactoryReset:
		h.store.FactoryReset()
		h.sched.Reset()
		return h.println("OK")
	case CommandDump:
		return h.dump()
	case CommandPins:
		return h.writePins(payload)
	case CommandStatus:
		return h.println(status.Encode(h.sched.Snapshot()))
	default:
		h.log.Warn("unknown console command", "cmd", string(cmd))
		return h.fail(fmt.Errorf("unknown command %q", cmd))
	}
}

func (h *Handler) writeRoutines(payload string) error {
	routines, err := ParseRoutines(payload)
	if err != nil {
		return h.fail(err)
	}

	if err := h.store.ReplaceRoutines(routines); err != nil {
		return h.fail(err)
	}
	h.sched.Reset()

	return h.println("OK")
}

func (h *Handler) writePins(payload string) error {
	sc := &scanner{s: payload}

	var states [store.PinStateBytes]byte
	for i := range states {
		b, err := sc.readByte(operandDigits, fmt.Sprintf("pin byte %d", i))
		if err != nil {
			return h.fail(err)
		}
		states[i] = b
	}
	if !sc.done() {
		return h.fail(fmt.Errorf("trailing input at %d", sc.pos))
	}

	if err := h.store.SetDefaultPinStates(states); err != nil {
		return h.fail(err)
	}
	return h.println("OK")
}

func (h *Handler) dump() error {
	var b strings.Builder
	for hex := range h.store.Dump() {
		b.WriteString(hex)
		b.WriteByte(' ')
	}
	if err := h.println(b.String()); err != nil {
		return err
	}
	return h.println("Done")
}

func (h *Handler) fail(err error) error {
	h.log.Warn("console command failed", "err", err)
	return h.println("E: " + err.Error())
}

func (h *Handler) println(s string) error {
	_, err := io.WriteString(h.out, s+"\n")
	return err
}
