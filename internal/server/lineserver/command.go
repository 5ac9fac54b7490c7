package lineserver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ebalduf/netkv/internal/core/domain"
	"github.com/ebalduf/netkv/internal/storage/hashtable"
	"github.com/ebalduf/netkv/internal/telemetry/metric"
)

// Replies sent back to clients. The trailing newline is appended by
// the connection writer, not embedded here.
const (
	replyOK           = "OK"
	replyNotFound     = "Not found"
	replyKeyNotFound  = "Error: key not found"
	replyKeyExists    = "Error: key exists"
	replyAllClean     = "All clean!"
	replyGoodbye      = "Goodbye!"
	replyUnknown      = "Error: unknown command"
	replyBadFormat    = "Error: invalid command format"
	replyDumpFailed   = "Error: failed to dump"
	replyEmptyDump    = "(empty)"
	replyRateExceeded = "Error: rate limit exceeded"
)

// CommandHandler parses text commands and dispatches them against the
// table. It is stateless apart from its dependencies and safe for
// concurrent use by every worker.
type CommandHandler struct {
	table       *hashtable.Table
	metrics     *metric.Registry
	maxKeyLen   int
	maxValueLen int
}

// NewCommandHandler wires a handler to a table. metrics may be nil.
func NewCommandHandler(table *hashtable.Table, metrics *metric.Registry, maxKeyLen, maxValueLen int) *CommandHandler {
	if maxKeyLen <= 0 {
		maxKeyLen = 255
	}
	if maxValueLen <= 0 {
		maxValueLen = 767
	}
	return &CommandHandler{
		table:       table,
		metrics:     metrics,
		maxKeyLen:   maxKeyLen,
		maxValueLen: maxValueLen,
	}
}

// Handle executes one command line and returns the reply to send and
// whether the connection should close afterwards.
func (h *CommandHandler) Handle(line string) (reply string, quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		h.observe("unknown", replyBadFormat)
		return replyBadFormat, false
	}

	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "write":
		reply = h.handleUpsert(args, hashtable.ModeWrite)
	case "update":
		reply = h.handleUpsert(args, hashtable.ModeUpdateOnly)
	case "add":
		reply = h.handleUpsert(args, hashtable.ModeAddOnly)
	case "search":
		reply = h.handleSearch(args)
	case "delete":
		reply = h.handleDelete(args)
	case "dump":
		reply = h.handleDump(args)
	case "size":
		reply = h.handleSize(args)
	case "wipe":
		reply = h.handleWipe(args)
	case "quit":
		reply, quit = replyGoodbye, true
	default:
		cmd = "unknown"
		reply = replyUnknown
	}

	h.observe(cmd, reply)
	return reply, quit
}

func (h *CommandHandler) handleUpsert(args []string, mode hashtable.Mode) string {
	key, value, ttl, ok := parseUpsertArgs(args)
	if !ok {
		return replyBadFormat
	}
	key = truncate(key, h.maxKeyLen)
	value = truncate(value, h.maxValueLen)

	err := h.table.Upsert(key, value, ttl, mode)
	switch {
	case err == nil:
		return replyOK
	case errors.Is(err, domain.ErrKeyNotFound):
		return replyKeyNotFound
	case errors.Is(err, domain.ErrKeyExists):
		return replyKeyExists
	default:
		return replyBadFormat
	}
}

func (h *CommandHandler) handleSearch(args []string) string {
	if len(args) != 1 {
		return replyBadFormat
	}
	key := truncate(args[0], h.maxKeyLen)

	value, createdAt, err := h.table.Lookup(key)
	if err != nil {
		return replyNotFound
	}
	return fmt.Sprintf("Found: %s, timestamp: %d", value, createdAt.Unix())
}

func (h *CommandHandler) handleDelete(args []string) string {
	if len(args) != 1 {
		return replyBadFormat
	}
	key := truncate(args[0], h.maxKeyLen)

	if err := h.table.Remove(key); err != nil {
		return replyNotFound
	}
	return replyOK
}

func (h *CommandHandler) handleDump(args []string) string {
	var entries []hashtable.DumpEntry
	switch len(args) {
	case 0:
		entries = h.table.DumpAll()
	case 2:
		start, err1 := strconv.Atoi(args[0])
		count, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			return replyBadFormat
		}
		var err error
		entries, err = h.table.DumpRange(start, count)
		if err != nil {
			return replyDumpFailed
		}
	default:
		return replyBadFormat
	}

	if len(entries) == 0 {
		return replyEmptyDump
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Key)
		b.WriteString(": ")
		b.WriteString(e.Value)
	}
	return b.String()
}

func (h *CommandHandler) handleSize(args []string) string {
	if len(args) != 0 {
		return replyBadFormat
	}
	count, capacity := h.table.Size()
	return fmt.Sprintf("%d, %d", count, capacity)
}

func (h *CommandHandler) handleWipe(args []string) string {
	if len(args) != 0 {
		return replyBadFormat
	}
	h.table.Clear()
	return replyAllClean
}

func (h *CommandHandler) observe(cmd, reply string) {
	if h.metrics == nil {
		return
	}
	status := "ok"
	if strings.HasPrefix(reply, "Error:") {
		status = "error"
	}
	h.metrics.CommandsTotal.WithLabelValues(cmd, status).Inc()
}

// parseUpsertArgs splits "key value... [ttl]" where the value may hold
// embedded spaces. A trailing all-digit token is taken as a TTL in
// whole seconds; anything else folds into the value.
func parseUpsertArgs(args []string) (key, value string, ttl time.Duration, ok bool) {
	if len(args) < 2 {
		return "", "", 0, false
	}
	key = args[0]
	rest := args[1:]

	if len(rest) >= 2 {
		if secs, err := strconv.ParseUint(rest[len(rest)-1], 10, 32); err == nil {
			ttl = time.Duration(secs) * time.Second
			rest = rest[:len(rest)-1]
		}
	}
	return key, strings.Join(rest, " "), ttl, true
}

// truncate drops bytes past max, mirroring the fixed-size parse
// buffers of the wire format. Clients sending over-length fields get
// them silently clipped rather than rejected.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
