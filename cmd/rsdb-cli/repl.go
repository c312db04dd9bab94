package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/pior/rsdb"
	"github.com/pior/rsdb/wire"
)

const helpText = `Commands:
  set <key> <value> [<key> <value> ...]  - Store one or more pairs
  get <key> [<key> ...]                  - Read keys
  delete <key> [<key> ...]               - Delete keys
  use <db>                               - Select a database
  current_db                             - Show the selected database
  list_db                                - List open databases
  detach <db>                            - Close a database
  range_begin <n>                        - First n pairs
  range_end <n>                          - Last n pairs, descending
  range_from_asc <key> <n>               - n pairs from key, ascending
  range_from_asc_ex <key> <n>            - Same, skipping key
  range_from_desc <key> <n>              - n pairs from key, descending
  range_from_desc_ex <key> <n>           - Same, skipping key
  stats                                  - Show session statistics
  quit                                   - Exit the CLI`

// repl runs commands typed by the user against one session.
type repl struct {
	session *rsdb.Session
	out     io.Writer
	timeout time.Duration
	prompt  bool
}

// run reads lines from in until EOF or quit.
func (r *repl) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if r.prompt {
			fmt.Fprint(r.out, r.promptText())
		}
		if !scanner.Scan() {
			break
		}
		if quit := r.exec(scanner.Text()); quit {
			return nil
		}
		if r.session.IsClosed() {
			return errors.New("connection lost")
		}
	}
	return scanner.Err()
}

func (r *repl) promptText() string {
	db := r.session.DB()
	if db == "" {
		db = "none"
	}
	return color.CyanString("(%s) ", db)
}

// exec runs one input line and reports whether the user asked to quit.
func (r *repl) exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	command, args := strings.ToLower(parts[0]), parts[1:]
	start := time.Now()

	var resp wire.Response
	var err error

	switch command {
	case "set":
		if len(args) == 0 || len(args)%2 != 0 {
			r.usage("set <key> <value> [<key> <value> ...]")
			return false
		}
		pairs := make([]wire.Pair, 0, len(args)/2)
		for i := 0; i < len(args); i += 2 {
			pairs = append(pairs, wire.Pair{Key: []byte(args[i]), Value: []byte(args[i+1])})
		}
		resp, err = r.session.MSet(ctx, pairs...)

	case "get":
		if len(args) == 0 {
			r.usage("get <key> [<key> ...]")
			return false
		}
		resp, err = r.session.Get(ctx, rsdb.Keys(args...)...)
		if err == nil {
			r.printValues(args, resp)
			r.took(start)
			return false
		}

	case "delete", "del":
		if len(args) == 0 {
			r.usage("delete <key> [<key> ...]")
			return false
		}
		resp, err = r.session.Delete(ctx, rsdb.Keys(args...)...)

	case "use":
		if len(args) != 1 {
			r.usage("use <db>")
			return false
		}
		resp, err = r.session.Use(ctx, args[0])

	case "current_db":
		resp, err = r.session.CurrentDB(ctx)

	case "list_db":
		resp, err = r.session.ListDB(ctx)

	case "detach":
		if len(args) != 1 {
			r.usage("detach <db>")
			return false
		}
		resp, err = r.session.Detach(ctx, args[0])

	case "range_begin", "range_end":
		if len(args) != 1 {
			r.usage(command + " <n>")
			return false
		}
		n, ok := r.pageSize(args[0])
		if !ok {
			return false
		}
		resp, err = r.session.Range(ctx, rsdb.RangeStart{Reverse: command == "range_end"}, n)

	case "range_from_asc", "range_from_asc_ex", "range_from_desc", "range_from_desc_ex":
		if len(args) != 2 {
			r.usage(command + " <key> <n>")
			return false
		}
		n, ok := r.pageSize(args[1])
		if !ok {
			return false
		}
		from := rsdb.RangeStart{
			Key:       []byte(args[0]),
			Reverse:   strings.HasPrefix(command, "range_from_desc"),
			Exclusive: strings.HasSuffix(command, "_ex"),
		}
		resp, err = r.session.Range(ctx, from, n)

	case "stats":
		r.printStats()
		return false

	case "help":
		fmt.Fprintln(r.out, helpText)
		return false

	case "quit", "exit":
		fmt.Fprintln(r.out, "Goodbye!")
		return true

	default:
		fmt.Fprintf(r.out, "Unknown command: %s. Type 'help' for available commands.\n", command)
		return false
	}

	if err != nil {
		r.printError(err)
		return false
	}
	r.printResponse(resp)
	r.took(start)
	return false
}

func (r *repl) usage(text string) {
	fmt.Fprintln(r.out, "Usage: "+text)
}

func (r *repl) pageSize(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > wire.MaxCount {
		fmt.Fprintf(r.out, "Invalid page size: %s\n", s)
		return 0, false
	}
	return n, true
}

func (r *repl) took(start time.Time) {
	fmt.Fprintln(r.out, color.HiBlackString("(took %v)", time.Since(start).Round(time.Microsecond)))
}

func (r *repl) printError(err error) {
	var opErr *wire.OpError
	if errors.As(err, &opErr) {
		fmt.Fprintln(r.out, color.RedString("ERROR %s", opErr.Message))
		return
	}
	fmt.Fprintln(r.out, color.RedString("Error: %v", err))
}

func (r *repl) printResponse(resp wire.Response) {
	switch v := resp.(type) {
	case *wire.OKResponse:
		fmt.Fprintln(r.out, color.GreenString("OK %s", v.Message))
	case *wire.TokenResponse:
		fmt.Fprintln(r.out, formatToken(v.Value))
	case *wire.TokensResponse:
		if len(v.Values) == 0 {
			fmt.Fprintln(r.out, "(empty)")
		}
		for i, value := range v.Values {
			fmt.Fprintf(r.out, "%d) %s\n", i+1, formatToken(value))
		}
	case *wire.PairsResponse:
		if len(v.Pairs) == 0 {
			fmt.Fprintln(r.out, "(empty)")
		}
		for _, p := range v.Pairs {
			fmt.Fprintf(r.out, "%s: %s\n", color.YellowString("%s", p.Key), formatToken(p.Value))
		}
	}
}

func (r *repl) printValues(keys []string, resp wire.Response) {
	tokens, ok := resp.(*wire.TokensResponse)
	if !ok {
		r.printResponse(resp)
		return
	}
	for i, key := range keys {
		var value []byte
		if i < len(tokens.Values) {
			value = tokens.Values[i]
		}
		fmt.Fprintf(r.out, "%s: %s\n", color.YellowString("%s", key), formatToken(value))
	}
}

func (r *repl) printStats() {
	stats := r.session.Stats()
	fmt.Fprintf(r.out, "Session (%s):\n", r.session.Addr())
	fmt.Fprintf(r.out, "  Commands:      %d\n", stats.Commands)
	fmt.Fprintf(r.out, "  Reads:         %d\n", stats.Reads)
	fmt.Fprintf(r.out, "  Writes:        %d\n", stats.Writes)
	fmt.Fprintf(r.out, "  Deletes:       %d\n", stats.Deletes)
	fmt.Fprintf(r.out, "  Ranges:        %d\n", stats.Ranges)
	fmt.Fprintf(r.out, "  Server errors: %d\n", stats.OpErrors)
	fmt.Fprintf(r.out, "  Bytes sent:    %d\n", stats.BytesWritten)
	fmt.Fprintf(r.out, "  Bytes read:    %d\n", stats.BytesRead)
}

// formatToken renders a token for display; the null token is shown as (nil).
func formatToken(b []byte) string {
	if b == nil {
		return color.HiBlackString("(nil)")
	}
	return strconv.Quote(string(b))
}
