// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/future-re/NewScanmem-sub002/region"
	"github.com/future-re/NewScanmem-sub002/scanner"
	"github.com/future-re/NewScanmem-sub002/scantype"
)

func newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell PID",
		Short: "Start an interactive scan session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePid(args)
			if err != nil {
				return err
			}
			ptraceAttach, _ := cmd.Flags().GetBool("ptrace")
			return runShell(pid, ptraceAttach)
		},
	}
	cmd.Flags().Bool("ptrace", false, "ptrace-attach to stop the target while scanning")
	return cmd
}

// shellState is the interactive session's current predicate settings,
// changed with "type"/"match"/"level" before each "scan"/"refine".
type shellState struct {
	dataType  scantype.DataType
	matchType scantype.MatchType
	level     region.Level
	noLibs    bool
	step      int
	blockSize int
}

func runShell(pid int, ptraceAttach bool) error {
	sess, err := scanner.New(pid, ptraceAttach)
	if err != nil {
		return err
	}
	defer sess.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("memscan(%d)> ", pid),
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	st := shellState{dataType: scantype.I32, matchType: scantype.Equal, level: region.Writable, step: 1}

	fmt.Println("memscan interactive shell. Type \"help\" for commands.")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if err := dispatchShellLine(sess, &st, line); err != nil {
			if err == errShellExit {
				return nil
			}
			fmt.Fprintln(rl.Stderr(), err)
		}
	}
}

var errShellExit = errors.New("exit")

func dispatchShellLine(sess *scanner.Session, st *shellState, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmdName, rest := fields[0], fields[1:]

	switch cmdName {
	case "exit", "quit":
		return errShellExit

	case "help":
		printShellHelp()
		return nil

	case "type":
		if len(rest) != 1 {
			return fmt.Errorf("usage: type <i32|u64|f64|bytes|string|...>")
		}
		dt, err := parseDataType(rest[0])
		if err != nil {
			return err
		}
		st.dataType = dt
		return nil

	case "match":
		if len(rest) != 1 {
			return fmt.Errorf("usage: match <eq|ne|gt|lt|range|any|changed|...>")
		}
		mt, err := parseMatchType(rest[0])
		if err != nil {
			return err
		}
		st.matchType = mt
		return nil

	case "level":
		if len(rest) != 1 {
			return fmt.Errorf("usage: level <heap-stack|writable|all>")
		}
		st.level = levelFromFlag(rest[0])
		return nil

	case "nolibs":
		if len(rest) != 1 {
			return fmt.Errorf("usage: nolibs <on|off>")
		}
		st.noLibs = rest[0] == "on"
		return nil

	case "step":
		if len(rest) != 1 {
			return fmt.Errorf("usage: step <n>")
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("invalid step %q: %w", rest[0], err)
		}
		st.step = n
		return nil

	case "blocksize":
		if len(rest) != 1 {
			return fmt.Errorf("usage: blocksize <bytes>")
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("invalid blocksize %q: %w", rest[0], err)
		}
		st.blockSize = n
		return nil

	case "scan", "refine":
		if cmdName == "scan" {
			sess.ClearMatches()
		}
		opts := scanner.Options{
			DataType:  st.dataType,
			MatchType: st.matchType,
			Level:     st.level,
			Step:      st.step,
			BlockSize: st.blockSize,
		}
		if st.noLibs {
			opts.Filter = region.ExcludeSharedLibraries
		}
		uv, err := valueFromArgs(opts, rest)
		if err != nil {
			return err
		}
		stats, err := sess.PerformScan(context.Background(), opts, uv)
		if err != nil {
			return err
		}
		fmt.Println(stats)
		return nil

	case "list":
		n := 20
		if len(rest) == 1 {
			v, err := strconv.Atoi(rest[0])
			if err == nil {
				n = v
			}
		}
		printMatches(sess, n)
		return nil

	case "reset":
		sess.ClearMatches()
		return nil

	case "regions":
		opts := scanner.Options{Level: st.level}
		if st.noLibs {
			opts.Filter = region.ExcludeSharedLibraries
		}
		regions, err := sess.Regions(opts)
		if err != nil {
			return err
		}
		for _, r := range regions {
			fmt.Printf("%08x-%08x %s %-14s %s\n", r.Start, r.End, r.Perm, r.Backing, r.Pathname)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q; type \"help\" for a list", cmdName)
	}
}

func printMatches(sess *scanner.Session, limit int) {
	swaths := sess.Matches()
	shown := 0
	for _, s := range swaths {
		for i, rec := range s.Bytes {
			if !rec.Live() {
				continue
			}
			if shown >= limit {
				fmt.Printf("... %d more matched bytes\n", sess.MatchCount()-shown)
				return
			}
			fmt.Printf("0x%x: old=0x%02x flags=%s\n", s.FirstAddress+uint64(i), rec.OldByte, rec.Flags)
			shown++
		}
	}
}

func printShellHelp() {
	fmt.Println(`Commands:
  type <dt>        set the data type (i32, u64, f64, bytes, string, ...)
  match <mt>        set the match type (eq, ne, gt, lt, range, any, changed, ...)
  level <lvl>       set the region level (heap-stack, writable, all)
  nolibs <on|off>   exclude mapped shared library regions
  step <n>          first-scan stride in bytes (default 1, ignored on refine)
  blocksize <n>     first-scan read chunk size in bytes (0 = engine default)
  scan <value>      run a first scan with the current settings
  refine <value>    narrow the current matches
  list [n]          show up to n matched bytes (default 20)
  regions           list the process's memory regions
  reset             discard recorded matches
  exit              leave the shell`)
}
