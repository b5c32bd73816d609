// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/future-re/NewScanmem-sub002/matchset"
	"github.com/future-re/NewScanmem-sub002/region"
	"github.com/future-re/NewScanmem-sub002/scanner"
	"github.com/future-re/NewScanmem-sub002/scantype"
	"github.com/future-re/NewScanmem-sub002/scanval"
)

// newRootCmd builds the memscan command tree: one cobra.Command per
// session operation, the way cmd/viewcore/main.go dispatches on a
// single command word and objref.go's runObjref reads its flags off
// *cobra.Command.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "memscan",
		Short: "Interactive memory scanner for a Linux process",
	}
	root.AddCommand(newScanCmd())
	root.AddCommand(newRefineCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newResetCmd())
	root.AddCommand(newShellCmd())
	return root
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", "i32", "data type: i8/i16/i32/i64/u8/u16/u32/u64/f32/f64/int/float/number/bytes/string")
	cmd.Flags().String("match", "eq", "match type: eq/ne/gt/lt/range/any/changed/unchanged/increased/decreased/increased_by/decreased_by")
	cmd.Flags().String("level", "writable", "region level: heap-stack/writable/all")
	cmd.Flags().Bool("no-libs", false, "exclude mapped shared library regions")
	cmd.Flags().Bool("ptrace", false, "ptrace-attach to stop the target while scanning")
	cmd.Flags().Int("step", 1, "first-scan stride in bytes: probe every Nth offset (ignored on refine)")
	cmd.Flags().Int("block-size", 0, "first-scan read chunk size in bytes; 0 uses the engine default (ignored on refine)")
}

func levelFromFlag(s string) region.Level {
	switch s {
	case "heap-stack":
		return region.HeapStackOnly
	case "all":
		return region.AllReadable
	default:
		return region.Writable
	}
}

func optionsFromFlags(cmd *cobra.Command) (scanner.Options, error) {
	typeStr, _ := cmd.Flags().GetString("type")
	matchStr, _ := cmd.Flags().GetString("match")
	levelStr, _ := cmd.Flags().GetString("level")
	noLibs, _ := cmd.Flags().GetBool("no-libs")
	step, _ := cmd.Flags().GetInt("step")
	blockSize, _ := cmd.Flags().GetInt("block-size")

	dt, err := parseDataType(typeStr)
	if err != nil {
		return scanner.Options{}, err
	}
	mt, err := parseMatchType(matchStr)
	if err != nil {
		return scanner.Options{}, err
	}

	opts := scanner.Options{
		DataType:  dt,
		MatchType: mt,
		Level:     levelFromFlag(levelStr),
		Step:      step,
		BlockSize: blockSize,
	}
	if noLibs {
		opts.Filter = region.ExcludeSharedLibraries
	}
	return opts, nil
}

func parsePid(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("a process ID is required")
	}
	return strconv.Atoi(args[0])
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan PID VALUE",
		Short: "Run a first scan over a process's memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePid(args)
			if err != nil {
				return err
			}
			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}
			ptraceAttach, _ := cmd.Flags().GetBool("ptrace")

			sess, err := scanner.New(pid, ptraceAttach)
			if err != nil {
				return err
			}
			defer sess.Close()

			uv, err := valueFromArgs(opts, args[1:])
			if err != nil {
				return err
			}
			stats, err := sess.PerformScan(context.Background(), opts, uv)
			if err != nil {
				return err
			}
			if err := saveState(pid, matchSetFrom(sess)); err != nil {
				return err
			}
			fmt.Println(stats)
			return nil
		},
	}
	addCommonFlags(cmd)
	return cmd
}

func newRefineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refine PID VALUE",
		Short: "Narrow a previous scan's matches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePid(args)
			if err != nil {
				return err
			}
			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}
			ptraceAttach, _ := cmd.Flags().GetBool("ptrace")

			prev, err := loadState(pid)
			if err != nil {
				return err
			}
			if prev.Count() == 0 {
				return fmt.Errorf("no previous scan recorded for pid %d; run scan first", pid)
			}

			sess, err := scanner.New(pid, ptraceAttach)
			if err != nil {
				return err
			}
			defer sess.Close()
			sess.SeedMatches(prev)

			uv, err := valueFromArgs(opts, args[1:])
			if err != nil {
				return err
			}
			stats, err := sess.PerformScan(context.Background(), opts, uv)
			if err != nil {
				return err
			}
			if err := saveState(pid, matchSetFrom(sess)); err != nil {
				return err
			}
			fmt.Println(stats)
			return nil
		},
	}
	addCommonFlags(cmd)
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list PID",
		Short: "List the process's memory regions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePid(args)
			if err != nil {
				return err
			}
			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}
			regions, err := region.Enumerate(pid, opts.Level, opts.Filter)
			if err != nil {
				return err
			}
			for _, r := range regions {
				fmt.Printf("%08x-%08x %s %-14s %s\n", r.Start, r.End, r.Perm, r.Backing, r.Pathname)
			}
			return nil
		},
	}
	addCommonFlags(cmd)
	return cmd
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset PID",
		Short: "Discard the recorded matches for a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePid(args)
			if err != nil {
				return err
			}
			return clearState(pid)
		},
	}
}

// valueFromArgs joins the remaining CLI args into one value literal
// (so an unquoted byte array like "de ad be ef" can be typed without
// shell quoting) and parses it for opts.DataType. Match types with no
// operand (ANY, CHANGED, NOT_CHANGED, INCREASED, DECREASED) need no
// value and return a nil UserValue.
func valueFromArgs(opts scanner.Options, rest []string) (*scanval.UserValue, error) {
	needsNoOperand := opts.MatchType == scantype.Any ||
		opts.MatchType == scantype.Changed || opts.MatchType == scantype.NotChanged ||
		opts.MatchType == scantype.Increased || opts.MatchType == scantype.Decreased
	if len(rest) == 0 {
		if needsNoOperand {
			return nil, nil
		}
		return nil, fmt.Errorf("match type %v requires a value", opts.MatchType)
	}
	uv, err := parseValue(opts.DataType, joinArgs(rest))
	if err != nil {
		return nil, err
	}
	return &uv, nil
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}

func matchSetFrom(sess *scanner.Session) *matchset.MatchSet {
	ms := matchset.New()
	for _, s := range sess.Matches() {
		ms.AddSwath(s)
	}
	return ms
}
