// Package terminal implements functions for responding to user
// input and dispatching to appropriate backend commands.
package terminal

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cosiner/argv"

	"github.com/go-delve/elfdb/pkg/elfcode"
	"github.com/go-delve/elfdb/service"
	"github.com/go-delve/elfdb/service/api"
)

type cmdfunc func(t *Term, ctx callContext, args string) error

// callContext describes where a command was invoked from.
type callContext struct {
	// Script is true when the command comes from a script or an init file
	// rather than from the prompt.
	Script bool
}

type command struct {
	aliases        []string
	builtinAliases []string
	group          commandGroup
	// regArg is true if the first argument of the command is a register
	// name, it is used for completion.
	regArg  bool
	helpMsg string
	cmdFn   cmdfunc
}

// Returns true if the command string matches one of the aliases for this command
func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

// Commands represents the commands for the elfdb terminal.
type Commands struct {
	cmds   []command
	client service.Client
}

// byFirstAlias will sort by the first
// alias of a command.
type byFirstAlias []command

func (a byFirstAlias) Len() int           { return len(a) }
func (a byFirstAlias) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byFirstAlias) Less(i, j int) bool { return a[i].aliases[0] < a[j].aliases[0] }

// DebugCommands returns a Commands struct with default commands defined.
func DebugCommands(client service.Client) *Commands {
	c := &Commands{client: client}

	c.cmds = []command{
		{aliases: []string{"help", "h"}, cmdFn: c.help, helpMsg: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{aliases: []string{"break", "b"}, group: breakCmds, cmdFn: breakpoint, helpMsg: `Sets a breakpoint.

	break <condition>

The condition is an expression over the last executed instruction:

	line(n)           the instruction on line n was executed
	read(r)           the instruction read register r
	write(r)          the instruction wrote register r
	unique(r)         register r holds a value never seen before
	eq(r, n)          register r equals n, also lt, lte, gt and gte
	not(x)            x is false
	all(x, y, ...)    all of the arguments are true

Registers are named a to f, ip is the register bound to the instruction pointer.

	break all(line(28), not(unique(d)))`},
		{aliases: []string{"remove", "clear", "cl"}, group: breakCmds, cmdFn: removeBreakpoint, helpMsg: `Deletes a breakpoint.

	remove [id]

Without arguments the most recently created breakpoint is deleted.`},
		{aliases: []string{"breakpoints", "bp"}, group: breakCmds, cmdFn: breakpoints, helpMsg: "Print out info for active breakpoints."},
		{aliases: []string{"toggle"}, group: breakCmds, cmdFn: toggle, helpMsg: `Toggles on or off a breakpoint.

	toggle <id>`},
		{aliases: []string{"inspect"}, group: breakCmds, cmdFn: inspect, helpMsg: `Shows a breakpoint's condition, hit count and the values seen by its unique terms.

	inspect [id]

Without arguments the most recently created breakpoint is shown.`},
		{aliases: []string{"continue", "c"}, group: runCmds, cmdFn: c.cont, helpMsg: `Run until a breakpoint fires or the program halts.

	continue

Use Ctrl-C to pause a running program.`},
		{aliases: []string{"step", "s"}, group: runCmds, cmdFn: c.step, helpMsg: `Executes a single instruction.

	step

Breakpoints are not evaluated while stepping.`},
		{aliases: []string{"reset", "restart", "r"}, group: runCmds, cmdFn: restart, helpMsg: `Resets the program to its initial state.

	reset

Registers, the values seen by each register and the counters are cleared, breakpoints are kept.`},
		{aliases: []string{"load"}, group: runCmds, cmdFn: load, helpMsg: `Loads a program.

	load <path>

The program must start with a "#ip <register>" directive followed by one instruction per line. Breakpoints are kept.`},
		{aliases: []string{"regs"}, group: dataCmds, cmdFn: regs, helpMsg: `Print contents of registers.

	regs

Registers read by the last instruction are marked with '*', registers it wrote are highlighted.`},
		{aliases: []string{"set"}, group: dataCmds, regArg: true, cmdFn: setRegister, helpMsg: `Changes the value of a register.

	set <register> <value>

The program must be paused. The new value is recorded as seen by the register.`},
		{aliases: []string{"history"}, group: dataCmds, regArg: true, cmdFn: history, helpMsg: `Prints the values seen by a register.

	history <register>`},
		{aliases: []string{"print", "p"}, group: dataCmds, cmdFn: printCond, helpMsg: `Evaluates a breakpoint condition against the last executed instruction.

	print <condition>

See 'help break' for the syntax of conditions.`},
		{aliases: []string{"list", "ls", "l"}, group: dataCmds, cmdFn: listCommand, helpMsg: `Show instructions around the current line.

	list [line]

The number of lines shown is set by the list-context-lines configuration parameter.
With human-decoding set instructions are shown as assignments.`},
		{aliases: []string{"state"}, group: dataCmds, cmdFn: stateCommand, helpMsg: "Prints the program state and the execution counters."},
		{aliases: []string{"exit", "quit", "q"}, cmdFn: exitCommand, helpMsg: `Exit the debugger.

	exit`},
		{aliases: []string{"config"}, cmdFn: configureCmd, helpMsg: `Changes configuration parameters.

	config -list

Show all configuration parameters.

	config -save

Saves the configuration file to disk, overwriting the current configuration file.

	config <parameter> <value>

Changes the value of a configuration parameter.

	config alias <command> <alias>
	config alias <alias>

Defines <alias> as an alias to <command> or removes an alias.`},
		{aliases: []string{"source"}, cmdFn: c.sourceCommand, helpMsg: `Executes a file containing a list of elfdb commands.

	source <path>

If path ends with the .star extension it will be interpreted as a starlark script.
Functions of the script named command_<name> become new commands.

If path is a single '-' character an interactive starlark interpreter will start instead. Type 'exit' to exit.`},
		{aliases: []string{"transcript"}, cmdFn: transcript, helpMsg: `Appends command output to a file.

	transcript [-t] [-x] <output file>
	transcript -off

Output of elfdb's command is appended to the specified output file. If '-t' is specified and the output file exists it is truncated. If '-x' is specified output to stdout is suppressed instead.

Using the -off option disables the transcript.`},
		{aliases: []string{"version"}, cmdFn: versionCommand, helpMsg: "Prints the version of elfdb."},
	}

	sort.Sort(byFirstAlias(c.cmds))
	return c
}

// Register custom commands. Expects cf to be a func of type cmdfunc,
// returning only an error.
func (c *Commands) Register(cmdstr string, cf cmdfunc, helpMsg string) {
	for i := range c.cmds {
		if c.cmds[i].match(cmdstr) {
			c.cmds[i].cmdFn = cf
			c.cmds[i].helpMsg = helpMsg
			return
		}
	}

	c.cmds = append(c.cmds, command{aliases: []string{cmdstr}, cmdFn: cf, helpMsg: helpMsg})
}

// Find will look up the command function for the given command input.
// If it cannot find the command it will default to noCmdAvailable().
// An empty command does nothing.
func (c *Commands) Find(cmdstr string) cmdfunc {
	if cmdstr == "" {
		return nullCommand
	}

	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v.cmdFn
		}
	}

	return noCmdAvailable
}

func (c *Commands) takesRegister(cmdstr string) bool {
	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v.regArg
		}
	}
	return false
}

// CallWithContext takes a command and a context that command should be executed in.
func (c *Commands) CallWithContext(cmdstr string, t *Term, ctx callContext) error {
	vals := strings.SplitN(strings.TrimSpace(cmdstr), " ", 2)
	cmdname := vals[0]
	var args string
	if len(vals) > 1 {
		args = strings.TrimSpace(vals[1])
	}
	return c.Find(cmdname)(t, ctx, args)
}

// Call takes a command to execute.
func (c *Commands) Call(cmdstr string, t *Term) error {
	return c.CallWithContext(cmdstr, t, callContext{})
}

// Merge takes aliases defined in the config struct and merges them with the default aliases.
func (c *Commands) Merge(allAliases map[string][]string) {
	for i := range c.cmds {
		if c.cmds[i].builtinAliases != nil {
			c.cmds[i].aliases = append(c.cmds[i].aliases[:0], c.cmds[i].builtinAliases...)
		}
	}
	for i := range c.cmds {
		if aliases, ok := allAliases[c.cmds[i].aliases[0]]; ok {
			if c.cmds[i].builtinAliases == nil {
				c.cmds[i].builtinAliases = make([]string, len(c.cmds[i].aliases))
				copy(c.cmds[i].builtinAliases, c.cmds[i].aliases)
			}
			c.cmds[i].aliases = append(c.cmds[i].aliases, aliases...)
		}
	}
}

var errNoCmd = errors.New("command not available")

func noCmdAvailable(t *Term, ctx callContext, args string) error {
	return errNoCmd
}

func nullCommand(t *Term, ctx callContext, args string) error {
	return nil
}

func (c *Commands) help(t *Term, ctx callContext, args string) error {
	if args != "" {
		for _, cmd := range c.cmds {
			for _, alias := range cmd.aliases {
				if alias == args {
					fmt.Fprintln(t.stdout, cmd.helpMsg)
					return nil
				}
			}
		}
		return errNoCmd
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")

	for _, cgd := range commandGroupDescriptions {
		fmt.Fprintf(t.stdout, "\n%s:\n", cgd.description)
		w := new(tabwriter.Writer)
		w.Init(t.stdout, 0, 8, 0, '-', 0)
		for _, cmd := range c.cmds {
			if cmd.group != cgd.group {
				continue
			}
			h := cmd.helpMsg
			if idx := strings.Index(h, "\n"); idx >= 0 {
				h = h[:idx]
			}
			if len(cmd.aliases) > 1 {
				fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
			} else {
				fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(t.stdout)
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

func (c *Commands) cont(t *Term, ctx callContext, args string) error {
	stateChan := t.client.Continue()
	var state *api.DebuggerState
	for state = range stateChan {
		if state.Err != nil {
			return state.Err
		}
		printcontext(t, state)
	}
	return nil
}

func (c *Commands) step(t *Term, ctx callContext, args string) error {
	state, err := t.client.Step()
	if err != nil {
		return err
	}
	printcontext(t, state)
	return nil
}

func restart(t *Term, ctx callContext, args string) error {
	state, err := t.client.Restart()
	if err != nil {
		return err
	}
	fmt.Fprintln(t.stdout, "Program reset.")
	printRegisters(t, state)
	return nil
}

func load(t *Term, ctx callContext, args string) error {
	v, err := parseArgv(args)
	if err != nil {
		return err
	}
	if len(v) != 1 {
		return errors.New("wrong number of arguments: load <path>")
	}
	if _, err := t.client.Load(v[0]); err != nil {
		return err
	}
	prog, err := t.client.ListInstructions()
	if err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "Loaded %s: %d instructions, ip bound to register %s\n", prog.Path, len(prog.Instructions), elfcode.RegisterName(prog.IPRegister))
	return nil
}

func breakpoint(t *Term, ctx callContext, args string) error {
	if args == "" {
		return errors.New("wrong number of arguments: break <condition>")
	}
	bp, err := t.client.CreateBreakpoint(args)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "%s set: %s\n", formatBreakpointName(bp), bp.Expr)
	return nil
}

func removeBreakpoint(t *Term, ctx callContext, args string) error {
	var bp *api.Breakpoint
	if args == "" {
		var err error
		bp, err = t.client.ClearLastBreakpoint()
		if err != nil {
			return err
		}
	} else {
		id, err := strconv.Atoi(args)
		if err != nil {
			return fmt.Errorf("invalid breakpoint id %q", args)
		}
		bp, err = t.client.ClearBreakpoint(id)
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(t.stdout, "%s cleared: %s\n", formatBreakpointName(bp), bp.Expr)
	return nil
}

// byID sorts breakpoints by ID.
type byID []*api.Breakpoint

func (a byID) Len() int           { return len(a) }
func (a byID) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byID) Less(i, j int) bool { return a[i].ID < a[j].ID }

func breakpoints(t *Term, ctx callContext, args string) error {
	breakPoints, err := t.client.ListBreakpoints()
	if err != nil {
		return err
	}
	if len(breakPoints) == 0 {
		fmt.Fprintln(t.stdout, "No breakpoints.")
		return nil
	}
	sort.Sort(byID(breakPoints))
	for _, bp := range breakPoints {
		disabled := ""
		if !bp.Enabled {
			disabled = " (disabled)"
		}
		fmt.Fprintf(t.stdout, "%s%s: %s (hits: %d)\n", formatBreakpointName(bp), disabled, bp.Expr, bp.HitCount)
	}
	return nil
}

func toggle(t *Term, ctx callContext, args string) error {
	id, err := strconv.Atoi(args)
	if err != nil {
		return fmt.Errorf("invalid breakpoint id %q", args)
	}
	bp, err := t.client.ToggleBreakpoint(id)
	if err != nil {
		return err
	}
	status := "disabled"
	if bp.Enabled {
		status = "enabled"
	}
	fmt.Fprintf(t.stdout, "%s %s\n", formatBreakpointName(bp), status)
	return nil
}

func inspect(t *Term, ctx callContext, args string) error {
	var id int
	if args == "" {
		bps, err := t.client.ListBreakpoints()
		if err != nil {
			return err
		}
		if len(bps) == 0 {
			return errors.New("no breakpoints")
		}
		sort.Sort(byID(bps))
		id = bps[len(bps)-1].ID
	} else {
		var err error
		id, err = strconv.Atoi(args)
		if err != nil {
			return fmt.Errorf("invalid breakpoint id %q", args)
		}
	}
	bp, err := t.client.GetBreakpoint(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "%s: %s\n", formatBreakpointName(bp), bp.Expr)
	if bp.Cond != bp.Expr {
		fmt.Fprintf(t.stdout, "\tcond %s\n", bp.Cond)
	}
	if !bp.Enabled {
		fmt.Fprintln(t.stdout, "\tdisabled")
	}
	fmt.Fprintf(t.stdout, "\thits %d\n", bp.HitCount)
	for i := range bp.Unique {
		printHistory(t, "\t", &bp.Unique[i])
	}
	return nil
}

func history(t *Term, ctx callContext, args string) error {
	if args == "" {
		return errors.New("wrong number of arguments: history <register>")
	}
	h, err := t.client.RegisterHistory(args)
	if err != nil {
		return err
	}
	printHistory(t, "", h)
	return nil
}

// printHistory prints the values seen by a register, the most recent
// values are printed if there are more than max-history-values.
func printHistory(t *Term, indent string, h *api.UniqueInfo) {
	if h.Seen == 0 {
		fmt.Fprintf(t.stdout, "%s%s: no values seen\n", indent, h.Register)
		return
	}
	fmt.Fprintf(t.stdout, "%s%s: %d values seen, last %d\n", indent, h.Register, h.Seen, h.Last)
	values := h.Values
	more := ""
	if max := t.conf.GetMaxHistoryValues(); len(values) > max {
		more = "... "
		values = values[len(values)-max:]
	}
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = strconv.FormatInt(v, 10)
	}
	fmt.Fprintf(t.stdout, "%s\t%s%s\n", indent, more, strings.Join(strs, " "))
}

func regs(t *Term, ctx callContext, args string) error {
	state, err := t.client.GetState()
	if err != nil {
		return err
	}
	printRegisters(t, state)
	return nil
}

func setRegister(t *Term, ctx callContext, args string) error {
	v, err := parseArgv(args)
	if err != nil {
		return err
	}
	if len(v) != 2 {
		return errors.New("wrong number of arguments: set <register> <value>")
	}
	n, err := strconv.ParseInt(v[1], 0, 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %v", v[1], err)
	}
	if err := t.client.SetRegister(v[0], n); err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "%s = %d\n", v[0], n)
	return nil
}

func printCond(t *Term, ctx callContext, args string) error {
	if args == "" {
		return errors.New("wrong number of arguments: print <condition>")
	}
	v, err := t.client.EvalCondition(args)
	if err != nil {
		return err
	}
	fmt.Fprintln(t.stdout, v)
	return nil
}

func listCommand(t *Term, ctx callContext, args string) error {
	prog, err := t.client.ListInstructions()
	if err != nil {
		return err
	}
	state, err := t.client.GetState()
	if err != nil {
		return err
	}
	center := state.Line
	if args != "" {
		center, err = strconv.Atoi(args)
		if err != nil {
			return fmt.Errorf("invalid line %q", args)
		}
	}
	if len(prog.Instructions) == 0 {
		return errors.New("program has no instructions")
	}
	if center < 0 {
		center = 0
	}
	if center >= len(prog.Instructions) {
		center = len(prog.Instructions) - 1
	}

	var buf bytes.Buffer
	for _, inst := range prog.Instructions {
		fmt.Fprintln(&buf, t.instructionText(inst))
	}
	n := t.conf.GetListContextLines()
	arrow := state.Line
	if state.Halted {
		arrow = -1
	}
	return t.stdout.ColorizePrint(bytes.NewReader(buf.Bytes()), center-n, center+n+1, arrow)
}

func stateCommand(t *Term, ctx callContext, args string) error {
	state, err := t.client.GetState()
	if err != nil {
		return err
	}
	if !state.Loaded {
		fmt.Fprintln(t.stdout, "No program loaded.")
		return nil
	}
	prog, err := t.client.ListInstructions()
	if err != nil {
		return err
	}
	status := "paused"
	switch {
	case state.Running:
		status = "running"
	case state.Halted:
		status = "halted"
	}
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 1, ' ', 0)
	fmt.Fprintf(w, "Program:\t%s\n", prog.Path)
	fmt.Fprintf(w, "State:\t%s (%s)\n", status, state.StopReason)
	fmt.Fprintf(w, "Line:\t%d\n", state.Line)
	fmt.Fprintf(w, "Instructions executed:\t%d\n", state.Count)
	fmt.Fprintf(w, "Distinct lines executed:\t%d\n", state.DistinctLines)
	return w.Flush()
}

func versionCommand(t *Term, ctx callContext, args string) error {
	v, err := t.client.GetVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "Elfdb Debugger\n%s\nAPI version: %d\n", v.ElfdbVersion, v.APIVersion)
	return nil
}

func transcript(t *Term, ctx callContext, args string) error {
	truncate := false
	fileOnly := false
	disable := false
	path := ""
	for _, arg := range strings.Fields(args) {
		switch arg {
		case "-x":
			fileOnly = true
		case "-t":
			truncate = true
		case "-off":
			disable = true
		default:
			if path != "" || strings.HasPrefix(arg, "-") {
				return fmt.Errorf("unrecognized option %q", arg)
			}
			path = arg
		}
	}

	if disable {
		if path != "" {
			return errors.New("-off option specified with an output path")
		}
		return t.stdout.CloseTranscript()
	}

	if path == "" {
		return errors.New("no output path specified")
	}

	flags := os.O_APPEND | os.O_WRONLY | os.O_CREATE
	if truncate {
		flags |= os.O_TRUNC
	}
	fh, err := os.OpenFile(path, flags, 0660)
	if err != nil {
		return err
	}

	if err := t.stdout.CloseTranscript(); err != nil {
		return err
	}

	t.stdout.TranscribeTo(fh, fileOnly)
	return nil
}

func (c *Commands) sourceCommand(t *Term, ctx callContext, args string) error {
	if len(args) == 0 {
		return fmt.Errorf("wrong number of arguments: source <filename>")
	}

	if args == "-" {
		if ctx.Script {
			return errors.New("the starlark interpreter can not be started from a script")
		}
		return t.starlarkEnv.REPL()
	}

	return c.sourceFile(t, args)
}

// sourceFile executes a starlark script or a file of commands.
func (c *Commands) sourceFile(t *Term, name string) error {
	if filepath.Ext(name) == ".star" {
		_, err := t.starlarkEnv.Execute(name, nil, "main", nil)
		return err
	}
	return c.executeFile(t, name)
}

// ExitRequestError is returned when the user
// exits elfdb.
type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}

func exitCommand(t *Term, ctx callContext, args string) error {
	return ExitRequestError{}
}

func (c *Commands) executeFile(t *Term, name string) error {
	fh, err := os.Open(name)
	if err != nil {
		return err
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	lineno := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineno++

		if line == "" || line[0] == '#' {
			continue
		}

		if err := c.CallWithContext(line, t, callContext{Script: true}); err != nil {
			if _, isExitRequest := err.(ExitRequestError); isExitRequest {
				return err
			}
			fmt.Fprintf(t.stdout, "%s:%d: %v\n", name, lineno, err)
		}
	}

	return scanner.Err()
}

// parseArgv splits args the way a shell would, backquotes are rejected.
func parseArgv(args string) ([]string, error) {
	v, err := argv.Argv(args,
		func(s string) (string, error) {
			return "", fmt.Errorf("Backtick not supported in '%s'", s)
		},
		nil)
	if err != nil {
		return nil, err
	}
	if len(v) != 1 {
		return nil, errors.New("illegal commandline")
	}
	return v[0], nil
}

func formatBreakpointName(bp *api.Breakpoint) string {
	return fmt.Sprintf("Breakpoint %d", bp.ID)
}

// instructionText returns the text of inst as configured by human-decoding.
func (t *Term) instructionText(inst api.Instruction) string {
	if t.conf.HumanDecoding {
		return inst.Human
	}
	return inst.Text
}

// printcontext prints the outcome of a step or continue.
func printcontext(t *Term, state *api.DebuggerState) {
	for _, bp := range state.Breakpoints {
		fmt.Fprintf(t.stdout, "> [%s] %s (hits: %d)\n", formatBreakpointName(bp), bp.Expr, bp.HitCount)
	}
	if state.StopReason == "manual" {
		fmt.Fprintln(t.stdout, "> Program paused")
	}
	if state.LastStep != nil {
		printStep(t, state.LastStep)
	}
	if state.Halted {
		fmt.Fprintf(t.stdout, "Program halted after %d instructions (%d distinct lines)\n", state.Count, state.DistinctLines)
	} else {
		fmt.Fprintf(t.stdout, "Stopped at line %d after %d instructions\n", state.Line, state.Count)
	}
	printRegisters(t, state)
}

func printStep(t *Term, step *api.StepInfo) {
	fmt.Fprintf(t.stdout, "%4d: %s\n", step.Line, t.instructionText(step.Instruction))
	for _, w := range step.Writes {
		unique := ""
		if w.Unique {
			unique = " (new)"
		}
		fmt.Fprintf(t.stdout, "\t%s: %d -> %d%s\n", w.Register, w.Old, w.New, unique)
	}
}

// printRegisters prints the register file. Registers read by the last
// instruction are marked with '*', written registers are highlighted.
func printRegisters(t *Term, state *api.DebuggerState) {
	for _, r := range state.Registers {
		mark := " "
		if r.Read {
			mark = "*"
		}
		name := r.Name
		if r.IP {
			name += "(ip)"
		}
		value := strconv.FormatInt(r.Value, 10)
		if r.Written {
			value = t.highlight(value)
		}
		t.Println(fmt.Sprintf("%s %-5s = ", mark, name), value)
	}
}
