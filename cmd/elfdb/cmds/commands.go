package cmds

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/go-delve/elfdb/pkg/config"
	"github.com/go-delve/elfdb/pkg/logflags"
	"github.com/go-delve/elfdb/pkg/terminal"
	"github.com/go-delve/elfdb/pkg/version"
	"github.com/go-delve/elfdb/service"
	"github.com/go-delve/elfdb/service/dap"
	"github.com/go-delve/elfdb/service/rpc2"
	"github.com/go-delve/elfdb/service/rpccommon"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// headless is whether to run without terminal.
	headless bool
	// acceptMulti allows multiple clients to connect to the same server
	acceptMulti bool
	// addr is the debugging server listen address.
	addr string
	// initFile is the path to initialization file.
	initFile string
	// verbose prints the module versions elfdb was built with.
	verbose bool

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	conf *config.Config
)

const elfdbCommandLongDesc = `Elfdb is a debugger for Elfcode programs.

Elfdb loads a program, a list of six register instructions preceded by an
#ip directive, and lets you execute it one instruction at a time or until a
breakpoint condition becomes true.

Breakpoint conditions are built from line(n), read(r), write(r), unique(r)
and eq(r, v) and combined with all(...) and not(...). Run 'help break' in the
terminal for details.`

// New returns an initialized command tree.
func New() *cobra.Command {
	// Config setup and load.
	var err error
	conf, err = config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}

	// Main elfdb root command.
	rootCommand = &cobra.Command{
		Use:   "elfdb [program]",
		Short: "Elfdb is a debugger for Elfcode programs.",
		Long:  elfdbCommandLongDesc,
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			program := ""
			if len(args) > 0 {
				program = args[0]
			}
			os.Exit(execute(program, conf))
		},
	}

	rootCommand.PersistentFlags().StringVarP(&addr, "listen", "l", "127.0.0.1:0", "Debugging server listen address.")
	addLogFlags(rootCommand.PersistentFlags())
	rootCommand.Flags().BoolVarP(&headless, "headless", "", false, "Run debug server only, in headless mode.")
	rootCommand.Flags().BoolVarP(&acceptMulti, "accept-multiclient", "", false, "Allows a headless server to accept multiple client connections.")
	rootCommand.PersistentFlags().StringVar(&initFile, "init", "", "Init file, executed by the terminal client.")

	// 'connect' subcommand.
	connectCommand := &cobra.Command{
		Use:   "connect addr",
		Short: "Connect to a headless debug server.",
		Long:  "Connect to a running headless debug server.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("you must provide an address as the first argument")
			}
			return nil
		},
		Run: connectCmd,
	}
	rootCommand.AddCommand(connectCommand)

	// 'dap' subcommand.
	dapCommand := &cobra.Command{
		Use:   "dap [program]",
		Short: "Starts a TCP server communicating via Debug Adaptor Protocol (DAP).",
		Long: `Starts a TCP server communicating via Debug Adaptor Protocol (DAP).

The program to debug is specified by the launch request. Source breakpoints
map to instruction lines of the program, stepping executes one instruction.
The server does not accept multiple client connections.`,
		Args: cobra.MaximumNArgs(1),
		Run:  dapCmd,
	}
	rootCommand.AddCommand(dapCommand)

	// 'version' subcommand.
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Elfdb Debugger\n%s\n", version.ElfdbVersion)
			if verbose {
				fmt.Printf("%s\n", version.BuildInfo())
			}
		},
	}
	versionCommand.Flags().BoolVarP(&verbose, "verbose", "v", false, "print verbose version info")
	rootCommand.AddCommand(versionCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:


	debugger	Log debugger commands
	proc		Log instruction execution and breakpoint evaluation
	rpc		Log all RPC messages
	dap		Log all DAP messages

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.
This option will also redirect the "server listening at" message in headless
and dap modes.

`,
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

// addLogFlags adds the flags configuring logflags to fs.
func addLogFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&log, "log", "", false, "Enable debugging server logging.")
	fs.StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'elfdb help log')`)
	fs.StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'elfdb help log').")
}

func dapCmd(cmd *cobra.Command, args []string) {
	status := func() int {
		if err := logflags.Setup(log, logOutput, logDest); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		defer logflags.Close()

		if initFile != "" {
			fmt.Fprint(os.Stderr, "Warning: init file ignored with dap\n")
		}

		listener, err := net.Listen("tcp", addr)
		if err != nil {
			fmt.Printf("couldn't start listener: %s\n", err)
			return 1
		}
		disconnectChan := make(chan struct{})
		program := ""
		if len(args) > 0 {
			program = args[0]
		}
		server := dap.NewServer(&service.Config{
			Listener:       listener,
			Program:        program,
			DisconnectChan: disconnectChan,
		})
		defer server.Stop()

		server.Run()
		logflags.WriteDAPListeningMessage(listener.Addr().String())
		waitForDisconnectSignal(disconnectChan)
		return 0
	}()
	os.Exit(status)
}

func connectCmd(cmd *cobra.Command, args []string) {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
		return
	}
	defer logflags.Close()
	addr := args[0]
	if addr == "" {
		fmt.Fprint(os.Stderr, "An empty address was provided. You must provide an address as the first argument.\n")
		os.Exit(1)
	}
	os.Exit(connect(addr, nil, conf))
}

// waitForDisconnectSignal is a blocking function that waits for either
// a SIGINT (Ctrl-C) signal from the OS or for disconnectChan to be closed
// by the server when the client disconnects.
func waitForDisconnectSignal(disconnectChan chan struct{}) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	if runtime.GOOS == "windows" {
		// Ctrl-C is only honoured through the disconnect request on windows.
		go func() {
			for range ch {
			}
		}()
		<-disconnectChan
		return
	}
	select {
	case <-ch:
	case <-disconnectChan:
	}
}

func connect(addr string, clientConn net.Conn, conf *config.Config) int {
	// Create and start a terminal - attach to running instance
	var client *rpc2.RPCClient
	if clientConn != nil {
		client = rpc2.NewClientFromConn(clientConn)
	} else {
		var err error
		client, err = rpc2.NewClient(addr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not connect to %s: %v\n", addr, err)
			return 1
		}
	}
	if client.IsMulticlient() {
		// A previous client may have left the program running.
		state, _ := client.GetStateNonBlocking()
		if state != nil && state.Running {
			if _, err := client.Halt(); err != nil {
				fmt.Fprintf(os.Stderr, "could not halt: %v", err)
				return 1
			}
		}
	}
	term := terminal.New(client, conf)
	term.InitFile = initFile
	status, err := term.Run()
	if err != nil {
		fmt.Println(err)
	}
	return status
}

func execute(program string, conf *config.Config) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	if headless && (initFile != "") {
		fmt.Fprint(os.Stderr, "Warning: init file ignored with --headless\n")
	}
	if !headless && acceptMulti {
		fmt.Fprint(os.Stderr, "Warning accept-multi: ignored\n")
		acceptMulti = false
	}

	var listener net.Listener
	var clientConn net.Conn
	var err error

	// Make a TCP listener
	if headless {
		listener, err = net.Listen("tcp", addr)
	} else {
		listener, clientConn = service.ListenerPipe()
	}
	if err != nil {
		fmt.Printf("couldn't start listener: %s\n", err)
		return 1
	}
	defer listener.Close()

	disconnectChan := make(chan struct{})

	// Create and start a debugger server
	server := rpccommon.NewServer(&service.Config{
		Listener:       listener,
		Program:        program,
		AcceptMulti:    acceptMulti,
		DisconnectChan: disconnectChan,
	})

	if err := server.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if headless {
		logflags.WriteAPIListeningMessage(listener.Addr().String())
		waitForDisconnectSignal(disconnectChan)
		if err := server.Stop(); err != nil {
			fmt.Println(err)
		}
		return 0
	}

	return connect(listener.Addr().String(), clientConn, conf)
}
