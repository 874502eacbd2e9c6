package logflags

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var debugger = false
var dap = false
var proc = false
var rpc = false

var logOut io.WriteCloser

func makeLogger(level logrus.Level, fields Fields) Logger {
	if lf := loggerFactory; lf != nil {
		return lf(level, fields, logOut)
	}
	logger := logrus.New().WithFields(logrus.Fields(fields))
	logger.Logger.Formatter = textFormatterInstance
	if logOut != nil {
		logger.Logger.Out = logOut
	}
	logger.Logger.Level = level
	return &logrusLogger{logger}
}

func makeFlaggableLogger(flag bool, fields Fields) Logger {
	if flag {
		return makeLogger(logrus.DebugLevel, fields)
	}
	return makeLogger(logrus.ErrorLevel, fields)
}

// Debugger returns true if the debugger package should log.
func Debugger() bool {
	return debugger
}

// DebuggerLogger returns a logger for the debugger package.
func DebuggerLogger() Logger {
	return makeFlaggableLogger(debugger, Fields{"layer": "debugger"})
}

// DAP returns true if the DAP server should log requests and responses.
func DAP() bool {
	return dap
}

// DAPLogger returns a logger for the DAP server.
func DAPLogger() Logger {
	return makeFlaggableLogger(dap, Fields{"layer": "dap"})
}

// Proc returns true if the execution controller should log state changes.
func Proc() bool {
	return proc
}

// ProcLogger returns a logger for the execution controller.
func ProcLogger() Logger {
	return makeFlaggableLogger(proc, Fields{"layer": "proc"})
}

// RPC returns true if the JSON-RPC server should log requests and responses.
func RPC() bool {
	return rpc
}

// RPCLogger returns a logger for the JSON-RPC server.
func RPCLogger() Logger {
	return makeFlaggableLogger(rpc, Fields{"layer": "rpc"})
}

// WriteAPIListeningMessage writes the "API server listening" message for
// headless instances.
func WriteAPIListeningMessage(addr string) {
	fmt.Fprintf(os.Stdout, "API server listening at: %s\n", addr)
	if logOut != nil {
		fmt.Fprintf(logOut, "API server listening at: %s\n", addr)
	}
}

// WriteDAPListeningMessage writes the "DAP server listening" message for
// clients that start the server and wait for it on stdout.
func WriteDAPListeningMessage(addr string) {
	fmt.Fprintf(os.Stdout, "DAP server listening at: %s\n", addr)
	if logOut != nil {
		fmt.Fprintf(logOut, "DAP server listening at: %s\n", addr)
	}
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets debugger flags based on the contents of logstr.
// If logDest is not empty logs will be redirected to the file descriptor or
// file path specified by logDest.
func Setup(logFlag bool, logstr, logDest string) error {
	if logDest != "" {
		n, err := strconv.Atoi(logDest)
		if err == nil {
			logOut = os.NewFile(uintptr(n), "elfdb-logs")
		} else {
			fh, err := os.Create(logDest)
			if err != nil {
				return fmt.Errorf("could not create log file: %v", err)
			}
			logOut = fh
		}
	}
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(io.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "debugger"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch logcmd {
		case "debugger":
			debugger = true
		case "dap":
			dap = true
		case "proc":
			proc = true
		case "rpc":
			rpc = true
		default:
			fmt.Fprintf(os.Stderr, "Warning: unknown log output value %q, run 'elfdb help log' for usage.\n", logcmd)
		}
	}
	return nil
}

// Close closes the logger output.
func Close() {
	if logOut != nil {
		logOut.Close()
	}
}

// textFormatter is a simplified version of logrus.TextFormatter that
// doesn't make logs unreadable when they are output to a text file or to a
// terminal that doesn't support colors.
type textFormatter struct {
}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	fmt.Fprintf(b, "%s %s ", entry.Time.Format("2006-01-02T15:04:05Z07:00"), entry.Level.String())
	if layer, ok := entry.Data["layer"]; ok {
		fmt.Fprintf(b, "%v ", layer)
	}
	for k, v := range entry.Data {
		if k == "layer" {
			continue
		}
		fmt.Fprintf(b, "%s=%v ", k, v)
	}
	b.WriteString(entry.Message)
	b.WriteByte('\n')
	return b.Bytes(), nil
}

var textFormatterInstance = &textFormatter{}
