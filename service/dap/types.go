package dap

import (
	"encoding/json"
	"fmt"
)

// LaunchConfig is the collection of launch request attributes recognized by
// the elfdb DAP implementation.
type LaunchConfig struct {
	// Required. Path to the program file. If it is not an absolute path,
	// it will be interpreted as a path relative to the working directory
	// of the elfdb process.
	Program string `json:"program,omitempty"`

	// Automatically stop the program after launch.
	StopOnEntry bool `json:"stopOnEntry,omitempty"`

	// Breakpoint conditions created before the program starts, in
	// addition to the ones set by setBreakpoints requests.
	Conditions []string `json:"conditions,omitempty"`
}

// unmarshalLaunchArgs wraps unmarshalling of the launch request's
// arguments attribute. Upon unmarshal failure, it returns an error massaged
// to be suitable for end-users.
func unmarshalLaunchArgs(input json.RawMessage, config *LaunchConfig) error {
	if err := json.Unmarshal(input, config); err != nil {
		if uerr, ok := err.(*json.UnmarshalTypeError); ok {
			// "json: cannot unmarshal number into Go struct field LaunchConfig.program of type string"
			// => "cannot unmarshal number into 'program' of type string"
			return fmt.Errorf("cannot unmarshal %v into %q of type %v", uerr.Value, uerr.Field, uerr.Type.String())
		}
		return err
	}
	return nil
}
