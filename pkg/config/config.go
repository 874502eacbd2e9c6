package config

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v2"
)

const (
	configDir       string = "elfdb"
	legacyConfigDir string = ".elfdb"
	configFile      string = "config.yml"

	defaultListContextLines = 5
	defaultMaxHistoryValues = 16
)

// Config defines all configuration options available to be set through the config file.
type Config struct {
	// Commands aliases.
	Aliases map[string][]string `yaml:"aliases"`

	// Source list line-number color (3/4 bit color codes as defined
	// here: https://en.wikipedia.org/wiki/ANSI_escape_code#Colors)
	SourceListLineColor int `yaml:"source-list-line-color"`

	// HumanDecoding makes list and step print instructions as assignments
	// ("c = a + 1") instead of their program text ("addi 0 1 2").
	HumanDecoding bool `yaml:"human-decoding"`

	// ListContextLines is the number of instructions list prints before
	// and after the current line.
	ListContextLines *int `yaml:"list-context-lines,omitempty"`
	// MaxHistoryValues is the maximum number of observed values inspect
	// prints for a register.
	MaxHistoryValues *int `yaml:"max-history-values,omitempty"`
}

// GetListContextLines returns the number of context lines of the list
// command.
func (c *Config) GetListContextLines() int {
	if c == nil || c.ListContextLines == nil {
		return defaultListContextLines
	}
	return *c.ListContextLines
}

// GetMaxHistoryValues returns the number of observed values inspect prints.
func (c *Config) GetMaxHistoryValues() int {
	if c == nil || c.MaxHistoryValues == nil {
		return defaultMaxHistoryValues
	}
	return *c.MaxHistoryValues
}

// LoadConfig attempts to populate a Config object from the config.yml file.
func LoadConfig() (*Config, error) {
	err := createConfigPath()
	if err != nil {
		return &Config{}, fmt.Errorf("could not create config directory: %v", err)
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return &Config{}, fmt.Errorf("unable to get config file path: %v", err)
	}

	f, err := os.Open(fullConfigFile)
	if err != nil {
		f, err = createDefaultConfig(fullConfigFile)
		if err != nil {
			return &Config{}, fmt.Errorf("error creating default config file: %v", err)
		}
	}
	defer func() {
		err := f.Close()
		if err != nil {
			fmt.Printf("Closing config file failed: %v.", err)
		}
	}()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		return &Config{}, fmt.Errorf("unable to read config data: %v", err)
	}

	var c Config
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return &Config{}, fmt.Errorf("unable to decode config file: %v", err)
	}

	return &c, nil
}

// SaveConfig will marshal and save the config struct
// to disk.
func SaveConfig(conf *Config) error {
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}

	f, err := os.Create(fullConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}

func createDefaultConfig(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create config file: %v", err)
	}
	err = writeDefaultConfig(f)
	if err != nil {
		return nil, fmt.Errorf("unable to write default configuration: %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return f, nil
}

func writeDefaultConfig(f *os.File) error {
	_, err := f.WriteString(
		`# Configuration file for the elfdb debugger.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Uncomment the following line and set your preferred ANSI foreground color
# for line numbers in the (list) command (if unset, default is 34,
# dark blue) See https://en.wikipedia.org/wiki/ANSI_escape_code#3/4_bit
# source-list-line-color: 34

# Print instructions as assignments, "c = a + 1" instead of "addi 0 1 2".
# human-decoding: true

# Number of instructions printed around the current line by list.
# list-context-lines: 5

# Number of observed register values printed by inspect.
# max-history-values: 16

# Provided aliases will be added to the default aliases for a given command.
aliases:
  # command: ["alias1", "alias2"]
`)
	return err
}

// createConfigPath creates the directory structure at which all config files are saved.
func createConfigPath() error {
	path, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0700)
}

// GetConfigFilePath gets the full path to the given config file name.
// An existing ~/.elfdb directory takes precedence, otherwise the XDG
// config directory is used on Linux.
func GetConfigFilePath(file string) (string, error) {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	legacy := path.Join(userHomeDir, legacyConfigDir)
	if _, err := os.Stat(legacy); err == nil {
		return path.Join(legacy, file), nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return path.Join(xdg, configDir, file), nil
	}
	if runtime.GOOS == "linux" {
		return path.Join(userHomeDir, ".config", configDir, file), nil
	}
	return path.Join(legacy, file), nil
}

type configureIterator struct {
	cfgValue reflect.Value
	cfgType  reflect.Type
	i        int
}

func iterateConfiguration(conf *Config) *configureIterator {
	cfgValue := reflect.ValueOf(conf).Elem()
	cfgType := cfgValue.Type()

	return &configureIterator{cfgValue, cfgType, -1}
}

func (it *configureIterator) Next() bool {
	it.i++
	return it.i < it.cfgValue.NumField()
}

func (it *configureIterator) Field() (name string, field reflect.Value) {
	name = it.cfgType.Field(it.i).Tag.Get("yaml")
	if comma := strings.Index(name, ","); comma >= 0 {
		name = name[:comma]
	}
	field = it.cfgValue.Field(it.i)
	return
}

// ConfigureFindFieldByName returns the field of conf with the given yaml
// name. The returned value is not addressable if there is no such field.
func ConfigureFindFieldByName(conf *Config, name string) reflect.Value {
	it := iterateConfiguration(conf)
	for it.Next() {
		fieldName, field := it.Field()
		if fieldName == name {
			return field
		}
	}
	return reflect.ValueOf(nil)
}

// ConfigureList writes every configuration parameter and its value to w.
func ConfigureList(w io.Writer, conf *Config) error {
	tw := new(tabwriter.Writer)
	tw.Init(w, 0, 8, 1, ' ', 0)

	it := iterateConfiguration(conf)
	for it.Next() {
		fieldName, field := it.Field()
		if fieldName == "" {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", fieldName, fieldString(field))
	}
	return tw.Flush()
}

// ConfigureListByName returns the value of a configuration parameter.
func ConfigureListByName(conf *Config, name string) string {
	field := ConfigureFindFieldByName(conf, name)
	if !field.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s\t%s", name, fieldString(field))
}

func fieldString(field reflect.Value) string {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return "<not defined>"
		}
		return fmt.Sprintf("%v", field.Elem())
	}
	return fmt.Sprintf("%v", field)
}

// ConfigureSetSimple sets the integer or boolean parameter cfgname of conf
// from its textual value rest.
func ConfigureSetSimple(conf *Config, cfgname, rest string) error {
	field := ConfigureFindFieldByName(conf, cfgname)
	if !field.CanAddr() {
		return fmt.Errorf("%q is not a configuration parameter", cfgname)
	}

	simpleArg := func(typ reflect.Type) (reflect.Value, error) {
		switch typ.Kind() {
		case reflect.Int:
			n, err := strconv.Atoi(rest)
			if err != nil {
				return reflect.ValueOf(nil), fmt.Errorf("argument to %q must be a number", cfgname)
			}
			if n < 0 {
				return reflect.ValueOf(nil), fmt.Errorf("argument to %q must be a number greater than zero", cfgname)
			}
			return reflect.ValueOf(&n), nil
		case reflect.Bool:
			if rest != "true" && rest != "false" {
				return reflect.ValueOf(nil), fmt.Errorf("argument to %q must be true or false", cfgname)
			}
			v := rest == "true"
			return reflect.ValueOf(&v), nil
		default:
			return reflect.ValueOf(nil), fmt.Errorf("unsupported type for configuration key %q", cfgname)
		}
	}

	if field.Kind() == reflect.Ptr {
		val, err := simpleArg(field.Type().Elem())
		if err != nil {
			return err
		}
		field.Set(val)
	} else {
		val, err := simpleArg(field.Type())
		if err != nil {
			return err
		}
		field.Set(val.Elem())
	}
	return nil
}
