package rpccommon

import (
	"fmt"
	"io"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"reflect"
	"runtime"
	"sync"

	"github.com/go-delve/elfdb/pkg/logflags"
	"github.com/go-delve/elfdb/pkg/version"
	"github.com/go-delve/elfdb/service"
	"github.com/go-delve/elfdb/service/api"
	"github.com/go-delve/elfdb/service/debugger"
	"github.com/go-delve/elfdb/service/rpc2"
)

// apiVersion is the only version of the API served.
const apiVersion = 2

// ServerImpl implements a JSON-RPC server exposing a debugger.
type ServerImpl struct {
	// config is all the information necessary to start the debugger and server.
	config *service.Config
	// listener is used to serve HTTP.
	listener net.Listener
	// stopChan is used to stop the listener goroutine.
	stopChan chan struct{}
	// debugger is the debugger service.
	debugger *debugger.Debugger
	// s2 is APIv2 server.
	s2 *rpc2.RPCServer
	// maps of served methods.
	methodMap map[string]*methodType
	log       logflags.Logger
}

type RPCCallback struct {
	s         *ServerImpl
	sending   *sync.Mutex
	codec     rpc.ServerCodec
	req       rpc.Request
	setupDone chan struct{}
}

var _ service.RPCCallback = &RPCCallback{}

// RPCServer implements the RPC method calls common to all versions of the API.
type RPCServer struct {
	s *ServerImpl
}

type methodType struct {
	method      reflect.Value
	Synchronous bool
	ArgType     reflect.Type
	ReplyType   reflect.Type
}

// NewServer creates a new RPCServer.
func NewServer(config *service.Config) *ServerImpl {
	logger := logflags.RPCLogger()
	if config.AcceptMulti {
		logger.Info("multiclient mode enabled")
	}
	return &ServerImpl{
		config:   config,
		listener: config.Listener,
		stopChan: make(chan struct{}),
		log:      logger,
	}
}

// Stop stops the JSON-RPC server.
func (s *ServerImpl) Stop() error {
	s.log.Debug("stopping")
	select {
	case <-s.stopChan:
		return nil
	default:
		close(s.stopChan)
	}
	if s.config.AcceptMulti {
		s.listener.Close()
	}
	if s.debugger != nil && s.debugger.IsRunning() {
		s.debugger.Command(&api.DebuggerCommand{Name: api.Halt})
	}
	return nil
}

// Run starts a debugger and exposes it with an JSON-RPC server. The debugger
// itself can be stopped with the `detach` API.
func (s *ServerImpl) Run() error {
	var err error

	// Create and start the debugger
	if s.debugger, err = debugger.New(&debugger.Config{Program: s.config.Program}); err != nil {
		return err
	}

	s.s2 = rpc2.NewServer(s.config, s.debugger)

	rpcServer := &RPCServer{s}

	s.methodMap = make(map[string]*methodType)

	suitableMethods2(s.s2, s.methodMap)
	suitableMethodsCommon(rpcServer, s.methodMap)
	finishMethodsMapInit(s.methodMap)

	go func() {
		defer s.listener.Close()
		for {
			c, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.stopChan:
					// We were supposed to exit, do nothing and return
					return
				default:
					s.log.Errorf("accept: %v", err)
					return
				}
			}

			go s.serveJSONCodec(c)
			if !s.config.AcceptMulti {
				break
			}
		}
	}()
	return nil
}

// Debugger returns the debugger service, nil before Run is called.
func (s *ServerImpl) Debugger() *debugger.Debugger {
	return s.debugger
}

func finishMethodsMapInit(methods map[string]*methodType) {
	for name, method := range methods {
		mtype := method.method.Type()
		if mtype.NumIn() != 2 {
			panic(fmt.Errorf("wrong number of inputs for method %s (%d)", name, mtype.NumIn()))
		}
		method.ArgType = mtype.In(0)
		method.ReplyType = mtype.In(1)
		method.Synchronous = method.ReplyType.String() != "service.RPCCallback"
	}
}

func (s *ServerImpl) serveJSONCodec(conn io.ReadWriteCloser) {
	defer func() {
		if ierr := recover(); ierr != nil {
			stack := make([]byte, 4096)
			stack = stack[:runtime.Stack(stack, false)]
			s.log.Errorf("rpc: panic serving connection: %v\n%s", ierr, stack)
		}
	}()

	sending := new(sync.Mutex)
	codec := jsonrpc.NewServerCodec(conn)
	var req rpc.Request
	var resp rpc.Response
	for {
		req = rpc.Request{}
		err := codec.ReadRequestHeader(&req)
		if err != nil {
			if err != io.EOF {
				s.log.Error("rpc:", err)
			}
			break
		}

		mtype, ok := s.methodMap[req.ServiceMethod]
		if !ok {
			s.log.Errorf("rpc: can't find method %s", req.ServiceMethod)
			codec.ReadRequestBody(nil)
			s.sendResponse(sending, &req, &rpc.Response{}, nil, codec, fmt.Sprintf("unknown method: %s", req.ServiceMethod))
			continue
		}

		var argv, replyv reflect.Value

		// Decode the argument value.
		argIsValue := false // if true, need to indirect before calling.
		if mtype.ArgType.Kind() == reflect.Ptr {
			argv = reflect.New(mtype.ArgType.Elem())
		} else {
			argv = reflect.New(mtype.ArgType)
			argIsValue = true
		}
		// argv guaranteed to be a pointer now.
		if err = codec.ReadRequestBody(argv.Interface()); err != nil {
			return
		}
		if argIsValue {
			argv = argv.Elem()
		}

		if mtype.Synchronous {
			if logflags.RPC() {
				s.log.Debugf("<- %s(%T%v)", req.ServiceMethod, argv.Interface(), argv.Interface())
			}
			replyv = reflect.New(mtype.ReplyType.Elem())
			returnValues := mtype.method.Call([]reflect.Value{argv, replyv})
			errInter := returnValues[0].Interface()
			errmsg := ""
			if errInter != nil {
				errmsg = errInter.(error).Error()
			}
			resp = rpc.Response{}
			if logflags.RPC() {
				s.log.Debugf("-> %T%v error: %q", replyv.Interface(), replyv.Interface(), errmsg)
			}
			s.sendResponse(sending, &req, &resp, replyv.Interface(), codec, errmsg)
			if req.ServiceMethod == "RPCServer.Detach" && s.config.DisconnectChan != nil {
				close(s.config.DisconnectChan)
				s.config.DisconnectChan = nil
			}
		} else {
			if logflags.RPC() {
				s.log.Debugf("(async %d) <- %s(%T%v)", req.Seq, req.ServiceMethod, argv.Interface(), argv.Interface())
			}
			ctl := &RPCCallback{s, sending, codec, req, make(chan struct{})}
			go func() {
				defer func() {
					if ierr := recover(); ierr != nil {
						ctl.Return(nil, fmt.Errorf("panic in %s: %v", req.ServiceMethod, ierr))
					}
				}()
				mtype.method.Call([]reflect.Value{argv, reflect.ValueOf(ctl)})
			}()
			<-ctl.setupDone
		}
	}
	codec.Close()
}

// A value sent as a placeholder for the server's response value when the server
// receives an invalid request. It is never decoded by the client since the Response
// contains an error when it is used.
var invalidRequest = struct{}{}

func (s *ServerImpl) sendResponse(sending *sync.Mutex, req *rpc.Request, resp *rpc.Response, reply interface{}, codec rpc.ServerCodec, errmsg string) {
	resp.ServiceMethod = req.ServiceMethod
	if errmsg != "" {
		resp.Error = errmsg
		reply = invalidRequest
	}
	resp.Seq = req.Seq
	sending.Lock()
	defer sending.Unlock()
	err := codec.WriteResponse(resp, reply)
	if err != nil {
		s.log.Error("writing response:", err)
	}
}

func (cb *RPCCallback) Return(out interface{}, err error) {
	select {
	case <-cb.setupDone:
	default:
		close(cb.setupDone)
	}
	errmsg := ""
	if err != nil {
		errmsg = err.Error()
	}
	var resp rpc.Response
	if logflags.RPC() {
		cb.s.log.Debugf("(async %d) -> %T%v error: %q", cb.req.Seq, out, out, errmsg)
	}
	cb.s.sendResponse(cb.sending, &cb.req, &resp, out, cb.codec, errmsg)
}

func (cb *RPCCallback) SetupDoneChan() chan struct{} {
	return cb.setupDone
}

// GetVersion returns the version of elfdb as well as the API version
// currently served.
func (s *RPCServer) GetVersion(args api.GetVersionIn, out *api.GetVersionOut) error {
	out.ElfdbVersion = version.ElfdbVersion.String()
	out.APIVersion = apiVersion
	return nil
}
