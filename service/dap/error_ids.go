package dap

// Unique identifiers for messages returned for errors from requests.
// These values are not mandated by DAP (other than the uniqueness
// requirement), so each implementation is free to choose their own.
const (
	UnsupportedCommand int = 9999
	InternalError      int = 8888

	FailedToLaunch             = 3000
	UnableToSetBreakpoints     = 2002
	UnableToDisplayThreads     = 2003
	UnableToProduceStackTrace  = 2004
	UnableToListRegisters      = 2005
	UnableToLookupVariable     = 2008
	UnableToEvaluateExpression = 2009
	UnableToSetVariable        = 2010
	UnableToStep               = 2011
	UnableToContinue           = 2012
	UnableToHalt               = 2013
	// Add more codes as we support more requests
)
