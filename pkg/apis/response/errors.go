package response

var errors = map[ErrCode]string{
	ErrCodeMalformedJSON:      "The JSON you provided was not well-formed or did not validate against our published format.",
	ErrCodeRequestBody:        "Request body error",
	ErrCodeResourceExists:     "Resource %s already exists.",
	ErrCodeResourceNotFound:   "Resource %s not found.",
	ErrCodeInstrumentNotFound: "Instrument %s not found.",
	ErrCodeInstrumentDetached: "Instrument %s is not attached to an adapter.",
	ErrCodeOperationNotFound:  "Operation %s is not registered on instrument %s.",
	ErrCodeOperationBadArgs:   "Operation %s expects %d arguments.",
	ErrCodeAdapterNotFound:    "Adapter %s not found.",
	ErrCodeAdapterUnreachable: "Adapter %s is unreachable.",
	ErrCodeStatusUnSupported:          "Status %s is unsupported.",
	ErrCodeTooManyJsonPatchOperations: "The allowed maximum operations in a JSON patch is %d.",
	ErrCodeDuplicateAddress:           "GPIB address %d is already in use on adapter %s.",
}

// !!! IMPORTANT PLEASE READ FIRST !!!
// You SHOULD add new code at the end of enum firstly.

var ErrMalformedJSON = &responseError{
	Code:    ErrCodeMalformedJSON,
	Message: errors[ErrCodeMalformedJSON],
}

var ErrRequestBody = &responseError{
	Code:    ErrCodeRequestBody,
	Message: errors[ErrCodeRequestBody],
}

func ErrResourceExists(resource string) *responseError {
	return generateError(ErrCodeResourceExists, resource)
}

func ErrResourceNotFound(resource string) *responseError {
	return generateError(ErrCodeResourceNotFound, resource)
}

func ErrInstrumentNotFound(id string) *responseError {
	return generateError(ErrCodeInstrumentNotFound, id)
}

func ErrInstrumentDetached(id string) *responseError {
	return generateError(ErrCodeInstrumentDetached, id)
}

func ErrOperationNotFound(operation, id string) *responseError {
	return generateError(ErrCodeOperationNotFound, operation, id)
}

func ErrOperationBadArgs(operation string, arity int) *responseError {
	return generateError(ErrCodeOperationBadArgs, operation, arity)
}

func ErrAdapterNotFound(id string) *responseError {
	return generateError(ErrCodeAdapterNotFound, id)
}

func ErrAdapterUnreachable(err error, id string) *responseError {
	return generateErrorWrapper(ErrCodeAdapterUnreachable, err, id)
}

func ErrStatusUnSupported(status string) *responseError {
	return generateError(ErrCodeStatusUnSupported, status)
}

func ErrTooManyJsonPatchOperations(max int) *responseError {
	return generateError(ErrCodeTooManyJsonPatchOperations, max)
}

func ErrDuplicateAddress(address uint8, adapterId string) *responseError {
	return generateError(ErrCodeDuplicateAddress, address, adapterId)
}
