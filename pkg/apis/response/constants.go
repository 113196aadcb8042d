package response

type ErrCode int

const (
	_                           ErrCode = 10000 + iota
	ErrCodeMalformedJSON                // 10001
	ErrCodeRequestBody                  // 10002
	ErrCodeResourceExists               // 10003
	ErrCodeResourceNotFound             // 10004
	ErrCodeInstrumentNotFound           // 10005
	ErrCodeInstrumentDetached           // 10006
	ErrCodeOperationNotFound            // 10007
	ErrCodeOperationBadArgs             // 10008
	ErrCodeAdapterNotFound              // 10009
	ErrCodeAdapterUnreachable           // 10010
	ErrCodeStatusUnSupported            // 10011
	ErrCodeTooManyJsonPatchOperations   // 10012
	ErrCodeDuplicateAddress             // 10013
)

// !!! IMPORTANT PLEASE READ FIRST !!!
// You SHOULD add new code at the end, and append comment of number
// Meanwhile, the corresponding error message SHOULD be appended in response.errors
// The order MUST be consistent between them
