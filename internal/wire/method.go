package wire

// methodStrings and methodByteSlices are indexed by method ID (MethodUnknown
// through MethodTRACE), so MethodString/MethodBytes become a slice index
// instead of a second copy of the switch ParseMethodID already needed.
var (
	methodStrings = [...]string{
		MethodUnknown: "",
		MethodGET:     methodGETString,
		MethodPOST:    methodPOSTString,
		MethodPUT:     methodPUTString,
		MethodDELETE:  methodDELETEString,
		MethodPATCH:   methodPATCHString,
		MethodHEAD:    methodHEADString,
		MethodOPTIONS: methodOPTIONSString,
		MethodCONNECT: methodCONNECTString,
		MethodTRACE:   methodTRACEString,
	}

	methodByteSlices = [...][]byte{
		MethodUnknown: nil,
		MethodGET:     methodGETBytes,
		MethodPOST:    methodPOSTBytes,
		MethodPUT:     methodPUTBytes,
		MethodDELETE:  methodDELETEBytes,
		MethodPATCH:   methodPATCHBytes,
		MethodHEAD:    methodHEADBytes,
		MethodOPTIONS: methodOPTIONSBytes,
		MethodCONNECT: methodCONNECTBytes,
		MethodTRACE:   methodTRACEBytes,
	}
)

// ParseMethodID converts a request line's method token into a numeric ID,
// dispatching on length first and then comparing bytes directly — no
// allocation, no string conversion. Returns MethodUnknown for anything it
// doesn't recognize; Parser.Parse then rejects the request with
// ErrInvalidMethod and the connection loop closes the connection without
// writing a response.
func ParseMethodID(method []byte) uint8 {
	switch len(method) {
	case 3:
		if method[0] == 'G' && method[1] == 'E' && method[2] == 'T' {
			return MethodGET
		}
		if method[0] == 'P' && method[1] == 'U' && method[2] == 'T' {
			return MethodPUT
		}

	case 4:
		if method[0] == 'P' && method[1] == 'O' && method[2] == 'S' && method[3] == 'T' {
			return MethodPOST
		}
		if method[0] == 'H' && method[1] == 'E' && method[2] == 'A' && method[3] == 'D' {
			return MethodHEAD
		}

	case 5:
		if method[0] == 'P' && method[1] == 'A' && method[2] == 'T' && method[3] == 'C' && method[4] == 'H' {
			return MethodPATCH
		}
		if method[0] == 'T' && method[1] == 'R' && method[2] == 'A' && method[3] == 'C' && method[4] == 'E' {
			return MethodTRACE
		}

	case 6:
		if method[0] == 'D' && method[1] == 'E' && method[2] == 'L' &&
			method[3] == 'E' && method[4] == 'T' && method[5] == 'E' {
			return MethodDELETE
		}

	case 7:
		if method[0] == 'O' && method[1] == 'P' && method[2] == 'T' &&
			method[3] == 'I' && method[4] == 'O' && method[5] == 'N' && method[6] == 'S' {
			return MethodOPTIONS
		}
		if method[0] == 'C' && method[1] == 'O' && method[2] == 'N' &&
			method[3] == 'N' && method[4] == 'E' && method[5] == 'C' && method[6] == 'T' {
			return MethodCONNECT
		}
	}

	return MethodUnknown
}

// MethodString returns the canonical string for a method ID, or "" for
// MethodUnknown or any ID outside the known range.
func MethodString(id uint8) string {
	if int(id) >= len(methodStrings) {
		return ""
	}
	return methodStrings[id]
}

// MethodBytes returns the canonical byte slice for a method ID, or nil for
// MethodUnknown or any ID outside the known range. The returned slice is
// shared, package-level storage — callers must treat it as read-only.
func MethodBytes(id uint8) []byte {
	if int(id) >= len(methodByteSlices) {
		return nil
	}
	return methodByteSlices[id]
}

// IsValidMethodID reports whether id names one of the recognized methods
// rather than MethodUnknown.
func IsValidMethodID(id uint8) bool {
	return id >= MethodGET && id <= MethodTRACE
}
