package docfmt

import "bytes"

var rtfOpen = []byte(`{\rtf1`)

// RTFResult is the structural evidence extracted from an RTF head+tail
// window.
type RTFResult struct {
	HeaderValid   bool
	BaselineValid bool
	TailValid     bool
	Valid         bool
}

// ParseRTF validates the RTF structural gate per spec §4.7: head begins
// with {\rtf1, contains an \ansi or \deffN baseline control word, and the
// tail ends with }.
func ParseRTF(head, tail []byte) *RTFResult {
	res := &RTFResult{}

	res.HeaderValid = bytes.HasPrefix(head, rtfOpen)
	res.BaselineValid = bytes.Contains(head, []byte(`\ansi`)) || containsDeffN(head)

	trimmed := bytes.TrimRight(tail, "\x00")
	res.TailValid = len(trimmed) > 0 && trimmed[len(trimmed)-1] == '}'

	res.Valid = res.HeaderValid && res.BaselineValid && res.TailValid
	return res
}

func containsDeffN(data []byte) bool {
	idx := bytes.Index(data, []byte(`\deff`))
	if idx < 0 {
		return false
	}
	rest := data[idx+len(`\deff`):]
	return len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9'
}
