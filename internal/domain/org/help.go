package org

import (
	_ "embed"
	"encoding/json"
)

// soqlHelp is the hand-authored SOQL reference document. It is an opaque
// static resource: the tool returns it verbatim, with no computation.
//
//go:embed soql_help.json
var soqlHelp []byte

// SOQLHelp returns the embedded SOQL reference document.
func SOQLHelp() json.RawMessage {
	return json.RawMessage(soqlHelp)
}
