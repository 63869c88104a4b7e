package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two consecutive guard-ifs returning the same value are mergeable:
	//   if a { return err }
	//   if b { return err }
	// => if a || b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	// Same pattern with continue inside loops.
	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// Wrapping with a bare %v loses the error chain; errors.Is/As stop working.
	m.Match(`fmt.Errorf($fmt, $*_, $err)`).
		Where(m["err"].Type.Is(`error`) && !m["fmt"].Text.Matches(`.*%w.*`)).
		Report(`wrap errors with %w so errors.Is/As can unwrap them`)

	// Remote payloads must decode through the ordered Record path, not a
	// plain map, or field order is lost.
	m.Match(`var $x map[string]any; json.Unmarshal($data, &$x)`).
		Report(`decoding into map[string]any discards key order; use salesforce.Record for remote payloads`)
}
