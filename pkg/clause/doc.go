// Package clause is the record model for a layered-structure-of-the-clause
// description.
//
// # Overview
//
// A description is an ordered list of [Unit] values, one per terminal (a word
// or a multi-word phrase). Order is the left-to-right surface order and is
// significant: it decides the horizontal order of the rendered terminals.
//
// Each unit may carry:
//
//   - a [Top] attachment: the syntactic category of the unit's upper
//     projection and the layer ([Kind]) it attaches to
//   - any number of [Bottom] attachments: grammatical operators scoping the
//     clause at the layer named by their kind
//
// Exactly one unit in a description must carry a Top with kind [Pred]; that
// unit is the head. This package does not check that invariant since it spans
// records; see package projection.
//
// # Input Format
//
// The JSON form is an array of units:
//
//	[
//	  {"phon": "Will", "bot": [{"op": "IF", "kind": "Clause"}, {"op": "TNS", "kind": "Clause"}]},
//	  {"phon": "they", "top": {"pos": "NP", "kind": "Core"}},
//	  {"phon": "leaving", "top": {"pos": "V", "kind": "Pred"}, "bot": [{"op": "ASP", "kind": "Nuc"}]}
//	]
//
// The key "bottoms" is accepted as an alias of "bot". The TOML form uses
// array tables:
//
//	[[unit]]
//	phon = "leaving"
//	top = { pos = "V", kind = "Pred" }
//
//	[[unit.bot]]
//	op = "ASP"
//	kind = "Nuc"
//
// # Errors
//
// Every decoding failure is an [errors.ErrCodeMalformedInput] error. Where the
// failure can be attributed to a unit, the error carries an
// [errors.Location] with the unit index, the offending field path
// (e.g. "bot[1].kind") and value. Syntax errors carry the line and byte
// offset instead.
//
// [errors.ErrCodeMalformedInput]: github.com/matzehuels/clausetree/pkg/errors.ErrCodeMalformedInput
// [errors.Location]: github.com/matzehuels/clausetree/pkg/errors.Location
package clause
