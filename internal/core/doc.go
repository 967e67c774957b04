// Package core provides the CSV to JSON conversion logic.
//
// This package contains all conversion behaviour independent of any
// transport. It is used by the CLI, the HTTP server, and tests without
// modification.
//
// # Conversion
//
// A [Converter] reads CSV, builds a [Document] and renders it as JSON:
//
//	conv := core.NewConverter(core.ExtraFieldsDrop)
//	res, err := conv.Convert(ctx, "in.csv", "out.json")
//
// The flow is:
//
//  1. Input is wrapped with [WrapForDecoding]: bytes are counted, a leading
//     BOM is dropped and invalid UTF-8 stops the read with a [DecodeError]
//  2. The first CSV line becomes the [Header]
//  3. Every following line becomes a [Record] in file order; short rows are
//     padded with nulls and long rows follow the [ExtraFieldsPolicy]
//  4. [MarshalDocument] renders the records as a JSON array indented with
//     four spaces, keys in header order
//  5. The output file is created or truncated and written in one call
//
// # Error Handling
//
// Failures are typed: [IOError], [DecodeError], [ParseError] and
// [MalformedRowError]. Match them with errors.As. [MapError] turns any of them
// into a [UserMessage] with a support code:
//
//   - FILE001-FILE006: File errors (size, syntax, encoding, missing, permissions)
//   - CONV001-CONV002: Conversion errors (row length, generic I/O)
//   - REQ001-REQ003: Request errors (cancelled, timeout, busy)
//
// # Concurrency
//
// A [Converter] holds no per-call state and is safe for concurrent use. The
// HTTP server bounds parallel conversions with a [Limiter].
package core
