// Package schema embeds the communications store DDL.
package schema

import "embed"

// FS contains the embedded schema scripts, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
