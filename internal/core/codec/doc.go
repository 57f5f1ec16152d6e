// Package codec converts between byte buffers and plain Go records using a schema
// declared once per record type.
//
// A schema lists the record's fields in wire order, each bound to a value codec:
//
//	var challengeSchema = codec.MustSchema("Challenge",
//		codec.Field("command", func(c *Challenge) *uint8 { return &c.Command }, codec.Uint8()),
//		codec.Field("country", func(c *Challenge) *string { return &c.Country },
//			codec.String(codec.FixedLength(4), codec.Reversed, codec.TrimPadding)),
//	)
//
// The same schema drives both Parse and Build, so every declared record
// round-trips through its wire format. Numbers are little-endian unless the
// field is Reversed.
package codec
