// Package printing contains the Printing bounded context.
//
// It owns the rules that turn a print request into a safe renderer
// invocation: the fixed render option schema, the argument vector builder,
// the content fingerprint and the cache key that identifies a rendered PDF.
// Nothing in this package performs I/O.
//
// Example:
//
//	identity, err := printing.NewContentIdentity("https://example.com", "")
//	if err != nil {
//		return err
//	}
//	opts := printing.MergeOptions(schema.Defaults(), overrides)
//	args, err := schema.BuildArgs(opts)
//	key := printing.DeriveCacheKey(identity.Fingerprint(), opts)
package printing
