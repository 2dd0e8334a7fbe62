// Package document converts JSON and YAML documents to and from reactive
// graphs of *observer.Object and *observer.Array.
//
// Decoding keeps the key order of the source. Numbers that are integral
// decode as int, other numbers as float64. Encoding reads values through
// property getters without registering dependencies.
//
// Documents are loaded from a Store. FileStore reads the local filesystem
// and S3Store reads an S3 bucket; Open picks one from a source string:
//
//	store, key, err := document.Open("s3://my-bucket/state.yaml", s3Client)
//	data, err := store.Load(ctx, key)
//	root, err := document.Decode(data, document.FormatFromPath(key))
//	observer.Observe(root, true)
//
// Get resolves a dotted path through the graph. Inside an effect every
// step of the path becomes a dependency:
//
//	name, err := document.Get(root, "users.0.name")
package document
