// Package mmfile maps source files into memory for parsing.
//
// On unix systems the file is mapped read-only with mmap; elsewhere it is
// read into memory. Either way the returned bytes must not be modified or
// retained after the release function (or With's callback) returns.
package mmfile

// With maps the file at path, calls fn with its contents and releases the
// mapping. fn must copy anything it keeps.
func With(path string, fn func(data []byte) error) error {
	data, release, err := Map(path)
	if err != nil {
		return err
	}
	fnErr := fn(data)
	if err := release(); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}
