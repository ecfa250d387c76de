package compiler

// FileError is a failure confined to one source file. The run continues and
// reports every FileError at the end.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}
