package ports

// LineSource supplies newline-terminated lines from a stack of nested inputs.
// The preprocessor reads through it and pushes included files onto it.
type LineSource interface {
	// ReadLine returns the next line including its trailing newline (the
	// final line of an input may lack one). When the current input is
	// exhausted it is closed and reading continues with the input that
	// included it. Returns io.EOF once every input is exhausted. The
	// returned slice is only valid until the next call.
	ReadLine() ([]byte, error)

	// Push opens path and makes it the current input.
	Push(path string) error

	// Position reports the path and 1-based line number of the line most
	// recently returned by ReadLine.
	Position() (path string, line int)
}
