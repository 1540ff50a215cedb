package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// createOutput opens the output file, or stdout for "" and "-".
func createOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	return os.Create(path)
}

// removeOutput deletes a partially written output file. Stdout is left
// alone.
func removeOutput(path string) {
	if path == "" || path == "-" {
		return
	}
	os.Remove(path)
}

// writeOutput writes data to the output file, or stdout for "" and "-". A
// failed write removes the file.
func writeOutput(cmd *cobra.Command, path string, data string) error {
	out, err := createOutput(cmd, path)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, data)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		removeOutput(path)
	}
	return err
}

// readInput reads the whole input file, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
