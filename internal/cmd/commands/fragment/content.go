package fragment

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/fragments/pkg/fragments"
)

// errEmptyContent is reported when there is nothing to store.
var errEmptyContent = errors.New("empty content")

// contentError renders a readContent error for the terminal.
func contentError(err error) string {
	if errors.Is(err, errEmptyContent) {
		return "Please enter some text"
	}
	return err.Error()
}

// readContent returns the fragment body from a file, the remaining
// arguments, or stdin, in that order of preference.
func readContent(fs afero.Fs, file string, args []string, stdin io.Reader) ([]byte, error) {
	var data []byte
	switch {
	case file != "":
		b, err := afero.ReadFile(fs, file)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", file, err)
		}
		data = b
	case len(args) > 0:
		data = []byte(strings.Join(args, " "))
	case stdin != nil:
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("error reading stdin: %w", err)
		}
		data = b
	}

	if strings.TrimSpace(string(data)) == "" {
		return nil, errEmptyContent
	}
	return data, nil
}

// contentType picks the fragment type: the flag if set, otherwise the file
// extension, otherwise plain text.
func contentType(flagType, file string) string {
	if flagType != "" {
		return flagType
	}
	if file != "" {
		switch strings.ToLower(filepath.Ext(file)) {
		case ".md", ".markdown":
			return "text/markdown"
		case ".json":
			return "application/json"
		}
		if t := mime.TypeByExtension(filepath.Ext(file)); t != "" {
			return t
		}
	}
	return fragments.DefaultContentType
}
