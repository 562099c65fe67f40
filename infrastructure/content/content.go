package content

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadYAML decodes a YAML document into out. When path is set the file is read
// from disk, otherwise name is read from the embedded filesystem. Unknown keys
// are rejected so typos in hand-edited content fail at startup.
func LoadYAML(path string, embedded fs.FS, name string, out any) error {
	var (
		raw    []byte
		err    error
		source = name
	)
	if strings.TrimSpace(path) != "" {
		source = path
		raw, err = os.ReadFile(path)
	} else {
		raw, err = fs.ReadFile(embedded, name)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", source, err)
	}
	return nil
}
