// SPDX-License-Identifier: MIT

package forgefile

import (
	_ "embed"
	"fmt"
	"os"

	"forgeci/pkg/cueutil"
)

//go:embed forgefile_schema.cue
var forgefileSchema string

// Parse reads and parses a forgefile from the given path.
func Parse(path string) (*Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read forgefile at %s: %w", path, err)
	}
	return ParseBytes(data, path)
}

// ParseBytes parses forgefile content from bytes. The content is unified with
// the embedded #Forgefile schema before decoding, so schema violations are
// reported with field paths.
func ParseBytes(data []byte, path string) (*Playbook, error) {
	result, err := cueutil.Parse[Playbook](
		forgefileSchema,
		data,
		"#Forgefile",
		cueutil.WithFilename(path),
		// Optional sections (env, tasks) may be absent.
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return nil, err
	}

	pb := result.Value
	pb.FilePath = path

	if err := pb.validate(); err != nil {
		return nil, err
	}

	return pb, nil
}
