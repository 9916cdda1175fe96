// Package cmcode parses the codeless custom-mission wire format: a pipe
// delimited header carrying publish metadata, followed by the mission
// content verbatim.
package cmcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Identifier prefixes every codeless mission code.
const Identifier = "_infilengine_cm_codeless_"

const delimiter = "|"

// FeatureMissionVersion is the only feature this tool tracks: a version
// counter persisted in the repository and bumped on every publish.
const FeatureMissionVersion = "MissionVersion"

// Parse error taxonomy, mirrored by the HTTP listener's soft error replies.
var (
	ErrNotMissionCode      = errors.New("input string was not a codeless mission")
	ErrVersionMissing      = errors.New("input string is missing codeless version")
	ErrVersionNotUint      = errors.New("input string version was not a uint")
	ErrFeatureCountMissing = errors.New("input string is missing feature count")
	ErrFeatureCountInvalid = errors.New("input string feature count was not a uint")
	ErrFeatureMissing      = errors.New("input string is missing expected feature")
	ErrGistFileMissing     = errors.New("input string is missing gist filename")
	ErrGistURLMissing      = errors.New("input string is missing gist URL")
	ErrGistRemoteMissing   = errors.New("input string is missing gist remote")
	ErrBothRemoteAndURL    = errors.New("input string has both a gist remote and a gist URL")
	ErrNoRemoteOrURL       = errors.New("input string has neither a gist remote nor a gist URL")
)

// UnknownVersionError reports a header format version this build does not
// understand.
type UnknownVersionError struct {
	Version uint64
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("input string version %d is not supported", e.Version)
}

// Feature is one repository feature named by a mission code. Unknown
// features are carried but inert, so newer codes stay parseable.
type Feature struct {
	Name string
}

// Known reports whether this build understands the feature.
func (f Feature) Known() bool {
	return f.Name == FeatureMissionVersion
}

func (f Feature) String() string {
	if f.Known() {
		return f.Name
	}
	return fmt.Sprintf("Unknown[%s]", f.Name)
}

// Code is a parsed codeless mission. Exactly one of GistURL and GistRemote
// is set.
type Code struct {
	FormatVersion uint64
	Features      []Feature
	GistFile      string
	GistURL       string
	GistRemote    string
	Content       string
}

// nextElem splits off the next delimited header element.
func nextElem(code string, missing error) (string, string, error) {
	elem, rest, ok := strings.Cut(code, delimiter)
	if !ok {
		return "", "", missing
	}
	return elem, rest, nil
}

// Parse decodes a mission code. ErrNotMissionCode means the input simply
// isn't one (the standby watcher treats that as "ignore"); every other error
// is a malformed code worth reporting.
func Parse(input string) (*Code, error) {
	if !strings.HasPrefix(input, Identifier+delimiter) {
		return nil, ErrNotMissionCode
	}
	code := input[len(Identifier)+len(delimiter):]

	versionStr, code, err := nextElem(code, ErrVersionMissing)
	if err != nil {
		return nil, err
	}
	version, err := strconv.ParseUint(versionStr, 10, 64)
	if err != nil {
		return nil, ErrVersionNotUint
	}
	if version != 0 {
		return nil, &UnknownVersionError{Version: version}
	}

	countStr, code, err := nextElem(code, ErrFeatureCountMissing)
	if err != nil {
		return nil, err
	}
	count, err := strconv.ParseUint(countStr, 10, 64)
	if err != nil {
		return nil, ErrFeatureCountInvalid
	}

	// Preallocation is capped; a hostile count fails on the first missing
	// feature element anyway.
	prealloc := count
	if prealloc > 16 {
		prealloc = 16
	}
	features := make([]Feature, 0, prealloc)
	for i := uint64(0); i < count; i++ {
		var name string
		name, code, err = nextElem(code, ErrFeatureMissing)
		if err != nil {
			return nil, err
		}
		features = append(features, Feature{Name: name})
	}

	gistFile, code, err := nextElem(code, ErrGistFileMissing)
	if err != nil {
		return nil, err
	}
	gistURL, code, err := nextElem(code, ErrGistURLMissing)
	if err != nil {
		return nil, err
	}
	gistRemote, content, err := nextElem(code, ErrGistRemoteMissing)
	if err != nil {
		return nil, err
	}

	if gistURL == "None" {
		gistURL = ""
	}
	if gistRemote == "None" {
		gistRemote = ""
	}
	if gistURL != "" && gistRemote != "" {
		return nil, ErrBothRemoteAndURL
	}
	if gistURL == "" && gistRemote == "" {
		return nil, ErrNoRemoteOrURL
	}

	return &Code{
		FormatVersion: version,
		Features:      features,
		GistFile:      gistFile,
		GistURL:       gistURL,
		GistRemote:    gistRemote,
		Content:       content,
	}, nil
}

// HasFeature reports whether the code names the given feature.
func (c *Code) HasFeature(name string) bool {
	for _, f := range c.Features {
		if f.Name == name {
			return true
		}
	}
	return false
}

// FeatureDisplay renders the feature list for logging.
func (c *Code) FeatureDisplay() string {
	parts := make([]string, len(c.Features))
	for i, f := range c.Features {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}
