// Package satd detects self-admitted technical debt markers in source comments.
package satd

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/src-d/enry/v2"
)

// Preset languages.
const (
	LanguageJava   = "java"
	LanguagePython = "python"
	LanguageGo     = "go"
)

const (
	slashCommentPattern = `//\s*(TODO|HACK|FIXME|XXX)|technical debt`
	hashCommentPattern  = `#\s*(TODO|HACK|FIXME|XXX)|technical debt`
)

var presets = map[string]struct {
	pattern  string
	language string // enry language name
}{
	LanguageJava:   {pattern: slashCommentPattern, language: "Java"},
	LanguagePython: {pattern: hashCommentPattern, language: "Python"},
	LanguageGo:     {pattern: slashCommentPattern, language: "Go"},
}

// Languages returns the preset names.
func Languages() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Classifier is a case-insensitive SATD predicate for one language.
type Classifier struct {
	re       *regexp.Regexp
	language string
}

// NewClassifier builds the classifier for a preset language. Custom patterns
// replace the preset pattern; the language still selects the target files.
func NewClassifier(language string, patterns []string) (*Classifier, error) {
	preset, ok := presets[strings.ToLower(language)]
	if !ok {
		return nil, fmt.Errorf("unknown SATD language %q (expected one of %s)", language, strings.Join(Languages(), ", "))
	}

	pattern := preset.pattern
	if len(patterns) > 0 {
		pattern = strings.Join(patterns, "|")
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid SATD pattern: %w", err)
	}
	return &Classifier{re: re, language: preset.language}, nil
}

// Match reports whether text contains a SATD marker anywhere.
func (c *Classifier) Match(text string) bool {
	return c.re.MatchString(text)
}

// CountLines returns the number of lines of src that contain a marker.
func (c *Classifier) CountLines(src []byte) int {
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if c.re.Match(sc.Bytes()) {
			n++
		}
	}
	return n
}

// Targets reports whether the file name belongs to the classifier's language.
func (c *Classifier) Targets(name string) bool {
	return enry.GetLanguage(name, nil) == c.language
}

// Language returns the enry name of the target language.
func (c *Classifier) Language() string {
	return c.language
}
