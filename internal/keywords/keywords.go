// Package keywords loads the concept keyword groups used by the
// keyword-threshold checks. A keyword file is a JSON object of groups, each
// group an object of named pattern lists:
//
//	{"incident_1": {"root_cause": ["oomkill", "exit code 137"]}}
//
// Patterns are regular expressions matched case-insensitively. Lookups never
// fail: an unknown group or list yields no patterns.
package keywords

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ConceptList is the list name under which plain concept groups keep their
// patterns, as in {"golden_image": {"keywords": [...]}}.
const ConceptList = "keywords"

//go:embed default_keywords.json
var defaultKeywordsJSON []byte

//go:embed keywords.schema.json
var schemaJSON []byte

var (
	defaultPrinter = message.NewPrinter(language.English)
	keywordSchema  = mustCompileSchema(schemaJSON, "keywords.schema.json")
)

func mustCompileSchema(raw []byte, name string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// Set is an immutable collection of compiled keyword groups. It is safe for
// concurrent use.
type Set struct {
	groups   map[string]map[string][]*regexp.Regexp
	warnings []string
}

// Empty returns a set with no groups. Every count against it is zero.
func Empty() *Set {
	return &Set{groups: map[string]map[string][]*regexp.Regexp{}}
}

// Default returns the keyword set embedded in the binary.
func Default() *Set {
	s, err := Parse(defaultKeywordsJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded keywords are invalid: %v", err))
	}
	return s
}

// Load reads a keyword file. An empty path selects the embedded defaults.
// A missing file yields an empty set and a warning. A malformed file yields
// an empty set and an error describing why; callers are expected to log it
// and carry on.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s := Empty()
		if errors.Is(err, os.ErrNotExist) {
			s.warnings = append(s.warnings, fmt.Sprintf("keyword file %s not found, keyword checks will score zero", path))
			return s, nil
		}
		return s, fmt.Errorf("reading keyword file: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return Empty(), fmt.Errorf("keyword file %s: %w", path, err)
	}
	return s, nil
}

// Parse validates and compiles keyword JSON. Patterns that don't compile are
// dropped and reported through Warnings.
func Parse(data []byte) (*Set, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if err := keywordSchema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			var msgs []string
			collectSchemaErrors(ve, &msgs)
			return nil, fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
		}
		return nil, err
	}

	var raw map[string]map[string][]string
	if err := mapstructure.Decode(doc, &raw); err != nil {
		return nil, fmt.Errorf("decoding groups: %w", err)
	}

	s := Empty()
	for group, lists := range raw {
		compiled := make(map[string][]*regexp.Regexp, len(lists))
		for list, patterns := range lists {
			for _, p := range patterns {
				re, err := regexp.Compile("(?i)" + p)
				if err != nil {
					s.warnings = append(s.warnings, fmt.Sprintf("dropping invalid pattern %q in %s.%s: %v", p, group, list, err))
					continue
				}
				compiled[list] = append(compiled[list], re)
			}
		}
		s.groups[group] = compiled
	}
	sort.Strings(s.warnings)
	return s, nil
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// Warnings lists non-fatal problems found while loading.
func (s *Set) Warnings() []string { return s.warnings }

// Patterns returns the compiled patterns for group.list.
func (s *Set) Patterns(group, list string) []*regexp.Regexp {
	return s.groups[group][list]
}

// Count returns how many patterns of group.list match text at least once.
func (s *Set) Count(text, group, list string) int {
	text = strings.ToLower(text)
	n := 0
	for _, re := range s.Patterns(group, list) {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

// Concept counts matches of the concept group's keyword list.
func (s *Set) Concept(text, group string) int {
	return s.Count(text, group, ConceptList)
}

// Any reports whether any pattern of group.list matches text.
func (s *Set) Any(text, group, list string) bool {
	text = strings.ToLower(text)
	for _, re := range s.Patterns(group, list) {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
