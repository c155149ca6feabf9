package logcol

import (
	"regexp"
	"strconv"
	"strings"
)

// maxPatternVars caps the number of variables extracted from a single value;
// further matches stay in the template verbatim.
const maxPatternVars = 10

var (
	patTimestamp = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z?\b`)
	patDelims    = regexp.MustCompile(`\s+|[{}\[\](),;:"'=\-.]`)

	// Token classes, tried in order. Number precedes hex so plain digit runs
	// keep their class.
	tokenClasses = []struct {
		name string
		re   *regexp.Regexp
	}{
		{"timestamp", regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z?$`)},
		{"number", regexp.MustCompile(`^\d+$`)},
		{"time", regexp.MustCompile(`^\d+s$`)},
		{"hex", regexp.MustCompile(`^(0x)?[0-9a-fA-F]+$`)},
		{"ip", regexp.MustCompile(`^(?:\d{1,3}\.){3}\d{1,3}$`)},
	}
)

// patternize rewrites a flattened record: each leaf value is replaced by its
// extracted template and every variable becomes a var_* column of its own.
func patternize(flat map[string]string) map[string]string {
	out := make(map[string]string, len(flat))
	for key, value := range flat {
		pattern, vars := extractPattern(value, key)
		out[key] = pattern
		for name, v := range vars {
			out[name] = v
		}
	}
	return out
}

// extractPattern splits a value into a message template and its dynamic
// variables. Timestamps are pulled out before tokenization since they span
// delimiters; the remaining tokens are classified individually. Variables are
// named var_<root>_<n>_<class> with a per-class counter.
func extractPattern(value, root string) (string, map[string]string) {
	vars := make(map[string]string)
	counts := make(map[string]int)
	total := 0

	varName := func(class string) string {
		name := varPrefix + root + "_" + strconv.Itoa(counts[class]) + "_" + class
		counts[class]++
		total++
		return name
	}

	value = patTimestamp.ReplaceAllStringFunc(value, func(m string) string {
		if total >= maxPatternVars {
			return m
		}
		name := varName("timestamp")
		vars[name] = m
		return "{" + name + "}"
	})

	var pattern strings.Builder
	classify := func(token string) {
		if strings.TrimSpace(token) == "" {
			pattern.WriteString(token)
			return
		}
		if total < maxPatternVars {
			for _, class := range tokenClasses {
				if class.re.MatchString(token) {
					name := varName(class.name)
					vars[name] = token
					pattern.WriteString("{" + name + "}")
					return
				}
			}
		}
		pattern.WriteString(token)
	}

	last := 0
	for _, loc := range patDelims.FindAllStringIndex(value, -1) {
		classify(value[last:loc[0]])
		pattern.WriteString(value[loc[0]:loc[1]]) // delimiter, kept verbatim
		last = loc[1]
	}
	classify(value[last:])

	return pattern.String(), vars
}

// rehydrate substitutes extracted variables back into a template. Variable
// values never contain placeholders, so substitution order does not matter.
func rehydrate(pattern string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(pattern, "{"+varPrefix) {
		return pattern
	}
	for name, value := range vars {
		pattern = strings.ReplaceAll(pattern, "{"+name+"}", value)
	}
	return pattern
}
