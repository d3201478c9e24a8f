package parser

import (
	"regexp"
	"strings"
)

// ParsedTask represents a task parsed from quick-create input
type ParsedTask struct {
	Name         string
	CategoryPath string
	InstanceTags []string
	InitialTime  int64 // seconds
	Errors       []string
}

// InstanceTag joins the parsed tags the way they are stored
func (p ParsedTask) InstanceTag() *string {
	if len(p.InstanceTags) == 0 {
		return nil
	}
	tag := strings.Join(p.InstanceTags, ",")
	return &tag
}

var (
	tagRegex      = regexp.MustCompile(`#([^\s#@]+)`)
	categoryRegex = regexp.MustCompile(`@([^\s#@]+)`)
)

// ParseQuick extracts task metadata from a single line
// Syntax: "Task name @Work/Dev #tag1,tag2 1h20m"
func ParseQuick(input string) ParsedTask {
	result := ParsedTask{
		InstanceTags: []string{},
		Errors:       []string{},
	}

	// Extract tags (#tag1,tag2 or #tag1 #tag2)
	for _, match := range tagRegex.FindAllStringSubmatch(input, -1) {
		for _, tag := range strings.Split(match[1], ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				result.InstanceTags = append(result.InstanceTags, tag)
			}
		}
	}
	input = tagRegex.ReplaceAllString(input, "")

	// Extract category (@Work/Dev); the first one wins
	if m := categoryRegex.FindAllStringSubmatch(input, -1); len(m) > 0 {
		result.CategoryPath = strings.Trim(m[0][1], "/")
		if len(m) > 1 {
			result.Errors = append(result.Errors, "More than one category given, using '"+result.CategoryPath+"'")
		}
		input = categoryRegex.ReplaceAllString(input, "")
	}

	// A trailing duration token seeds the initial time
	fields := strings.Fields(input)
	if n := len(fields); n > 1 && IsDuration(fields[n-1]) && strings.ContainsAny(fields[n-1], "hms:") {
		seconds, err := ParseDuration(fields[n-1])
		if err != nil {
			result.Errors = append(result.Errors, "Invalid initial time '"+fields[n-1]+"': "+err.Error())
		} else {
			result.InitialTime = seconds
		}
		fields = fields[:n-1]
	}

	// Clean up the name (remove extra spaces)
	result.Name = strings.TrimSpace(strings.Join(fields, " "))
	if result.Name == "" {
		result.Errors = append(result.Errors, "Task name is required")
	}

	return result
}
