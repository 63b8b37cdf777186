// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"strings"

	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// detailFields is the number of comma-separated fields in a details line.
const detailFields = 4

// ParseDetails reads a profile from a line like "Pramod, IT, AI/ML, MIT".
// It requires exactly four fields, each non-empty after trimming.
func ParseDetails(line string) (types.UserProfile, error) {
	fields := strings.Split(line, ",")
	if len(fields) != detailFields {
		return types.UserProfile{}, ErrMalformedDetails
	}
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
		if fields[i] == "" {
			return types.UserProfile{}, ErrMalformedDetails
		}
	}
	return types.UserProfile{
		Name:            fields[0],
		EducationStream: fields[1],
		Major:           fields[2],
		CollegeName:     fields[3],
	}, nil
}

// FormatDetails renders p in the form ParseDetails accepts.
func FormatDetails(p types.UserProfile) string {
	return strings.Join([]string{p.Name, p.EducationStream, p.Major, p.CollegeName}, ", ")
}
