package finding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"warning", SeverityWarning, false},
		{"Warning", SeverityWarning, false},
		{"Error", SeverityError, false},
		{" hint ", SeverityHint, false},
		{"fatal", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityValid(t *testing.T) {
	assert.True(t, SeverityError.Valid())
	assert.False(t, Severity("Error").Valid())
	assert.False(t, Severity("").Valid())
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "a.swift:3", Finding{File: "a.swift", Line: 3}.Location())
	assert.Equal(t, "a.swift:3:7", Finding{File: "a.swift", Line: 3, Column: 7}.Location())
}

func TestFingerprint_IgnoresColumn(t *testing.T) {
	a := Finding{RuleID: "force_cast", File: "a.swift", Line: 3, Column: 1, Message: "m"}
	b := a
	b.Column = 9
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := a
	c.Line = 4
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Len(t, a.Fingerprint(), 16)
}

func TestFilesAndFilter(t *testing.T) {
	findings := []Finding{
		{RuleID: "force_cast", File: "b.swift"},
		{RuleID: "force_cast", File: "a.swift"},
		{RuleID: "line_length", File: "c.swift"},
		{RuleID: "force_cast", File: "a.swift"},
	}
	assert.Equal(t, []string{"a.swift", "b.swift", "c.swift"}, Files(findings))

	only := FilterRule(findings, "force_cast")
	assert.Len(t, only, 3)
	assert.Equal(t, []string{"a.swift", "b.swift"}, Files(only))
	assert.Empty(t, FilterRule(findings, "missing"))
}

func TestSort(t *testing.T) {
	findings := []Finding{
		{RuleID: "b", File: "x.swift", Line: 2},
		{RuleID: "a", File: "x.swift", Line: 2},
		{RuleID: "a", File: "a.swift", Line: 9},
		{RuleID: "a", File: "x.swift", Line: 1},
	}
	Sort(findings)
	assert.Equal(t, "a.swift", findings[0].File)
	assert.Equal(t, 1, findings[1].Line)
	assert.Equal(t, "a", findings[2].RuleID)
	assert.Equal(t, "b", findings[3].RuleID)
}
