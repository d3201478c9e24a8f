package parser

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1h20m", 4800, true},
		{"45m", 2700, true},
		{"2h", 7200, true},
		{"90s", 90, true},
		{"1:30", 5400, true},
		{"0:45:10", 2710, true},
		{"", 0, true},
		{"1:75", 0, false},
		{"abc", 0, false},
		{"h", 0, false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			is := is.New(t)
			got, err := ParseDuration(c.in)
			if !c.ok {
				is.True(err != nil)
				return
			}
			is.NoErr(err)
			is.Equal(got, c.want)
		})
	}
}

func TestParseDate(t *testing.T) {
	is := is.New(t)
	now := time.Date(2025, 11, 2, 15, 4, 5, 0, time.UTC)

	got, err := ParseDate("today", now)
	is.NoErr(err)
	is.Equal(got, "2025-11-02")

	got, err = ParseDate("yesterday", now)
	is.NoErr(err)
	is.Equal(got, "2025-11-01")

	got, err = ParseDate("3 days ago", now)
	is.NoErr(err)
	is.Equal(got, "2025-10-30")

	got, err = ParseDate("29/02/2024", now)
	is.NoErr(err)
	is.Equal(got, "2024-02-29")

	_, err = ParseDate("2025-02-30", now)
	is.True(err != nil)

	_, err = ParseDate("next tuesday", now)
	is.True(err != nil)
}

func TestParseQuick(t *testing.T) {
	t.Run("full syntax", func(t *testing.T) {
		is := is.New(t)
		p := ParseQuick("Write code @Work/Dev #nexus,alpha #beta 1h20m")
		is.Equal(p.Name, "Write code")
		is.Equal(p.CategoryPath, "Work/Dev")
		is.Equal(p.InstanceTags, []string{"nexus", "alpha", "beta"})
		is.Equal(*p.InstanceTag(), "nexus,alpha,beta")
		is.Equal(p.InitialTime, int64(4800))
		is.Equal(len(p.Errors), 0)
	})

	t.Run("name only", func(t *testing.T) {
		is := is.New(t)
		p := ParseQuick("  Read   book  ")
		is.Equal(p.Name, "Read book")
		is.Equal(p.CategoryPath, "")
		is.True(p.InstanceTag() == nil)
		is.Equal(p.InitialTime, int64(0))
	})

	t.Run("a lone duration is a name", func(t *testing.T) {
		is := is.New(t)
		p := ParseQuick("45m")
		is.Equal(p.Name, "45m")
	})

	t.Run("missing name", func(t *testing.T) {
		is := is.New(t)
		p := ParseQuick("@Work #x")
		is.Equal(p.Name, "")
		is.Equal(len(p.Errors), 1)
	})
}
